// internal/domain/customer/entity.go
package customer

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Customer statuses
const (
	StatusPending      = "pending"
	StatusInterested   = "interested"
	StatusFollowUp     = "follow_up"
	StatusCallBack     = "call_back"
	StatusNotInService = "not_in_service"
	StatusVoiceMail    = "voice_mail"
	StatusCitizen      = "citizen"
	StatusDND          = "dnd"
	StatusW2Received   = "w2_received"
	StatusPotential    = "potential"
	StatusArchived     = "archived"
)

var validStatuses = map[string]struct{}{
	StatusPending:      {},
	StatusInterested:   {},
	StatusFollowUp:     {},
	StatusCallBack:     {},
	StatusNotInService: {},
	StatusVoiceMail:    {},
	StatusCitizen:      {},
	StatusDND:          {},
	StatusW2Received:   {},
	StatusPotential:    {},
	StatusArchived:     {},
}

func IsValidStatus(s string) bool {
	_, ok := validStatuses[s]
	return ok
}

type Customer struct {
	ID        int64          `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	FirstName sql.NullString `json:"first_name,omitempty" db:"first_name"`
	LastName  sql.NullString `json:"last_name,omitempty" db:"last_name"`
	Email     sql.NullString `json:"email,omitempty" db:"email"`
	Phone     sql.NullString `json:"phone,omitempty" db:"phone"`
	Address   sql.NullString `json:"address,omitempty" db:"address"`

	Status     string         `json:"status" db:"status"`
	AssignedTo sql.NullInt64  `json:"assigned_to,omitempty" db:"assigned_to"`
	Notes      sql.NullString `json:"notes,omitempty" db:"notes"`
	Tags       pq.StringArray `json:"tags,omitempty" db:"tags"`
	Archived   bool           `json:"archived" db:"archived"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Action types recorded in the audit trail
const (
	ActionStatusChange = "status_change"
	ActionAssignment   = "assignment"
	ActionComment      = "comment"
	ActionArchive      = "archive"
	ActionRestore      = "restore"
)

// Action is one observed change to a tracked customer field.
// Rows are insert-only; the application never updates or deletes them.
type Action struct {
	ID         int64          `json:"id" db:"id"`
	CustomerID int64          `json:"customer_id" db:"customer_id"`
	UserID     sql.NullInt64  `json:"user_id,omitempty" db:"user_id"`
	ActionType string         `json:"action_type" db:"action_type"`
	OldValue   sql.NullString `json:"old_value,omitempty" db:"old_value"`
	NewValue   sql.NullString `json:"new_value,omitempty" db:"new_value"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

type Stats struct {
	Total      int64            `json:"total"`
	Archived   int64            `json:"archived"`
	Assigned   int64            `json:"assigned"`
	Unassigned int64            `json:"unassigned"`
	ByStatus   map[string]int64 `json:"by_status"`
}
