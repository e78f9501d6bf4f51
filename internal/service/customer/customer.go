// internal/service/customer/customer.go
package customer

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TxBeginner opens a transaction. Satisfied by *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is the customer persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, c *customer.Customer) error
	FindByID(ctx context.Context, id int64) (*customer.Customer, error)
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*customer.Customer, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) (*customer.Customer, error)
	List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error)
	Delete(ctx context.Context, id int64) error
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	GetStats(ctx context.Context) (*customer.Stats, error)
	ExportAll(ctx context.Context) ([]customer.Customer, error)
}

// ActionStore records and reads the audit trail.
type ActionStore interface {
	InsertTx(ctx context.Context, tx pgx.Tx, a *customer.Action) error
	ListByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Action, error)
}

type Service struct {
	db      TxBeginner
	store   Store
	actions ActionStore
	logger  *zap.Logger
}

func NewService(db TxBeginner, store Store, actions ActionStore, logger *zap.Logger) *Service {
	return &Service{db: db, store: store, actions: actions, logger: logger}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create persists a new customer from a manual-entry request.
func (s *Service) Create(ctx context.Context, req *customer.CreateCustomerRequest) (*customer.Customer, error) {
	name := strings.TrimSpace(req.Name)
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)

	if name == "" {
		name = strings.TrimSpace(first + " " + last)
	}
	if name == "" {
		if req.Email == "" && req.Phone == "" {
			return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "customer needs a name, email or phone")
		}
		name = "Unknown"
	}
	if name != "" && first == "" && last == "" {
		parts := strings.Fields(name)
		if len(parts) > 0 {
			first = parts[0]
			last = strings.Join(parts[1:], " ")
		}
	}

	status := req.Status
	if status == "" {
		status = customer.StatusPending
	}
	if !customer.IsValidStatus(status) {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("unknown status %q", status))
	}

	c := &customer.Customer{
		Name:      name,
		FirstName: nullString(first),
		LastName:  nullString(last),
		Email:     nullString(strings.TrimSpace(req.Email)),
		Phone:     nullString(strings.TrimSpace(req.Phone)),
		Address:   nullString(strings.TrimSpace(req.Address)),
		Status:    status,
		Notes:     nullString(req.Notes),
		Tags:      req.Tags,
	}
	if req.AssignedTo != nil {
		c.AssignedTo = sql.NullInt64{Int64: *req.AssignedTo, Valid: true}
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*customer.Customer, error) {
	return s.store.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *customer.ListFilters) (*customer.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = 20
	}

	customers, total, err := s.store.List(ctx, filters)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filters.Limit) - 1) / int64(filters.Limit))
	return &customer.ListResponse{
		Customers: customers,
		Pagination: customer.Pagination{
			Page:       filters.Page,
			Limit:      filters.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Update runs the optimistic-lock update pipeline: lock the row, reject a
// stale updated_at, diff the tracked fields, apply one UPDATE, then record
// the staged audit actions before committing.
func (s *Service) Update(ctx context.Context, id int64, actorID int64, req *customer.UpdateCustomerRequest) (*customer.Customer, error) {
	if req.Status != nil && !customer.IsValidStatus(*req.Status) {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, fmt.Sprintf("unknown status %q", *req.Status))
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	current, err := s.store.FindByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if req.UpdatedAt != nil && req.UpdatedAt.Before(current.UpdatedAt) {
		return nil, xerrors.ErrConflict
	}

	next := *current
	actions := s.stageChanges(&next, current, actorID, req)

	updated, err := s.store.UpdateTx(ctx, tx, &next)
	if err != nil {
		return nil, err
	}

	// Audit failures never hold the customer update hostage. Each insert
	// runs in a savepoint so a failed statement cannot poison the outer
	// transaction.
	for _, action := range actions {
		sp, err := tx.Begin(ctx)
		if err != nil {
			s.logger.Error("failed to open audit savepoint",
				zap.Int64("customer_id", id), zap.Error(err))
			break
		}
		if err := s.actions.InsertTx(ctx, sp, action); err != nil {
			sp.Rollback(ctx)
			s.logger.Error("failed to record customer action",
				zap.Int64("customer_id", id),
				zap.String("action_type", action.ActionType),
				zap.Error(err))
			continue
		}
		if err := sp.Commit(ctx); err != nil {
			s.logger.Error("failed to commit customer action",
				zap.Int64("customer_id", id), zap.Error(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return updated, nil
}

// stageChanges applies the requested changes to next and returns one audit
// action per changed tracked field. Archiving clears the assignment.
func (s *Service) stageChanges(next, current *customer.Customer, actorID int64, req *customer.UpdateCustomerRequest) []*customer.Action {
	actor := sql.NullInt64{Int64: actorID, Valid: actorID > 0}
	var actions []*customer.Action

	stage := func(actionType, oldValue, newValue string) {
		actions = append(actions, &customer.Action{
			CustomerID: current.ID,
			UserID:     actor,
			ActionType: actionType,
			OldValue:   nullString(oldValue),
			NewValue:   nullString(newValue),
		})
	}

	if req.Name != nil && *req.Name != "" {
		next.Name = *req.Name
	}
	if req.FirstName != nil {
		next.FirstName = nullString(*req.FirstName)
	}
	if req.LastName != nil {
		next.LastName = nullString(*req.LastName)
	}
	if req.Email != nil {
		next.Email = nullString(*req.Email)
	}
	if req.Phone != nil {
		next.Phone = nullString(*req.Phone)
	}
	if req.Address != nil {
		next.Address = nullString(*req.Address)
	}
	if req.Tags != nil {
		next.Tags = req.Tags
	}

	if req.Status != nil && *req.Status != current.Status {
		next.Status = *req.Status
		stage(customer.ActionStatusChange, current.Status, *req.Status)
	}

	if req.AssignedTo != nil || req.ClearAssignee {
		var assignee sql.NullInt64
		if req.AssignedTo != nil && !req.ClearAssignee {
			assignee = sql.NullInt64{Int64: *req.AssignedTo, Valid: true}
		}
		if assignee != current.AssignedTo {
			next.AssignedTo = assignee
			stage(customer.ActionAssignment,
				formatAssignee(current.AssignedTo), formatAssignee(assignee))
		}
	}

	if req.Notes != nil && *req.Notes != current.Notes.String {
		next.Notes = nullString(*req.Notes)
		stage(customer.ActionComment, current.Notes.String, *req.Notes)
	}

	if req.Archived != nil && *req.Archived != current.Archived {
		next.Archived = *req.Archived
		if *req.Archived {
			// Archived records leave the active-assignment views.
			next.AssignedTo = sql.NullInt64{}
			stage(customer.ActionArchive, "false", "true")
		} else {
			stage(customer.ActionRestore, "true", "false")
		}
	}

	return actions
}

func formatAssignee(v sql.NullInt64) string {
	if !v.Valid {
		return ""
	}
	return strconv.FormatInt(v.Int64, 10)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, xerrors.Wrap(xerrors.ErrInvalidInput, "no customer ids supplied")
	}
	return s.store.BulkDelete(ctx, ids)
}

func (s *Service) Stats(ctx context.Context) (*customer.Stats, error) {
	return s.store.GetStats(ctx)
}

func (s *Service) Actions(ctx context.Context, customerID int64, limit int) ([]customer.Action, error) {
	if _, err := s.store.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.actions.ListByCustomer(ctx, customerID, limit)
}

var exportHeader = []string{
	"id", "name", "first_name", "last_name", "email", "phone", "address",
	"status", "assigned_to", "notes", "archived", "created_at", "updated_at",
}

// ExportCSV renders every customer as a CSV document.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	customers, err := s.store.ExportAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, c := range customers {
		record := []string{
			strconv.FormatInt(c.ID, 10),
			c.Name,
			c.FirstName.String,
			c.LastName.String,
			c.Email.String,
			c.Phone.String,
			c.Address.String,
			c.Status,
			formatAssignee(c.AssignedTo),
			c.Notes.String,
			strconv.FormatBool(c.Archived),
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}
