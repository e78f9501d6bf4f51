// internal/service/contact/contact.go
package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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

// Store is the slice of the customer repository the contact form needs.
type Store interface {
	FindByEmailForUpdate(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error)
	FindByEmailTx(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error)
	UpdateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) (*customer.Customer, error)
	CreateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error
}

type Service struct {
	db     TxBeginner
	store  Store
	logger *zap.Logger
}

func NewService(db TxBeginner, store Store, logger *zap.Logger) *Service {
	return &Service{db: db, store: store, logger: logger}
}

// Submit ingests a public contact-form submission. Two submissions with the
// same email racing each other must produce exactly one customer row, so the
// lookup locks any existing row and, when none is found, re-checks inside
// the same transaction before inserting. The re-check closes the window
// where another transaction inserted between our pre-check and our lock.
func (s *Service) Submit(ctx context.Context, req *customer.ContactRequest) (*customer.Customer, bool, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		return nil, false, xerrors.Wrap(xerrors.ErrInvalidInput, "email is required")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := s.store.FindByEmailForUpdate(ctx, tx, email)
	if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
		return nil, false, err
	}

	if existing == nil {
		// Double check after lock acquisition.
		existing, err = s.store.FindByEmailTx(ctx, tx, email)
		if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
			return nil, false, err
		}
	}

	if existing != nil {
		updated, err := s.appendMessage(ctx, tx, existing, req)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to commit contact update: %w", err)
		}
		s.logger.Info("contact form matched existing customer",
			zap.Int64("customer_id", updated.ID))
		return updated, false, nil
	}

	created := newCustomerFromContact(req, email)
	if err := s.store.CreateTx(ctx, tx, created); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit contact insert: %w", err)
	}

	s.logger.Info("contact form created customer", zap.Int64("customer_id", created.ID))
	return created, true, nil
}

// appendMessage folds a repeat submission's message into the existing
// customer's notes rather than creating a duplicate row.
func (s *Service) appendMessage(ctx context.Context, tx pgx.Tx, existing *customer.Customer, req *customer.ContactRequest) (*customer.Customer, error) {
	next := *existing
	if req.Message != "" {
		notes := existing.Notes.String
		if notes != "" {
			notes += "\n"
		}
		notes += req.Message
		next.Notes = sql.NullString{String: notes, Valid: true}
	}
	if req.Phone != "" && !existing.Phone.Valid {
		next.Phone = sql.NullString{String: req.Phone, Valid: true}
	}
	return s.store.UpdateTx(ctx, tx, &next)
}

func newCustomerFromContact(req *customer.ContactRequest, email string) *customer.Customer {
	name := strings.TrimSpace(req.Name)
	first, last := "", ""
	if parts := strings.Fields(name); len(parts) > 0 {
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}

	c := &customer.Customer{
		Name:   name,
		Email:  sql.NullString{String: email, Valid: true},
		Status: customer.StatusPending,
	}
	if first != "" {
		c.FirstName = sql.NullString{String: first, Valid: true}
	}
	if last != "" {
		c.LastName = sql.NullString{String: last, Valid: true}
	}
	if req.Phone != "" {
		c.Phone = sql.NullString{String: req.Phone, Valid: true}
	}
	if req.Message != "" {
		c.Notes = sql.NullString{String: req.Message, Valid: true}
	}
	return c
}
