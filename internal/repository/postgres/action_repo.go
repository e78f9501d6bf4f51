// internal/repository/postgres/action_repo.go
package postgres

import (
	"context"
	"fmt"

	"crm-service/internal/domain/customer"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ActionRepository struct {
	db *pgxpool.Pool
}

func NewActionRepository(db *pgxpool.Pool) *ActionRepository {
	return &ActionRepository{db: db}
}

// InsertTx records an audit action inside an existing transaction.
func (r *ActionRepository) InsertTx(ctx context.Context, tx pgx.Tx, a *customer.Action) error {
	query := `
		INSERT INTO customer_actions (customer_id, user_id, action_type, old_value, new_value)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := tx.QueryRow(ctx, query,
		a.CustomerID, a.UserID, a.ActionType, a.OldValue, a.NewValue,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert action: %w", err)
	}
	return nil
}

// ListByCustomer returns a customer's action history, newest first.
func (r *ActionRepository) ListByCustomer(ctx context.Context, customerID int64, limit int) ([]customer.Action, error) {
	if limit < 1 {
		limit = 50
	}
	query := `
		SELECT id, customer_id, user_id, action_type, old_value, new_value, created_at
		FROM customer_actions
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	actions := []customer.Action{}
	for rows.Next() {
		var a customer.Action
		err := rows.Scan(&a.ID, &a.CustomerID, &a.UserID, &a.ActionType,
			&a.OldValue, &a.NewValue, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read actions: %w", err)
	}
	return actions, nil
}
