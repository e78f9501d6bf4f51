// internal/repository/postgres/user_repo.go
package postgres

import (
	"context"
	"fmt"

	"crm-service/internal/domain/auth"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, full_name, password_hash, role, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row, u *auth.User) error {
	return row.Scan(
		&u.ID, &u.Username, &u.Email, &u.FullName,
		&u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *auth.User) error {
	query := fmt.Sprintf(`
		INSERT INTO users (username, email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, userColumns)

	row := r.db.QueryRow(ctx, query, u.Username, u.Email, u.FullName, u.PasswordHash, u.Role)
	if err := scanUser(row, u); err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindByUsername retrieves a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = $1`, userColumns)

	var u auth.User
	err := scanUser(r.db.QueryRow(ctx, query, username), &u)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// FindByID retrieves a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	var u auth.User
	err := scanUser(r.db.QueryRow(ctx, query, id), &u)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// List returns all users ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY username`, userColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []auth.User{}
	for rows.Next() {
		var u auth.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return users, nil
}

// Update writes the mutable profile fields.
func (r *UserRepository) Update(ctx context.Context, u *auth.User) error {
	query := fmt.Sprintf(`
		UPDATE users
		SET username = $1, email = $2, full_name = $3, role = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING %s
	`, userColumns)

	row := r.db.QueryRow(ctx, query, u.Username, u.Email, u.FullName, u.Role, u.ID)
	if err := scanUser(row, u); err != nil {
		if err == pgx.ErrNoRows {
			return xerrors.ErrNotFound
		}
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// ExistsByUsername reports whether the username is already taken.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}
