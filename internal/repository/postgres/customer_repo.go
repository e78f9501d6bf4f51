// internal/repository/postgres/customer_repo.go
package postgres

import (
	"context"
	"fmt"
	"strings"

	"crm-service/internal/domain/customer"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

const customerColumns = `id, name, first_name, last_name, email, phone, address,
	       status, assigned_to, notes, tags, archived, created_at, updated_at`

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// tagsParam guards against writing NULL into the NOT NULL tags column.
func tagsParam(tags pq.StringArray) interface{} {
	if tags == nil {
		tags = pq.StringArray{}
	}
	return pq.Array([]string(tags))
}

func scanCustomer(row pgx.Row, c *customer.Customer) error {
	return row.Scan(
		&c.ID, &c.Name, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Address,
		&c.Status, &c.AssignedTo, &c.Notes, &c.Tags, &c.Archived, &c.CreatedAt, &c.UpdatedAt,
	)
}

// Create inserts a new customer
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := fmt.Sprintf(`
		INSERT INTO customers (name, first_name, last_name, email, phone, address,
			status, assigned_to, notes, tags, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, customerColumns)

	row := r.db.QueryRow(ctx, query,
		c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.Status, c.AssignedTo, c.Notes, tagsParam(c.Tags), c.Archived,
	)
	if err := scanCustomer(row, c); err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// FindByID retrieves a customer by ID
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns)

	var c customer.Customer
	err := scanCustomer(r.db.QueryRow(ctx, query, id), &c)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &c, nil
}

// FindByIDForUpdate locks the customer row for the duration of the transaction.
func (r *CustomerRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1 FOR UPDATE`, customerColumns)

	var c customer.Customer
	err := scanCustomer(tx.QueryRow(ctx, query, id), &c)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock customer: %w", err)
	}
	return &c, nil
}

// FindByEmailForUpdate locks the first matching row by email, if any.
func (r *CustomerRepository) FindByEmailForUpdate(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE lower(email) = lower($1) ORDER BY id LIMIT 1 FOR UPDATE`, customerColumns)

	var c customer.Customer
	err := scanCustomer(tx.QueryRow(ctx, query, email), &c)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock customer by email: %w", err)
	}
	return &c, nil
}

// FindByEmailTx re-checks for an existing row by email inside a transaction,
// without acquiring a lock. Used by the contact-form dedup double check.
func (r *CustomerRepository) FindByEmailTx(ctx context.Context, tx pgx.Tx, email string) (*customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers WHERE lower(email) = lower($1) ORDER BY id LIMIT 1`, customerColumns)

	var c customer.Customer
	err := scanCustomer(tx.QueryRow(ctx, query, email), &c)
	if err == pgx.ErrNoRows {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return &c, nil
}

// CreateTx inserts a customer inside an existing transaction.
func (r *CustomerRepository) CreateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) error {
	query := fmt.Sprintf(`
		INSERT INTO customers (name, first_name, last_name, email, phone, address,
			status, assigned_to, notes, tags, archived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, customerColumns)

	row := tx.QueryRow(ctx, query,
		c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.Status, c.AssignedTo, c.Notes, tagsParam(c.Tags), c.Archived,
	)
	if err := scanCustomer(row, c); err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// UpdateTx writes all final field values in one statement and returns the
// updated row. Callers are expected to hold the row lock.
func (r *CustomerRepository) UpdateTx(ctx context.Context, tx pgx.Tx, c *customer.Customer) (*customer.Customer, error) {
	query := fmt.Sprintf(`
		UPDATE customers
		SET name = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
		    address = $6, status = $7, assigned_to = $8, notes = $9, tags = $10,
		    archived = $11, updated_at = NOW()
		WHERE id = $12
		RETURNING %s
	`, customerColumns)

	var updated customer.Customer
	row := tx.QueryRow(ctx, query,
		c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
		c.Status, c.AssignedTo, c.Notes, tagsParam(c.Tags), c.Archived, c.ID,
	)
	if err := scanCustomer(row, &updated); err != nil {
		if err == pgx.ErrNoRows {
			return nil, xerrors.ErrNotFound
		}
		if mapped := mapConstraintError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}
	return &updated, nil
}

// InsertBatch writes a slice of customers in a single multi-row INSERT
// inside its own transaction. A failure rolls back only this batch.
func (r *CustomerRepository) InsertBatch(ctx context.Context, batch []customer.Customer) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	const cols = 11
	placeholders := make([]string, 0, len(batch))
	args := make([]interface{}, 0, len(batch)*cols)
	for i, c := range batch {
		base := i * cols
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11,
		))
		args = append(args,
			c.Name, c.FirstName, c.LastName, c.Email, c.Phone, c.Address,
			c.Status, c.AssignedTo, c.Notes, tagsParam(c.Tags), c.Archived,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO customers (name, first_name, last_name, email, phone, address,
			status, assigned_to, notes, tags, archived)
		VALUES %s
	`, strings.Join(placeholders, ", "))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		if mapped := mapConstraintError(err); mapped != err {
			return 0, mapped
		}
		return 0, fmt.Errorf("failed to insert batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return result.RowsAffected(), nil
}

// Delete removes a customer permanently.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

// BulkDelete removes the given customers and reports how many went away.
func (r *CustomerRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete customers: %w", err)
	}
	return result.RowsAffected(), nil
}

// List retrieves customers with filters
func (r *CustomerRepository) List(ctx context.Context, filters *customer.ListFilters) ([]customer.Customer, int64, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if !filters.IncludeArchived {
		conditions = append(conditions, "archived = FALSE")
	}

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filters.Status)
		argPos++
	}

	if filters.AssignedTo != nil {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argPos))
		args = append(args, *filters.AssignedTo)
		argPos++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argPos, argPos, argPos,
		))
		args = append(args, "%"+filters.Search+"%")
		argPos++
	}

	whereClause := strings.Join(conditions, " AND ")

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers WHERE %s", whereClause)
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	// Pagination
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.Limit < 1 {
		filters.Limit = 20
	}
	offset := (filters.Page - 1) * filters.Limit

	// Sorting; whitelist to avoid interpolating arbitrary identifiers
	sortBy := "created_at"
	switch filters.SortBy {
	case "name", "status", "updated_at", "created_at":
		sortBy = filters.SortBy
	}
	sortOrder := "DESC"
	if strings.EqualFold(filters.SortOrder, "asc") {
		sortOrder = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, sortBy, sortOrder, argPos, argPos+1)

	args = append(args, filters.Limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		var c customer.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read customers: %w", err)
	}

	return customers, total, nil
}

// GetStats retrieves aggregate counts for the dashboard.
func (r *CustomerRepository) GetStats(ctx context.Context) (*customer.Stats, error) {
	stats := &customer.Stats{ByStatus: map[string]int64{}}

	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE archived) AS archived,
			COUNT(*) FILTER (WHERE assigned_to IS NOT NULL AND NOT archived) AS assigned,
			COUNT(*) FILTER (WHERE assigned_to IS NULL AND NOT archived) AS unassigned
		FROM customers
	`
	err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Archived, &stats.Assigned, &stats.Unassigned)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM customers WHERE NOT archived GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	return stats, nil
}

// ExportAll streams every customer ordered by ID, for CSV export.
func (r *CustomerRepository) ExportAll(ctx context.Context) ([]customer.Customer, error) {
	query := fmt.Sprintf(`SELECT %s FROM customers ORDER BY id`, customerColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to export customers: %w", err)
	}
	defer rows.Close()

	customers := []customer.Customer{}
	for rows.Next() {
		var c customer.Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read customers: %w", err)
	}
	return customers, nil
}
