package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// Customer reads join the owning user row for name, email and active.
const customerColumns = `c.id, c.user_id, c.date_of_birth, c.id_proof, c.kyc_status,
	c.created_at, c.updated_at, u.name, u.email, u.active`

const customerFrom = ` FROM customers c JOIN users u ON u.id = c.user_id`

// CustomerRepo implements domain.CustomerRepository.
type CustomerRepo struct {
	pool *pgxpool.Pool
}

func NewCustomerRepo(pool *pgxpool.Pool) *CustomerRepo {
	return &CustomerRepo{pool: pool}
}

func (r *CustomerRepo) CreateTx(ctx context.Context, tx any, customer *domain.Customer) (*domain.Customer, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO customers (user_id, date_of_birth, id_proof, kyc_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`
	err = t.QueryRow(ctx, query,
		customer.UserID, customer.DateOfBirth, customer.IDProof, customer.KYCStatus,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return customer, nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + customerFrom + ` WHERE c.id = $1`
	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrCustomerNotFound)
	}
	return customer, nil
}

func (r *CustomerRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + customerFrom + ` WHERE c.user_id = $1`
	customer, err := scanCustomer(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, notFound(err, domain.ErrCustomerNotFound)
	}
	return customer, nil
}

func (r *CustomerRepo) List(ctx context.Context, page, limit int) ([]*domain.Customer, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+customerFrom).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	query := `SELECT ` + customerColumns + customerFrom + `
		ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`
	return r.queryCustomers(ctx, query, total, lim, offset)
}

func (r *CustomerRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, page, limit int) ([]*domain.Customer, int64, error) {
	where := ` WHERE c.id IN (
		SELECT customer_id FROM agent_assignments WHERE agent_id = $1 AND active)`

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+customerFrom+where, agentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count assigned customers: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	query := `SELECT ` + customerColumns + customerFrom + where + `
		ORDER BY c.created_at DESC LIMIT $2 OFFSET $3`
	return r.queryCustomers(ctx, query, total, agentID, lim, offset)
}

func (r *CustomerRepo) UpdateKYC(ctx context.Context, id uuid.UUID, status domain.KYCStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE customers SET kyc_status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update kyc: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// Deactivate flips the owning user's active flag; customer rows are never
// deleted while loans reference them.
func (r *CustomerRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET active = false, updated_at = now()
		WHERE id = (SELECT user_id FROM customers WHERE id = $1)`, id)
	if err != nil {
		return fmt.Errorf("deactivate customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepo) queryCustomers(ctx context.Context, query string, total int64, args ...any) ([]*domain.Customer, int64, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []*domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, customer)
	}
	return customers, total, rows.Err()
}

func scanCustomer(s scannable) (*domain.Customer, error) {
	var c domain.Customer
	err := s.Scan(
		&c.ID, &c.UserID, &c.DateOfBirth, &c.IDProof, &c.KYCStatus,
		&c.CreatedAt, &c.UpdatedAt, &c.Name, &c.Email, &c.Active,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
