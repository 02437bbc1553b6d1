package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

const userColumns = `id, email, name, role, active, password_hash,
	can_delete_collections, can_delete_customers, can_delete_users,
	created_at, updated_at`

// UserRepo implements domain.UserRepository.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return r.create(ctx, r.pool, user)
}

func (r *UserRepo) CreateTx(ctx context.Context, tx any, user *domain.User) (*domain.User, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.create(ctx, t, user)
}

func (r *UserRepo) create(ctx context.Context, q querier, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (email, name, role, active, password_hash,
			can_delete_collections, can_delete_customers, can_delete_users)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + userColumns
	row := q.QueryRow(ctx, query,
		user.Email, user.Name, user.Role, user.Active, user.PasswordHash,
		user.CanDeleteCollections, user.CanDeleteCustomers, user.CanDeleteUsers,
	)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepo) List(ctx context.Context, page, limit int) ([]*domain.User, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	lim, offset := pageBounds(page, limit)
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, lim, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

func (r *UserRepo) UpdateFlags(ctx context.Context, id uuid.UUID, canDeleteCollections, canDeleteCustomers, canDeleteUsers bool) (*domain.User, error) {
	query := `
		UPDATE users
		SET can_delete_collections = $2,
		    can_delete_customers   = $3,
		    can_delete_users       = $4,
		    updated_at             = now()
		WHERE id = $1
		RETURNING ` + userColumns
	row := r.pool.QueryRow(ctx, query, id, canDeleteCollections, canDeleteCustomers, canDeleteUsers)
	user, err := scanUser(row)
	if err != nil {
		return nil, notFound(err, domain.ErrUserNotFound)
	}
	return user, nil
}

func (r *UserRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("update user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(s scannable) (*domain.User, error) {
	var u domain.User
	err := s.Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &u.Active, &u.PasswordHash,
		&u.CanDeleteCollections, &u.CanDeleteCustomers, &u.CanDeleteUsers,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
