package service

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
)

// UserService handles back-office user administration.
type UserService struct {
	users domain.UserRepository
	audit *AuditService
}

func NewUserService(users domain.UserRepository, audit *AuditService) *UserService {
	return &UserService{users: users, audit: audit}
}

// CreateUserInput contains input for creating a staff user.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// CreateUser registers a staff user. Admin only; customer principals are
// created through the customer service instead.
func (s *UserService) CreateUser(ctx context.Context, actor *domain.User, input CreateUserInput) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if input.Role == domain.RoleCustomer {
		return nil, domain.ErrInvalidInput
	}
	if len(input.Password) < 8 {
		return nil, domain.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		Active:       true,
		PasswordHash: string(hash),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, Entry(actor.ID, domain.AuditUserCreated, "user", created.ID, nil, created))
	return created, nil
}

// List pages through all users. Admin and manager.
func (s *UserService) List(ctx context.Context, actor *domain.User, page, limit int) ([]*domain.User, int64, error) {
	if err := RequireBackOffice(actor); err != nil {
		return nil, 0, err
	}
	return s.users.List(ctx, page, limit)
}

// Get returns one user. Staff may read any user; others only themselves.
func (s *UserService) Get(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.User, error) {
	if !actor.Role.IsStaff() && actor.ID != id {
		return nil, domain.ErrForbidden
	}
	return s.users.GetByID(ctx, id)
}

// UpdateManagerFlags sets the per-manager destructive-delete permissions.
// Admin only.
func (s *UserService) UpdateManagerFlags(ctx context.Context, actor *domain.User, id uuid.UUID, canDeleteCollections, canDeleteCustomers, canDeleteUsers bool) (*domain.User, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	before, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if before.Role != domain.RoleManager {
		return nil, domain.ErrInvalidInput
	}

	updated, err := s.users.UpdateFlags(ctx, id, canDeleteCollections, canDeleteCustomers, canDeleteUsers)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, Entry(actor.ID, domain.AuditUserUpdated, "user", id, before, updated))
	return updated, nil
}

// SetActive activates or deactivates a user. Admin, or a manager holding
// the delete-users flag.
func (s *UserService) SetActive(ctx context.Context, actor *domain.User, id uuid.UUID, active bool) error {
	allowed := actor.Role == domain.RoleAdmin ||
		(actor.Role == domain.RoleManager && actor.CanDeleteUsers)
	if !allowed {
		return domain.ErrForbidden
	}
	if actor.ID == id && !active {
		return domain.ErrInvalidInput
	}

	before, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return err
	}
	after := *before
	after.Active = active
	s.audit.Record(ctx, Entry(actor.ID, domain.AuditUserUpdated, "user", id, before, &after))
	return nil
}
