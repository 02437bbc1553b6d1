package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/testutil"
)

func newUserFixture() (*UserService, *testutil.MockUserRepository) {
	users := testutil.NewMockUserRepository()
	return NewUserService(users, NewAuditService(testutil.NewMockAuditRepository())), users
}

func TestCreateUser_AdminOnly(t *testing.T) {
	service, _ := newUserFixture()

	input := CreateUserInput{Email: "new@test.local", Name: "New Agent", Password: "long-enough-password", Role: domain.RoleAgent}
	if _, err := service.CreateUser(context.Background(), adminUser(), input); err != nil {
		t.Fatalf("Expected no error for admin, got %v", err)
	}

	manager := &domain.User{ID: uuid.New(), Role: domain.RoleManager, Active: true}
	input.Email = "another@test.local"
	if _, err := service.CreateUser(context.Background(), manager, input); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for manager, got %v", err)
	}
}

func TestCreateUser_RejectsCustomerRole(t *testing.T) {
	service, _ := newUserFixture()

	_, err := service.CreateUser(context.Background(), adminUser(), CreateUserInput{
		Email: "c@test.local", Name: "C", Password: "long-enough-password", Role: domain.RoleCustomer,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, users := newUserFixture()
	users.AddUser(&domain.User{Email: "dup@test.local", Name: "Existing", Role: domain.RoleAgent, Active: true})

	_, err := service.CreateUser(context.Background(), adminUser(), CreateUserInput{
		Email: "dup@test.local", Name: "New", Password: "long-enough-password", Role: domain.RoleAgent,
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("Expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateManagerFlags_OnlyOnManagers(t *testing.T) {
	service, users := newUserFixture()
	agent := &domain.User{Email: "a@test.local", Name: "A", Role: domain.RoleAgent, Active: true}
	users.AddUser(agent)
	manager := &domain.User{Email: "m@test.local", Name: "M", Role: domain.RoleManager, Active: true}
	users.AddUser(manager)

	if _, err := service.UpdateManagerFlags(context.Background(), adminUser(), agent.ID, true, true, true); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for non-manager target, got %v", err)
	}

	updated, err := service.UpdateManagerFlags(context.Background(), adminUser(), manager.ID, true, false, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.CanDeleteCollections || updated.CanDeleteCustomers || !updated.CanDeleteUsers {
		t.Errorf("Expected flags (true,false,true), got (%v,%v,%v)",
			updated.CanDeleteCollections, updated.CanDeleteCustomers, updated.CanDeleteUsers)
	}
}

func TestSetActive_RejectsSelfDeactivation(t *testing.T) {
	service, users := newUserFixture()
	admin := adminUser()
	users.AddUser(admin)

	if err := service.SetActive(context.Background(), admin, admin.ID, false); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestSetActive_ManagerNeedsFlag(t *testing.T) {
	service, users := newUserFixture()
	target := &domain.User{Email: "t@test.local", Name: "T", Role: domain.RoleAgent, Active: true}
	users.AddUser(target)
	manager := &domain.User{ID: uuid.New(), Role: domain.RoleManager, Active: true}

	if err := service.SetActive(context.Background(), manager, target.ID, false); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden without the flag, got %v", err)
	}

	manager.CanDeleteUsers = true
	if err := service.SetActive(context.Background(), manager, target.ID, false); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if target.Active {
		t.Error("Expected target deactivated")
	}
}

func TestGetUser_NonStaffOnlySelf(t *testing.T) {
	service, users := newUserFixture()
	self := &domain.User{Email: "self@test.local", Name: "Self", Role: domain.RoleCustomer, Active: true}
	users.AddUser(self)
	other := &domain.User{Email: "other@test.local", Name: "Other", Role: domain.RoleAgent, Active: true}
	users.AddUser(other)

	if _, err := service.Get(context.Background(), self, self.ID); err != nil {
		t.Errorf("Expected self read, got %v", err)
	}
	if _, err := service.Get(context.Background(), self, other.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}
