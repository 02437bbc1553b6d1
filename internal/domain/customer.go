package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrKYCStatusInvalid = errors.New("invalid KYC status")
)

// KYCStatus tracks identity verification of a customer.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCVerified KYCStatus = "verified"
	KYCRejected KYCStatus = "rejected"
)

func (s KYCStatus) Valid() bool {
	switch s {
	case KYCPending, KYCVerified, KYCRejected:
		return true
	}
	return false
}

// Customer extends a role=customer user with KYC attributes. 1-to-1 with the
// user row; the customer id is the primary handle used by loans.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	IDProof     string    `json:"idProof"`
	KYCStatus   KYCStatus `json:"kycStatus"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Joined user attributes, populated on reads.
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// CustomerRepository is the storage contract for customers.
type CustomerRepository interface {
	CreateTx(ctx context.Context, tx any, customer *Customer) (*Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Customer, error)
	List(ctx context.Context, page, limit int) ([]*Customer, int64, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, page, limit int) ([]*Customer, int64, error)
	UpdateKYC(ctx context.Context, id uuid.UUID, status KYCStatus) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}
