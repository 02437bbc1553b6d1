// Package service holds the business logic between handlers and storage.
// Services own authorization, transactional orchestration and cache/event
// side effects; money math lives in the calculator package.
package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Cache is the subset of the cache adapter services depend on.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// JobQueue submits deferred work.
type JobQueue interface {
	Enqueue(ctx context.Context, jobType string, payload any) (string, error)
}

// EventPublisher fans an event out to connected staff sockets. CustomerID
// scopes delivery for agents; uuid.Nil means staff-wide.
type EventPublisher interface {
	Publish(eventType string, customerID uuid.UUID, payload any)
}

// Job types consumed by the queue workers.
const (
	// JobGenerateSchedule materializes the installment rows for a loan.
	JobGenerateSchedule = "schedule.generate"
	// JobAccrueCharges runs a late-fee accrual pass over overdue installments.
	JobAccrueCharges = "charges.accrue"
)

// Event types emitted to the staff stream.
const (
	EventLoanCreated        = "loan.created"
	EventLoanStatusChanged  = "loan.status_changed"
	EventCollectionRecorded = "collection.recorded"
	EventScheduleGenerated  = "schedule.generated"
)

const receiptAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateReceiptNumber builds a globally unique receipt number:
// RCP-{epoch-millis}-{9 random base36 chars}. The monotone prefix keeps
// receipts sortable; the random suffix makes collisions a storage-conflict
// rarity handled by the unique index.
func GenerateReceiptNumber() string {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process is beyond saving; fall
		// back to a uuid-derived suffix rather than panic.
		copy(buf, uuid.NewString())
	}
	for i, b := range buf {
		buf[i] = receiptAlphabet[int(b)%len(receiptAlphabet)]
	}
	return fmt.Sprintf("RCP-%d-%s", time.Now().UnixMilli(), buf)
}
