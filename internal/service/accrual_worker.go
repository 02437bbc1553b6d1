package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/queue"
)

// AccrualPayload is the job body for a late-fee accrual pass. A zero AsOf
// accrues as of the time the job runs.
type AccrualPayload struct {
	AsOf time.Time `json:"asOf,omitempty"`
}

// AccrualWorker runs the recurring late-fee accrual pass off the job queue.
type AccrualWorker struct {
	accrual *AccrualService
}

func NewAccrualWorker(accrual *AccrualService) *AccrualWorker {
	return &AccrualWorker{accrual: accrual}
}

// Register binds the worker to its job type.
func (w *AccrualWorker) Register(q *queue.Queue) {
	q.Register(JobAccrueCharges, w.Handle)
}

// Handle consumes one accrual job. Accrual is idempotent, so a retried job
// picks up where the failed pass stopped.
func (w *AccrualWorker) Handle(ctx context.Context, job *queue.Job) error {
	var payload AccrualPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode accrual payload: %w", err)
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	accrued, err := w.accrual.AccrueLateFees(ctx, asOf)
	if err != nil {
		return fmt.Errorf("accrue late fees: %w", err)
	}
	log.Info().Int("loans", accrued).Time("as_of", asOf).Msg("late fees accrued")
	return nil
}
