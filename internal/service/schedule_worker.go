package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/silambarasu-a/namma-finance-sub000/internal/calculator"
	"github.com/silambarasu-a/namma-finance-sub000/internal/domain"
	"github.com/silambarasu-a/namma-finance-sub000/internal/queue"
)

// ScheduleWorker materializes installment rows for newly created loans. The
// insert is idempotent on (loan, installment number), so a replayed or
// raced job converges on the same row set.
type ScheduleWorker struct {
	store     domain.TxManager
	loans     domain.LoanRepository
	schedules domain.ScheduleRepository
	events    EventPublisher
}

func NewScheduleWorker(store domain.TxManager, loans domain.LoanRepository, schedules domain.ScheduleRepository, events EventPublisher) *ScheduleWorker {
	return &ScheduleWorker{store: store, loans: loans, schedules: schedules, events: events}
}

// Register binds the worker to its job type.
func (w *ScheduleWorker) Register(q *queue.Queue) {
	q.Register(JobGenerateSchedule, w.Handle)
}

// Handle consumes one schedule-generation job.
func (w *ScheduleWorker) Handle(ctx context.Context, job *queue.Job) error {
	var payload SchedulePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("decode schedule payload: %w", err)
	}

	loan, err := w.loans.GetByID(ctx, payload.LoanID)
	if err != nil {
		return fmt.Errorf("load loan: %w", err)
	}
	if loan.Status.Terminal() {
		// The loan ended before its schedule materialized; nothing to do.
		log.Info().Str("loan_id", loan.ID.String()).Str("status", string(loan.Status)).
			Msg("skipping schedule generation for terminal loan")
		return nil
	}

	rows, err := calculator.Schedule(calculator.TermsFromLoan(loan), loan.StartDate)
	if err != nil {
		return fmt.Errorf("compute schedule: %w", err)
	}
	scheduleRows := make([]*domain.ScheduleRow, 0, len(rows))
	for _, row := range rows {
		scheduleRows = append(scheduleRows, &domain.ScheduleRow{
			LoanID:        loan.ID,
			InstallmentNo: row.InstallmentNo,
			DueDate:       row.DueDate,
			PrincipalDue:  row.PrincipalDue,
			InterestDue:   row.InterestDue,
			TotalDue:      row.TotalDue,
		})
	}

	var inserted int
	err = w.store.WithTransaction(ctx, func(tx any) error {
		inserted, err = w.schedules.BatchInsertTx(ctx, tx, scheduleRows)
		return err
	})
	if err != nil {
		return fmt.Errorf("insert schedule rows: %w", err)
	}

	log.Info().
		Str("loan_id", loan.ID.String()).
		Int("rows", len(scheduleRows)).
		Int("inserted", inserted).
		Msg("schedule generated")
	if inserted > 0 {
		w.events.Publish(EventScheduleGenerated, loan.CustomerID, map[string]any{
			"loanId": loan.ID,
			"rows":   len(scheduleRows),
		})
	}
	return nil
}
