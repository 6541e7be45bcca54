package worker

import (
	"context"
	"fmt"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/amqp"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/sheets"
)

// ReplicaStore is the worker side database, typically the SQLite repository.
type ReplicaStore interface {
	ApplyMovement(ctx context.Context, m core.CashMovement) (bool, error)
	RecordClosing(ctx context.Context, c core.ClosingReport) (bool, error)
	PendingClosings(ctx context.Context, limit int) ([]core.ClosingReport, error)
	MarkClosingSynced(ctx context.Context, registerID string) error
	MarkClosingSyncError(ctx context.Context, registerID string) error
}

// ReplicaWorker mirrors ledger events into a replica journal and exports
// register closings. Replaying an event is harmless.
type ReplicaWorker struct {
	store     ReplicaStore
	exporter  sheets.ClosingReportWriter
	batchSize int
	logger    *log.Logger
}

// NewReplicaWorker builds a worker. A nil exporter keeps closings pending.
func NewReplicaWorker(store ReplicaStore, exporter sheets.ClosingReportWriter, batchSize int, logger *log.Logger) *ReplicaWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ReplicaWorker{
		store:     store,
		exporter:  exporter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one ledger event. A returned error asks the broker to
// redeliver.
func (w *ReplicaWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	switch event.Type {
	case amqp.EventMovementRecorded:
		return w.applyMovement(ctx, *event.Movement)
	case amqp.EventRegisterClosed:
		return w.applyClosing(ctx, *event.Closing)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", "type", event.Type)
		return nil
	}
}

func (w *ReplicaWorker) applyMovement(ctx context.Context, m core.CashMovement) error {
	fresh, err := w.store.ApplyMovement(ctx, m)
	if err != nil {
		return fmt.Errorf("replicate movement: %w", err)
	}
	fields := log.NewFields().WithStore(m.StoreID).WithMovement(m.ID, string(m.Type), m.ReferenceID, m.Amount)
	if !fresh {
		w.logger.DebugContext(ctx, "Movement already replicated", fields.ToSlice()...)
		return nil
	}
	w.logger.InfoContext(ctx, "Movement replicated", fields.ToSlice()...)
	return nil
}

func (w *ReplicaWorker) applyClosing(ctx context.Context, c core.ClosingReport) error {
	fresh, err := w.store.RecordClosing(ctx, c)
	if err != nil {
		return fmt.Errorf("record closing: %w", err)
	}
	if !fresh {
		w.logger.DebugContext(ctx, "Closing already recorded", log.FieldRegisterID, c.RegisterID)
		return nil
	}
	if w.exporter == nil {
		return nil
	}
	// Export failures stay pending for the periodic pass.
	if err := w.export(ctx, c); err != nil {
		w.logger.WarnContext(ctx, "Closing export deferred",
			log.FieldRegisterID, c.RegisterID,
			log.FieldError, err)
	}
	return nil
}

func (w *ReplicaWorker) export(ctx context.Context, c core.ClosingReport) error {
	ref, err := w.exporter.AppendClosing(ctx, c)
	if err != nil {
		return err
	}
	if err := w.store.MarkClosingSynced(ctx, c.RegisterID); err != nil {
		w.logger.WarnContext(ctx, "Failed to mark closing as synced",
			log.FieldRegisterID, c.RegisterID,
			log.FieldError, err)
	}
	w.logger.InfoContext(ctx, "Closing exported",
		log.FieldRegisterID, c.RegisterID,
		"sheets_ref", ref)
	return nil
}

// ProcessPendingClosings exports closings still waiting. Closings whose
// export fails are flagged and left out of later passes.
func (w *ReplicaWorker) ProcessPendingClosings(ctx context.Context) (exported int, err error) {
	if w.exporter == nil {
		return 0, nil
	}
	pending, err := w.store.PendingClosings(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending closings: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	w.logger.InfoContext(ctx, "Processing pending closings", "count", len(pending))
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		if err := w.export(ctx, c); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export closing",
				log.FieldRegisterID, c.RegisterID,
				log.FieldError, err)
			if err := w.store.MarkClosingSyncError(ctx, c.RegisterID); err != nil {
				w.logger.ErrorContext(ctx, "Failed to mark closing sync error",
					log.FieldRegisterID, c.RegisterID,
					log.FieldError, err)
			}
			continue
		}
		exported++
	}
	return exported, nil
}
