package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"lost-persons/internal/domain/notification"
	"lost-persons/internal/domain/outbox"
	"lost-persons/internal/metrics"
	"lost-persons/internal/repository"
	lperrors "lost-persons/pkg/errors"
	"lost-persons/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventHandler performs the side effect of one outbox event type.
type EventHandler func(ctx context.Context, payload []byte) error

// OutboxWorker polls the outbox table and dispatches pending events to their handlers.
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	handlers   map[string]EventHandler
	log        *logger.Logger
	interval   time.Duration
	batchSize  int
	stopChan   chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func NewOutboxWorker(outboxRepo repository.OutboxRepository, notifications *NotificationService, log *logger.Logger, interval time.Duration, batchSize int) *OutboxWorker {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	w := &OutboxWorker{
		outboxRepo: outboxRepo,
		handlers:   map[string]EventHandler{},
		log:        log,
		interval:   interval,
		batchSize:  batchSize,
		stopChan:   make(chan struct{}),
	}
	w.Register(outbox.EventReportCreated, reportCreatedHandler(notifications))
	return w
}

// Register binds a handler to an event type. It must be called before Start.
func (w *OutboxWorker) Register(eventType string, h EventHandler) {
	w.handlers[eventType] = h
}

// Start begins the worker loop
func (w *OutboxWorker) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down. The batch in flight is finished first.
func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
}

func (w *OutboxWorker) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			ctx := logger.WithRequestID(context.Background(), "outbox-"+uuid.NewString()[:8])
			if _, err := w.ProcessBatch(ctx); err != nil {
				w.log.Ctx(ctx).Error("outbox poll failed", zap.Error(err))
			}
		}
	}
}

// ProcessBatch handles up to batchSize pending events and returns how many completed.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	events, err := w.outboxRepo.GetPending(ctx, w.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for i := range events {
		if w.processEvent(ctx, &events[i]) {
			completed++
		}
	}
	return completed, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *outbox.OutboxEvent) bool {
	log := w.log.Ctx(ctx).With(
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
	)

	// Another worker may have claimed it between poll and claim.
	if err := w.outboxRepo.MarkProcessing(ctx, event.ID); err != nil {
		if !errors.Is(err, lperrors.ErrConflict) {
			log.Warn("outbox claim failed", zap.Error(err))
		}
		return false
	}

	handler, ok := w.handlers[event.EventType]
	if !ok {
		metrics.RecordOutboxEvent(event.EventType, "unknown")
		w.markFailed(ctx, log, event.ID, "no handler for event type")
		return false
	}

	if err := handler(ctx, event.Payload); err != nil {
		var decodeErr *json.SyntaxError
		if errors.As(err, &decodeErr) || errors.Is(err, lperrors.ErrInvalidInput) {
			metrics.RecordOutboxEvent(event.EventType, "failed")
			w.markFailed(ctx, log, event.ID, err.Error())
			return false
		}
		if event.RetryCount+1 >= outbox.MaxRetries {
			metrics.RecordOutboxEvent(event.EventType, "failed")
			w.markFailed(ctx, log, event.ID, err.Error())
			return false
		}
		metrics.RecordOutboxEvent(event.EventType, "retry")
		log.Warn("outbox event will be retried", zap.Int("retry", event.RetryCount+1), zap.Error(err))
		if err := w.outboxRepo.IncrementRetry(ctx, event.ID, err.Error()); err != nil {
			log.Error("outbox retry bookkeeping failed", zap.Error(err))
		}
		return false
	}

	if err := w.outboxRepo.MarkCompleted(ctx, event.ID); err != nil {
		log.Error("outbox complete failed", zap.Error(err))
		return false
	}
	metrics.RecordOutboxEvent(event.EventType, "completed")
	return true
}

func (w *OutboxWorker) markFailed(ctx context.Context, log *zap.Logger, id uuid.UUID, reason string) {
	log.Error("outbox event failed", zap.String("reason", reason))
	if err := w.outboxRepo.MarkFailed(ctx, id, reason); err != nil {
		log.Error("outbox fail bookkeeping failed", zap.Error(err))
	}
}

// reportCreatedHandler broadcasts a new report to every registered user.
func reportCreatedHandler(notifications *NotificationService) EventHandler {
	return func(ctx context.Context, payload []byte) error {
		var p outbox.ReportCreatedPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return err
		}
		if p.ReportID == uuid.Nil || p.ReportCode == "" {
			return fmt.Errorf("report.created payload: %w", lperrors.ErrInvalidInput)
		}
		refs := notification.Refs{ReportID: uuid.NullUUID{UUID: p.ReportID, Valid: true}}
		_, err := notifications.Broadcast(ctx, notification.KindReport, reportCreatedText(p.Name, p.ReportCode), refs)
		return err
	}
}
