package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/filmshelf/filmshelf/internal/resolver"
)

// ResolvePayload is the wire form of one batch submission.
type ResolvePayload struct {
	BatchID     string   `json:"batch_id"`
	Generation  uint64   `json:"generation"`
	Files       []string `json:"files"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

// EventNotifier pushes batch progress to connected clients.
type EventNotifier interface {
	Broadcast(event string, data interface{})
}

// ──────── Resolve Batch Handler ────────

type ResolveBatchHandler struct {
	resolver *resolver.Resolver
	notifier EventNotifier
}

func NewResolveBatchHandler(r *resolver.Resolver, notifier EventNotifier) *ResolveBatchHandler {
	return &ResolveBatchHandler{resolver: r, notifier: notifier}
}

func (h *ResolveBatchHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ResolvePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		return fmt.Errorf("bad batch id %q: %w", payload.BatchID, err)
	}

	batch := resolver.Batch{
		ID:         batchID,
		Generation: payload.Generation,
		Files:      payload.Files,
	}
	for _, raw := range payload.CategoryIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			log.Printf("Queue: batch %s: skipping bad category id %q", batchID, raw)
			continue
		}
		batch.CategoryIDs = append(batch.CategoryIDs, id)
	}

	if h.notifier != nil {
		h.notifier.Broadcast("batch:started", map[string]interface{}{
			"batch_id": payload.BatchID, "files": len(payload.Files),
		})
	}

	report := h.resolver.Resolve(ctx, batch)

	if h.notifier != nil {
		h.notifier.Broadcast("batch:finished", report)
	}
	return nil
}

// RegisterHandlers wires every task handler onto the queue mux.
func RegisterHandlers(q *Queue, r *resolver.Resolver, notifier EventNotifier) {
	q.RegisterHandler(TaskResolveBatch, NewResolveBatchHandler(r, notifier))
}
