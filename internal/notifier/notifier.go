package notifier

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/config"
	"github.com/horizon-rp/department-backend/internal/model"
)

// QueueNotifier is the production notification sink: events are pushed onto
// a Redis queue and drained to the event log by the worker. Delivery is
// fire-and-forget, a Redis hiccup is logged and never surfaces to the exam
// flow.
type QueueNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewQueueNotifier creates a new QueueNotifier.
func NewQueueNotifier(rdb *redis.Client, log zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{
		rdb: rdb,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// Notify enqueues a session event. Never returns an error to the caller.
func (n *QueueNotifier) Notify(ctx context.Context, event model.SessionEvent) {
	raw, err := json.Marshal(event)
	if err != nil {
		n.log.Error().Err(err).Msg("Encode event failed")
		return
	}

	if err := n.rdb.RPush(ctx, config.WorkerKey.SessionEventsQueue, raw).Err(); err != nil {
		n.log.Warn().
			Err(err).
			Str("kind", string(event.Kind)).
			Str("candidate_id", event.CandidateID.String()).
			Msg("Notify enqueue failed, event dropped")
	}
}

// NopNotifier discards all events. Used in tests.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.SessionEvent) {}
