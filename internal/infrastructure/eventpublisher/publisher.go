package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/iho/bookd/internal/domain"
	"github.com/iho/bookd/internal/usecase"
)

// ErrQueueFull is returned when a buffered publisher cannot accept more
// events; the caller counts the drop and moves on.
var ErrQueueFull = errors.New("event queue full")

// LogPublisher writes ledger events to the structured log. It is the default
// sink when no external consumer is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs one event with its JSON payload.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Time("occurred_at", event.OccurredAt).
		RawJSON("payload", payload).
		Msg("ledger event")

	return nil
}

// BufferedPublisher queues events and delivers them to an inner sink from a
// background worker, keeping booking latency independent of the sink.
type BufferedPublisher struct {
	inner  usecase.EventPublisher
	queue  chan *domain.Event
	logger zerolog.Logger
}

// NewBufferedPublisher creates a BufferedPublisher with the given queue size.
func NewBufferedPublisher(inner usecase.EventPublisher, size int, logger zerolog.Logger) *BufferedPublisher {
	if size <= 0 {
		size = 256
	}
	return &BufferedPublisher{
		inner:  inner,
		queue:  make(chan *domain.Event, size),
		logger: logger,
	}
}

// Publish enqueues the event. It never blocks a booking; when the queue is
// full the event is dropped with ErrQueueFull.
func (p *BufferedPublisher) Publish(ctx context.Context, event *domain.Event) error {
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start runs the delivery worker until the context is cancelled, then drains
// whatever is still queued.
func (p *BufferedPublisher) Start(ctx context.Context) error {
	p.logger.Info().Int("queue_size", cap(p.queue)).Msg("event publisher started")

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case event := <-p.queue:
			p.deliver(ctx, event)
		}
	}
}

func (p *BufferedPublisher) drain() {
	for {
		select {
		case event := <-p.queue:
			p.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (p *BufferedPublisher) deliver(ctx context.Context, event *domain.Event) {
	if err := p.inner.Publish(ctx, event); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Msg("failed to publish event")
	}
}
