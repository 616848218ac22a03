package streaming

import (
	"context"
	"strconv"
	"sync"

	"aegis-secure/internal/domain/services"
	"aegis-secure/pkg/logger"
)

type subscriber struct {
	userID string
	ch     chan *services.MessageEvent
}

// EventBus distributes message events to NATS and to local per-user subscribers
type EventBus struct {
	nats   *NATSPublisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]*subscriber
	nextID      int
}

// NewEventBus creates a new event bus; nats may be nil for local-only delivery
func NewEventBus(nats *NATSPublisher, log *logger.Logger) *EventBus {
	return &EventBus{
		nats:        nats,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]*subscriber),
	}
}

// PublishMessageEvent sends the event to NATS when connected and to local subscribers of the same user
func (eb *EventBus) PublishMessageEvent(ctx context.Context, event *services.MessageEvent) error {
	if eb.nats != nil && eb.nats.IsConnected() {
		if err := eb.nats.PublishMessageEvent(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.broadcast(event)
	return nil
}

func (eb *EventBus) broadcast(event *services.MessageEvent) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, sub := range eb.subscribers {
		if sub.userID != event.UserID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}
}

// Subscribe registers a subscriber for one user's events
func (eb *EventBus) Subscribe(userID string) (<-chan *services.MessageEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := strconv.Itoa(eb.nextID)
	sub := &subscriber{userID: userID, ch: make(chan *services.MessageEvent, 100)}
	eb.subscribers[id] = sub
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Str("user_id", userID).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(sub.ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	return sub.ch, unsubscribe
}

// Run forwards events from other instances to local subscribers until ctx is done
func (eb *EventBus) Run(ctx context.Context) {
	if eb.nats == nil || !eb.nats.IsConnected() {
		return
	}

	remote, err := eb.nats.Subscribe(ctx)
	if err != nil {
		eb.logger.Warn().Err(err).Msg("failed to subscribe to NATS")
		return
	}

	for event := range remote {
		eb.broadcast(event)
	}
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes every subscriber and the NATS connection
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, sub := range eb.subscribers {
		close(sub.ch)
		delete(eb.subscribers, id)
	}

	if eb.nats != nil {
		eb.nats.Close()
	}
}

var _ services.MessageEventPublisher = (*EventBus)(nil)
