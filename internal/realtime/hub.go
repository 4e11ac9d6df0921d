package realtime

import (
	"context"
	"sync"

	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

// Notification is a change notification delivered to hub listeners.
type Notification struct {
	Table     string `json:"table"`
	Action    string `json:"action"`
	CompanyID string `json:"company_id"`
	RecordID  string `json:"record_id"`
	EventType string `json:"event_type"`
}

// subKey identifies one logical subscription: all listeners of a
// company+table pair share it.
type subKey struct {
	companyID string
	table     string
}

type listener struct {
	ch   chan Notification
	done chan struct{}
}

// Hub consumes the crm.events exchange and fans change notifications
// out to in-process listeners keyed by (company, table). Subscriptions
// are reference counted: any number of listeners share one upstream
// key, and the key disappears when the last listener unsubscribes.
type Hub struct {
	logger *logger.Logger

	mu   sync.RWMutex
	subs map[subKey]map[*listener]struct{}
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		logger: log,
		subs:   make(map[subKey]map[*listener]struct{}),
	}
}

// busConsumer is the slice of messaging.Consumer the hub drives.
type busConsumer interface {
	Subscribe(exchange, routingKeyPattern string) error
	RegisterWildcardHandler(handler messaging.MessageHandler)
	Start(ctx context.Context) error
}

// Start attaches the hub to the bus: an exclusive auto-delete queue,
// named by the broker, bound to the whole crm.events keyspace. Each
// server process sees every change event. Delivery runs on the
// consumer's goroutine until ctx is cancelled.
func (h *Hub) Start(ctx context.Context, rmq *messaging.RabbitMQ) error {
	consumer, err := messaging.NewEphemeralConsumer(rmq, "", h.logger)
	if err != nil {
		return err
	}
	return h.consume(ctx, consumer)
}

// consume binds the consumer's queue to the change-event exchange and
// routes every decodable event through Dispatch.
func (h *Hub) consume(ctx context.Context, consumer busConsumer) error {
	if err := consumer.Subscribe(messaging.ExchangeCRMEvents, "crm.#"); err != nil {
		return err
	}

	consumer.RegisterWildcardHandler(func(ctx context.Context, event *messaging.Event) error {
		var change messaging.RecordChange
		if err := event.UnmarshalData(&change); err != nil {
			h.logger.Warn().Err(err).Str("event_type", event.Type).Msg("undecodable change event, dropping")
			return nil
		}
		h.Dispatch(Notification{
			Table:     change.Table,
			Action:    change.Action,
			CompanyID: change.CompanyID,
			RecordID:  change.RecordID,
			EventType: event.Type,
		})
		return nil
	})

	return consumer.Start(ctx)
}

// Dispatch delivers a notification to every listener of its
// (company, table) key. A listener that cannot keep up is skipped;
// collections refetch on the next notification anyway, and the feed
// has its own send buffer.
func (h *Hub) Dispatch(n Notification) {
	if n.CompanyID == "" {
		h.logger.Warn().Str("table", n.Table).Msg("change notification without company id, dropping")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, l := range h.listenersLocked(subKey{companyID: n.CompanyID, table: n.Table}) {
		select {
		case l.ch <- n:
		case <-l.done:
		default:
		}
	}
}

func (h *Hub) listenersLocked(key subKey) []*listener {
	set, ok := h.subs[key]
	if !ok {
		return nil
	}
	out := make([]*listener, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	return out
}

// Subscribe registers a listener for one company+table pair. The
// returned cancel function must be called when the listener is done;
// it is safe to call more than once.
func (h *Hub) Subscribe(companyID, table string) (<-chan Notification, func()) {
	key := subKey{companyID: companyID, table: table}
	l := &listener{
		ch:   make(chan Notification, 16),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	set, ok := h.subs[key]
	if !ok {
		set = make(map[*listener]struct{})
		h.subs[key] = set
	}
	set[l] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[key]; ok {
				delete(set, l)
				if len(set) == 0 {
					delete(h.subs, key)
				}
			}
			h.mu.Unlock()
			close(l.done)
		})
	}

	return l.ch, cancel
}

// SubscriberCount reports the number of live listeners for a
// company+table pair.
func (h *Hub) SubscriberCount(companyID, table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[subKey{companyID: companyID, table: table}])
}
