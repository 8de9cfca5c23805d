package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
)

const (
	TableOrders  = "orders"
	TableDrivers = "drivers"
)

// Change is the whole message a subscriber gets. It carries no row data:
// subscribers refetch the list it invalidates.
type Change struct {
	Table    string     `json:"table"`
	Event    Event      `json:"event"`
	TenantID uuid.UUID  `json:"tenant_id"`
	ClientID *uuid.UUID `json:"client_id,omitempty"`
	ID       uuid.UUID  `json:"id"`
}

// Topic is what a subscriber listens on: one table, filtered to one tenant
// or to one client's own rows.
type Topic struct {
	Table string
	Scope string
}

func TenantTopic(table string, tenantID uuid.UUID) Topic {
	return Topic{Table: table, Scope: "tenant:" + tenantID.String()}
}

func ClientTopic(table string, clientID uuid.UUID) Topic {
	return Topic{Table: table, Scope: "client:" + clientID.String()}
}

// Topics lists every topic c is delivered to.
func (c Change) Topics() []Topic {
	topics := []Topic{TenantTopic(c.Table, c.TenantID)}
	if c.ClientID != nil {
		topics = append(topics, ClientTopic(c.Table, *c.ClientID))
	}
	return topics
}

// Publisher is what services depend on. Publish never blocks on slow
// subscribers and never fails the write that triggered it.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

type Subscription struct {
	topic Topic
	ch    chan Change
}

// C is closed when the subscription is removed, either by Unsubscribe or
// because the subscriber fell too far behind.
func (s *Subscription) C() <-chan Change { return s.ch }

func (s *Subscription) Topic() Topic { return s.topic }

// Hub fans changes out to in-process subscribers. Use it directly as the
// Publisher on a single instance; with several instances put a RedisBroker
// in front so every hub sees every change.
type Hub struct {
	mu     sync.Mutex
	subs   map[Topic]map[*Subscription]struct{}
	buffer int
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[Topic]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(topic Topic) *Subscription {
	sub := &Subscription{topic: topic, ch: make(chan Change, h.buffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[topic] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Unsubscribe is safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

func (h *Hub) removeLocked(sub *Subscription) {
	set, ok := h.subs[sub.topic]
	if !ok {
		return
	}
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	close(sub.ch)
	if len(set) == 0 {
		delete(h.subs, sub.topic)
	}
}

// Publish delivers c to local subscribers only.
func (h *Hub) Publish(_ context.Context, c Change) {
	h.Dispatch(c)
}

// Dispatch delivers c to every local subscriber of its topics. A
// subscriber whose buffer is full is dropped.
func (h *Hub) Dispatch(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range c.Topics() {
		for sub := range h.subs[topic] {
			select {
			case sub.ch <- c:
			default:
				h.logger.Warn("dropping slow realtime subscriber",
					zap.String("table", topic.Table),
					zap.String("scope", topic.Scope),
				)
				h.removeLocked(sub)
			}
		}
	}
}

// Subscribers reports how many subscriptions are open on topic.
func (h *Hub) Subscribers(topic Topic) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[topic])
}
