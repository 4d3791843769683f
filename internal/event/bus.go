// Package event carries change notifications between the start page
// plugins: settings saves, workspace edits and background uploads.
package event

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/plugin"
)

var _ plugin.EventBus = (*Bus)(nil)

var (
	eventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startpage_events_published_total",
			Help: "Events published on the in-process bus, by topic.",
		},
		[]string{"topic"},
	)
	handlerPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "startpage_event_handler_panics_total",
			Help: "Event handlers that panicked, by topic.",
		},
		[]string{"topic"},
	)
)

func init() {
	prometheus.MustRegister(eventsPublished, handlerPanics)
}

// Bus dispatches events to subscribers. A subscription topic ending in "*"
// matches by prefix: "workspace.*" receives workspace.created, .updated and
// .deleted. "*" alone matches everything.
//
// Publish runs handlers in the caller's goroutine, so a store must release
// its lock before publishing if a handler reads back from it.
type Bus struct {
	mu       sync.RWMutex
	exact    map[string][]subscription
	prefixed []subscription
	nextID   uint64
	logger   *zap.Logger
	now      func() time.Time
}

type subscription struct {
	id      uint64
	prefix  string
	handler plugin.EventHandler
}

// NewBus creates an empty bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		exact:  make(map[string][]subscription),
		logger: logger,
		now:    time.Now,
	}
}

// Publish delivers event to exact-topic subscribers first, then to prefix
// subscribers in subscription order. A zero Timestamp is set to now.
func (b *Bus) Publish(ctx context.Context, event plugin.Event) error {
	event = b.prepare(event)
	for _, s := range b.match(event.Topic) {
		b.deliver(ctx, s.handler, event)
	}
	return nil
}

// PublishAsync delivers event with one goroutine per subscriber.
func (b *Bus) PublishAsync(ctx context.Context, event plugin.Event) {
	event = b.prepare(event)
	for _, s := range b.match(event.Topic) {
		go b.deliver(ctx, s.handler, event)
	}
}

// Subscribe registers handler for topic, or for a topic prefix when topic
// ends in "*". The returned function removes the subscription and may be
// called more than once.
func (b *Bus) Subscribe(topic string, handler plugin.EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := subscription{id: b.nextID, handler: handler}
	b.nextID++

	if prefix, ok := strings.CutSuffix(topic, "*"); ok {
		s.prefix = prefix
		b.prefixed = append(b.prefixed, s)
		return func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.prefixed = without(b.prefixed, s.id)
		}
	}

	b.exact[topic] = append(b.exact[topic], s)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs := without(b.exact[topic], s.id); len(subs) > 0 {
			b.exact[topic] = subs
		} else {
			delete(b.exact, topic)
		}
	}
}

// SubscribeAll registers handler for every topic.
func (b *Bus) SubscribeAll(handler plugin.EventHandler) (unsubscribe func()) {
	return b.Subscribe("*", handler)
}

func (b *Bus) match(topic string) []subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]subscription, 0, len(b.exact[topic])+len(b.prefixed))
	out = append(out, b.exact[topic]...)
	for _, s := range b.prefixed {
		if strings.HasPrefix(topic, s.prefix) {
			out = append(out, s)
		}
	}
	return out
}

func (b *Bus) prepare(event plugin.Event) plugin.Event {
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}
	eventsPublished.WithLabelValues(event.Topic).Inc()
	return event
}

func without(subs []subscription, id uint64) []subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}

// deliver runs one handler; a panic is logged and counted so the remaining
// subscribers still see the event.
func (b *Bus) deliver(ctx context.Context, handler plugin.EventHandler, event plugin.Event) {
	defer func() {
		if r := recover(); r != nil {
			handlerPanics.WithLabelValues(event.Topic).Inc()
			b.logger.Error("event handler panicked",
				zap.String("topic", event.Topic),
				zap.String("source", event.Source),
				zap.Any("panic", r),
			)
		}
	}()
	handler(ctx, event)
}
