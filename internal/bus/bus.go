package bus

import (
	"sync"

	"go.uber.org/zap"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/metrics"
)

// Listener consumes published notifications. Handlers run synchronously on
// the publisher's goroutine and must not block.
type Listener func(domain.Notification)

type subscriber struct {
	id int
	fn Listener
}

// Bus is an in-memory fan-out channel between the dashboards. It buffers
// nothing: a listener registered after a publish never sees that
// notification, and nothing survives a process restart.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs []subscriber
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers a listener and returns the function that removes it.
// Listeners are invoked in registration order. The parameter is the plain
// func type so the bus satisfies each consumer's local Subscriber interface.
func (b *Bus) Subscribe(fn func(domain.Notification)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the notification to every listener subscribed right now
// and returns once all of them have run. A panicking listener is isolated
// so the rest still receive the notification.
func (b *Bus) Publish(n domain.Notification) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	metrics.NotificationsPublishedTotal.Inc()
	for _, s := range subs {
		b.deliver(s, n)
	}
}

func (b *Bus) deliver(s subscriber, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			metrics.ListenerPanicsTotal.Inc()
			zap.L().Error("notification listener panicked",
				zap.Int("listener", s.id),
				zap.String("kind", string(n.Kind)),
				zap.Any("panic", r))
		}
	}()
	s.fn(n)
}

// Len reports the current subscriber count.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
