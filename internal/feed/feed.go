package feed

import (
	"sync"
	"time"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

// DefaultDismissAfter is how long a toast stays visible before it
// auto-dismisses, matching the reference behavior.
const DefaultDismissAfter = 7 * time.Second

// Subscriber is the slice of the bus an inbox attaches to.
type Subscriber interface {
	Subscribe(fn func(domain.Notification)) func()
}

// Config tunes an inbox. The zero value gives the 7-second toast lifetime.
type Config struct {
	DismissAfter time.Duration
}

// Inbox is one dashboard's view of the bus: it keeps only notifications
// addressed to its role, maintains the role's working list of orders, and
// manages toast lifetimes. Each dashboard owns its own instance; the bus
// itself never filters.
type Inbox struct {
	role         domain.Role
	dismissAfter time.Duration

	mu     sync.Mutex
	toasts []domain.Notification // newest first
	timers map[string]*time.Timer
	orders []domain.Order

	unsub  func()
	closed bool
}

// NewInbox builds an inbox for the role and subscribes it to the bus.
func NewInbox(role domain.Role, bus Subscriber, cfg Config) *Inbox {
	if cfg.DismissAfter <= 0 {
		cfg.DismissAfter = DefaultDismissAfter
	}
	in := &Inbox{
		role:         role,
		dismissAfter: cfg.DismissAfter,
		timers:       make(map[string]*time.Timer),
	}
	in.unsub = bus.Subscribe(in.Handle)
	return in
}

func (in *Inbox) Role() domain.Role { return in.role }

// Handle folds one notification into this inbox. Off-role notifications
// are dropped entirely: they never reach the toast list nor the order list.
func (in *Inbox) Handle(n domain.Notification) {
	if n.Role != in.role {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}

	in.toasts = append([]domain.Notification{n}, in.toasts...)
	in.timers[n.ID] = time.AfterFunc(in.dismissAfter, func() { in.Dismiss(n.ID) })

	if n.Order != nil {
		// The embedded snapshot joins or refreshes this role's list.
		in.upsertLocked(*n.Order)
		return
	}
	if status, ok := domain.StatusForKind(n.Kind); ok && n.OrderID != "" {
		for i := range in.orders {
			if in.orders[i].ID == n.OrderID {
				in.orders[i].Status = status
				break
			}
		}
	}
}

func (in *Inbox) upsertLocked(order domain.Order) {
	for i := range in.orders {
		if in.orders[i].ID == order.ID {
			in.orders[i] = order
			return
		}
	}
	in.orders = append([]domain.Order{order}, in.orders...)
}

// Track adds an order to the inbox's working list directly, for orders the
// role created itself rather than learned about from the bus.
func (in *Inbox) Track(order domain.Order) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.upsertLocked(order)
}

// Toasts returns the currently visible notifications, newest first.
func (in *Inbox) Toasts() []domain.Notification {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]domain.Notification(nil), in.toasts...)
}

// Orders returns this role's working list of orders, newest first.
func (in *Inbox) Orders() []domain.Order {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]domain.Order(nil), in.orders...)
}

// Order looks up one order in the working list.
func (in *Inbox) Order(orderID string) (domain.Order, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, o := range in.orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}

// Dismiss removes a toast, whether by user action or timer expiry.
func (in *Inbox) Dismiss(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[id]; ok {
		t.Stop()
		delete(in.timers, id)
	}
	for i, n := range in.toasts {
		if n.ID == id {
			in.toasts = append(in.toasts[:i], in.toasts[i+1:]...)
			return
		}
	}
}

// Pause holds a toast open while the user hovers over it.
func (in *Inbox) Pause(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[id]; ok {
		t.Stop()
	}
}

// Resume restarts the full dismiss countdown after a Pause.
func (in *Inbox) Resume(id string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.timers[id]; ok {
		t.Reset(in.dismissAfter)
	}
}

// Close detaches from the bus and stops every pending toast timer. The
// inbox drops notifications delivered after Close.
func (in *Inbox) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	for id, t := range in.timers {
		t.Stop()
		delete(in.timers, id)
	}
	unsub := in.unsub
	in.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
