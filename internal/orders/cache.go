package orders

import (
	"sync"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/metrics"
)

// ActiveCache keeps a live view of non-terminal orders, maintained purely
// from bus traffic. The admin overview reads it instead of walking the
// whole book. Terminal statuses evict the entry.
type ActiveCache struct {
	mu    sync.RWMutex
	cache map[string]*domain.Order
}

func NewActiveCache() *ActiveCache {
	return &ActiveCache{cache: make(map[string]*domain.Order)}
}

// Subscriber is the bit of the bus the cache attaches to.
type Subscriber interface {
	Subscribe(fn func(domain.Notification)) func()
}

// Attach subscribes the cache to the bus and returns the unsubscribe
// function.
func (c *ActiveCache) Attach(b Subscriber) func() {
	return b.Subscribe(c.Apply)
}

// Apply folds one notification into the cache. The same transition arrives
// once per targeted role; applying it repeatedly is idempotent.
func (c *ActiveCache) Apply(n domain.Notification) {
	if n.Order != nil {
		c.set(*n.Order)
		return
	}
	status, ok := domain.StatusForKind(n.Kind)
	if !ok || n.OrderID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	order, found := c.cache[n.OrderID]
	if !found {
		return
	}
	if status.IsTerminal() {
		delete(c.cache, n.OrderID)
	} else {
		order.Status = status
	}
	metrics.ActiveOrderCacheItems.Set(float64(len(c.cache)))
}

func (c *ActiveCache) set(order domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if order.Status.IsTerminal() {
		delete(c.cache, order.ID)
	} else {
		c.cache[order.ID] = &order
	}
	metrics.ActiveOrderCacheItems.Set(float64(len(c.cache)))
}

// Get returns a copy of a cached order.
func (c *ActiveCache) Get(orderID string) (domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, found := c.cache[orderID]
	if !found {
		return domain.Order{}, false
	}
	return *order, true
}

// All returns copies of every active order.
func (c *ActiveCache) All() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Order, 0, len(c.cache))
	for _, o := range c.cache {
		out = append(out, *o)
	}
	return out
}

// Len reports the current cache size.
func (c *ActiveCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
