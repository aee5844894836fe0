//go:generate mockgen -source ./book.go -destination=./mocks/book.go -package=mock_orders
package orders

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/metrics"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrBadQuantity       = errors.New("item quantity must be at least 1")
	ErrPrepTimeRequired  = errors.New("preparation time is required to accept")
	ErrNotExpired        = errors.New("acceptance window has not elapsed")
)

// Publisher is the slice of the notification bus the book needs.
type Publisher interface {
	Publish(n domain.Notification)
}

// Book owns every order in the process and is the only component allowed
// to change an order's status. Each transition follows the lifecycle graph
// in the domain package and fans out notifications to the roles that need
// to react.
type Book struct {
	bus Publisher

	mu      sync.RWMutex
	orders  map[string]*domain.Order
	history map[string][]domain.HistoryEntry

	timeNow func() time.Time
}

func NewBook(bus Publisher) *Book {
	return &Book{
		bus:     bus,
		orders:  make(map[string]*domain.Order),
		history: make(map[string][]domain.HistoryEntry),
		timeNow: time.Now,
	}
}

// PlaceOrder creates a PENDING order from the client's cart. The total is
// frozen here: item prices times quantities plus the business delivery fee.
func (b *Book) PlaceOrder(client domain.Profile, business domain.Business, items []domain.CartItem, dest domain.Location, address, notes string) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return domain.Order{}, ErrBadQuantity
		}
	}

	now := b.timeNow()
	order := &domain.Order{
		ID:               uuid.NewString(),
		ClientID:         client.ID,
		Client:           &client,
		BusinessID:       business.ID,
		Business:         &business,
		Items:            append([]domain.CartItem(nil), items...),
		TotalPrice:       domain.CartTotal(items, business.DeliveryFee),
		Status:           domain.StatusPending,
		DeliveryAddress:  address,
		DeliveryLocation: dest,
		SpecialNotes:     notes,
		CreatedAt:        now,
	}

	b.mu.Lock()
	b.orders[order.ID] = order
	b.history[order.ID] = append(b.history[order.ID], domain.HistoryEntry{
		OrderID: order.ID, Status: order.Status, ChangedAt: now,
	})
	snapshot := *order
	b.mu.Unlock()

	metrics.OrdersPlacedTotal.Inc()
	zap.L().Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("business_id", business.ID),
		zap.Float64("total", order.TotalPrice))

	b.publish(domain.Notification{
		Kind:    domain.EventOrderPlaced,
		Role:    domain.RoleBusiness,
		OrderID: order.ID,
		Order:   &snapshot,
		Message: fmt.Sprintf("Has recibido un nuevo pedido de %s.", client.Name),
	})
	b.publish(domain.Notification{
		Kind:    domain.EventOrderPlaced,
		Role:    domain.RoleClient,
		OrderID: order.ID,
		Message: fmt.Sprintf("Tu pedido a %s ha sido enviado. Esperando confirmación.", business.Name),
	})

	return snapshot, nil
}

// Accept moves a pending order into preparation. The transient ACCEPTED
// state is collapsed; the order goes straight to IN_PREPARATION carrying
// the preparation estimate in minutes.
func (b *Book) Accept(orderID string, prepMinutes int) error {
	if prepMinutes <= 0 {
		return ErrPrepTimeRequired
	}
	snapshot, err := b.transition(orderID, domain.StatusInPreparation, func(o *domain.Order) {
		o.PreparationTime = prepMinutes
	})
	if err != nil {
		return err
	}

	// The snapshot rides along so the client's tracked copy picks up the
	// preparation estimate, not just the status flip.
	b.publish(domain.Notification{
		Kind:    domain.EventOrderAccepted,
		Role:    domain.RoleClient,
		OrderID: orderID,
		Order:   &snapshot,
		Message: fmt.Sprintf("¡%s ha aceptado tu pedido y lo está preparando!", snapshot.BusinessName()),
	})
	return nil
}

// Reject declines a pending order.
func (b *Book) Reject(orderID string) error {
	snapshot, err := b.transition(orderID, domain.StatusRejected, nil)
	if err != nil {
		return err
	}

	b.publish(domain.Notification{
		Kind:    domain.EventOrderRejected,
		Role:    domain.RoleClient,
		OrderID: orderID,
		Message: fmt.Sprintf("%s no puede tomar tu pedido en este momento.", snapshot.BusinessName()),
	})
	return nil
}

// MarkReady signals the food is done; delivery people get the order in
// their available-work feed.
func (b *Book) MarkReady(orderID string) error {
	snapshot, err := b.transition(orderID, domain.StatusReadyForPickup, nil)
	if err != nil {
		return err
	}

	b.publish(domain.Notification{
		Kind:    domain.EventOrderReadyForPickup,
		Role:    domain.RoleDelivery,
		OrderID: orderID,
		Order:   &snapshot,
		Message: fmt.Sprintf("El pedido #%s de %s está listo.", snapshot.ShortID(), snapshot.BusinessName()),
	})
	return nil
}

// Pickup assigns the delivery person and puts the order on the road.
func (b *Book) Pickup(orderID string, dp domain.DeliveryPerson) error {
	snapshot, err := b.transition(orderID, domain.StatusOnTheWay, func(o *domain.Order) {
		o.DeliveryPersonID = dp.ID
		dpCopy := dp
		o.DeliveryPerson = &dpCopy
	})
	if err != nil {
		return err
	}

	b.publish(domain.Notification{
		Kind:    domain.EventOrderPickedUp,
		Role:    domain.RoleClient,
		OrderID: orderID,
		Message: fmt.Sprintf("%s ha recogido tu pedido de %s.", dp.Name, snapshot.BusinessName()),
	})
	b.publish(domain.Notification{
		Kind:    domain.EventOrderPickedUp,
		Role:    domain.RoleBusiness,
		OrderID: orderID,
		Message: fmt.Sprintf("El pedido #%s va en camino.", snapshot.ShortID()),
	})
	return nil
}

// Deliver finishes the order. Both the simulator on arrival and the
// delivery dashboard's manual confirmation land here.
func (b *Book) Deliver(orderID string) error {
	snapshot, err := b.transition(orderID, domain.StatusDelivered, nil)
	if err != nil {
		return err
	}

	b.publish(domain.Notification{
		Kind:    domain.EventOrderDelivered,
		Role:    domain.RoleClient,
		OrderID: orderID,
		Message: fmt.Sprintf("Tu pedido de %s ha llegado.", snapshot.BusinessName()),
	})
	b.publish(domain.Notification{
		Kind:    domain.EventOrderDelivered,
		Role:    domain.RoleBusiness,
		OrderID: orderID,
		Message: fmt.Sprintf("El pedido #%s fue entregado.", snapshot.ShortID()),
	})
	return nil
}

// Cancel aborts any pre-terminal order.
func (b *Book) Cancel(orderID string) error {
	snapshot, err := b.transition(orderID, domain.StatusCancelled, nil)
	if err != nil {
		return err
	}

	b.publish(domain.Notification{
		Kind:    domain.EventOrderCancelled,
		Role:    domain.RoleBusiness,
		OrderID: orderID,
		Message: fmt.Sprintf("El pedido #%s fue cancelado.", snapshot.ShortID()),
	})
	if snapshot.DeliveryPersonID != "" {
		b.publish(domain.Notification{
			Kind:    domain.EventOrderCancelled,
			Role:    domain.RoleDelivery,
			OrderID: orderID,
			Message: fmt.Sprintf("El pedido #%s fue cancelado.", snapshot.ShortID()),
		})
	}
	return nil
}

// ExpirePending auto-rejects a pending order whose acceptance window has
// elapsed. Calling it on an order that already left PENDING is a no-op, so
// a stale timer firing twice cannot reject twice.
func (b *Book) ExpirePending(orderID string) error {
	b.mu.Lock()
	order, ok := b.orders[orderID]
	if !ok {
		b.mu.Unlock()
		return ErrOrderNotFound
	}
	if order.Status != domain.StatusPending {
		b.mu.Unlock()
		return nil
	}
	if domain.RemainingPendingTime(order.CreatedAt, b.timeNow()) > 0 {
		b.mu.Unlock()
		return ErrNotExpired
	}
	b.applyLocked(order, domain.StatusRejected)
	snapshot := *order
	b.mu.Unlock()

	metrics.OrdersExpiredTotal.Inc()
	zap.L().Info("pending order expired", zap.String("order_id", orderID))

	b.publish(domain.Notification{
		Kind:    domain.EventOrderExpired,
		Role:    domain.RoleClient,
		OrderID: orderID,
		Message: fmt.Sprintf("%s no respondió a tiempo y tu pedido fue rechazado.", snapshot.BusinessName()),
	})
	b.publish(domain.Notification{
		Kind:    domain.EventOrderExpired,
		Role:    domain.RoleBusiness,
		OrderID: orderID,
		Message: fmt.Sprintf("El pedido #%s expiró sin respuesta.", snapshot.ShortID()),
	})
	return nil
}

// SendQuickMessage relays a canned chat line between the client and the
// delivery person of an active order. The sender gets a confirmation toast.
func (b *Book) SendQuickMessage(orderID string, from domain.Role, text string) error {
	b.mu.RLock()
	order, ok := b.orders[orderID]
	var snapshot domain.Order
	if ok {
		snapshot = *order
	}
	b.mu.RUnlock()
	if !ok {
		return ErrOrderNotFound
	}

	var target domain.Role
	switch from {
	case domain.RoleClient:
		target = domain.RoleDelivery
	case domain.RoleDelivery:
		target = domain.RoleClient
	default:
		return fmt.Errorf("role %s cannot send quick messages", from)
	}

	b.publish(domain.Notification{
		Kind:    domain.EventChatMessage,
		Role:    target,
		OrderID: orderID,
		Text:    text,
		Message: fmt.Sprintf("Pedido #%s: %q", snapshot.ShortID(), text),
	})
	b.publish(domain.Notification{
		Kind:    domain.EventChatMessage,
		Role:    from,
		OrderID: orderID,
		Message: "Tu mensaje ha sido enviado.",
	})
	return nil
}

// Get returns a copy of the order.
func (b *Book) Get(orderID string) (domain.Order, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	order, ok := b.orders[orderID]
	if !ok {
		return domain.Order{}, ErrOrderNotFound
	}
	return *order, nil
}

// List returns copies of every order, newest first.
func (b *Book) List() []domain.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// PendingDue returns the IDs of pending orders whose acceptance window has
// elapsed. The expiry watcher polls this.
func (b *Book) PendingDue() []string {
	now := b.timeNow()
	b.mu.RLock()
	defer b.mu.RUnlock()
	var due []string
	for id, o := range b.orders {
		if o.Status == domain.StatusPending && domain.RemainingPendingTime(o.CreatedAt, now) <= 0 {
			due = append(due, id)
		}
	}
	return due
}

// History returns the status history of an order, oldest first.
func (b *Book) History(orderID string) ([]domain.HistoryEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries, ok := b.history[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return append([]domain.HistoryEntry(nil), entries...), nil
}

// CountByStatus tallies orders per status for the admin overview.
func (b *Book) CountByStatus() map[domain.OrderStatus]int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	counts := make(map[domain.OrderStatus]int)
	for _, o := range b.orders {
		counts[o.Status]++
	}
	return counts
}

// transition applies one edge of the lifecycle graph and returns a snapshot
// taken after mutate ran. Illegal edges leave the order untouched.
func (b *Book) transition(orderID string, to domain.OrderStatus, mutate func(*domain.Order)) (domain.Order, error) {
	b.mu.Lock()
	order, ok := b.orders[orderID]
	if !ok {
		b.mu.Unlock()
		return domain.Order{}, ErrOrderNotFound
	}
	if !domain.CanTransition(order.Status, to) {
		from := order.Status
		b.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if mutate != nil {
		mutate(order)
	}
	b.applyLocked(order, to)
	snapshot := *order
	b.mu.Unlock()

	zap.L().Info("order transitioned",
		zap.String("order_id", orderID),
		zap.String("status", string(to)))
	return snapshot, nil
}

func (b *Book) applyLocked(order *domain.Order, to domain.OrderStatus) {
	order.Status = to
	b.history[order.ID] = append(b.history[order.ID], domain.HistoryEntry{
		OrderID: order.ID, Status: to, ChangedAt: b.timeNow(),
	})
	metrics.OrderTransitionsTotal.WithLabelValues(string(to)).Inc()
}

func (b *Book) publish(n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = b.timeNow()
	}
	b.bus.Publish(n)
}
