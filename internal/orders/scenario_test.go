package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/bus"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/feed"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/orders"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/tracking"
)

// TestOrderJourney walks one order through the whole marketplace with the
// real bus, the three role inboxes and a fast courier simulator: placed,
// confirmed with a prep time, marked ready, picked up and driven to the
// client's door.
func TestOrderJourney(t *testing.T) {
	b := bus.New()
	book := orders.NewBook(b)

	clientFeed := feed.NewInbox(domain.RoleClient, b, feed.Config{DismissAfter: time.Hour})
	businessFeed := feed.NewInbox(domain.RoleBusiness, b, feed.Config{DismissAfter: time.Hour})
	deliveryFeed := feed.NewInbox(domain.RoleDelivery, b, feed.Config{DismissAfter: time.Hour})
	defer clientFeed.Close()
	defer businessFeed.Close()
	defer deliveryFeed.Close()

	dest := domain.Location{Lat: 19.4326, Lng: -99.1332}
	client := domain.Profile{
		ID: "c1", Name: "Ana García", Role: domain.RoleClient,
		Location: &dest,
	}
	business := domain.Business{
		ID: "b1", Name: "Taquería El Pastor", DeliveryFee: 30,
		Location: domain.Location{Lat: 19.4290, Lng: -99.1300},
	}
	cart := []domain.CartItem{
		{Product: domain.Product{ID: "p1", Name: "Gringa", Price: 55}, Quantity: 2},
	}

	// Client places a $110 cart; the $30 fee freezes into the total.
	order, err := book.PlaceOrder(client, business, cart, dest, "Av. Juárez 10", "sin cebolla")
	require.NoError(t, err)
	assert.Equal(t, 140.0, order.TotalPrice)
	assert.Equal(t, domain.StatusPending, order.Status)
	clientFeed.Track(order)

	// The business dashboard gets the order as new work plus a toast.
	require.Len(t, businessFeed.Orders(), 1)
	require.Len(t, businessFeed.Toasts(), 1)
	newWork := businessFeed.Toasts()[0]
	assert.Equal(t, "¡Nuevo Pedido!", newWork.Title())
	assert.Equal(t, domain.SeverityNewOrder, newWork.Type())
	require.NotNil(t, newWork.Order)
	assert.Equal(t, 140.0, newWork.Order.TotalPrice)

	// The business accepts with a 15 minute prep time; the client sees the
	// confirmation and their tracked order moves to preparation.
	require.NoError(t, book.Accept(order.ID, 15))

	toasts := clientFeed.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Pedido Confirmado", toasts[0].Title())
	assert.Equal(t, domain.SeveritySuccess, toasts[0].Type())

	tracked, ok := clientFeed.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusInPreparation, tracked.Status)
	assert.Equal(t, 15, tracked.PreparationTime)

	// Kitchen done: couriers get the order as available work.
	require.NoError(t, book.MarkReady(order.ID))
	require.Len(t, deliveryFeed.Orders(), 1)
	assert.Equal(t, order.ID, deliveryFeed.Orders()[0].ID)

	// A courier takes it and heads out.
	courier := domain.DeliveryPerson{
		ID: "d1", Name: "Pedro Gómez", Phone: "555-0101",
		Location: business.Location,
	}
	require.NoError(t, book.Pickup(order.ID, courier))

	tracked, ok = clientFeed.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusOnTheWay, tracked.Status)
	assert.Equal(t, "¡Tu pedido está en camino!", clientFeed.Toasts()[0].Title())

	// Simulated drive from the restaurant to the client. Fast ticks, same
	// geometry as the real thing.
	sim := tracking.NewSimulator(book, order.ID, business.Location, dest, tracking.Config{
		Interval: time.Millisecond,
	})
	var lastPos domain.Location
	sim.OnMove(func(pos domain.Location) { lastPos = pos })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, sim.Run(ctx))
	assert.Equal(t, dest, lastPos)

	// Arrival delivered the order exactly once and told both sides.
	final, err := book.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, final.Status)

	assert.Equal(t, "¡Pedido Entregado!", clientFeed.Toasts()[0].Title())
	assert.Equal(t, "¡Pedido Entregado!", businessFeed.Toasts()[0].Title())

	// Delivered is terminal: nothing moves the order afterwards.
	assert.Error(t, book.Cancel(order.ID))
	assert.Error(t, book.Deliver(order.ID))

	// The paper trail covers every step in order.
	history, err := book.History(order.ID)
	require.NoError(t, err)
	statuses := make([]domain.OrderStatus, 0, len(history))
	for _, h := range history {
		statuses = append(statuses, h.Status)
	}
	assert.Equal(t, []domain.OrderStatus{
		domain.StatusPending,
		domain.StatusInPreparation,
		domain.StatusReadyForPickup,
		domain.StatusOnTheWay,
		domain.StatusDelivered,
	}, statuses)
}

// TestOrderJourney_RejectedPath covers the unhappy branch: the business
// turns the order down and the client hears about it.
func TestOrderJourney_RejectedPath(t *testing.T) {
	b := bus.New()
	book := orders.NewBook(b)

	clientFeed := feed.NewInbox(domain.RoleClient, b, feed.Config{DismissAfter: time.Hour})
	defer clientFeed.Close()

	order, err := book.PlaceOrder(
		domain.Profile{ID: "c1", Name: "Ana García", Role: domain.RoleClient},
		domain.Business{ID: "b2", Name: "Sushi Express"},
		[]domain.CartItem{{Product: domain.Product{ID: "p9", Name: "Rollo California", Price: 89}, Quantity: 1}},
		domain.Location{Lat: 19.43, Lng: -99.13},
		"Av. Juárez 10", "",
	)
	require.NoError(t, err)
	clientFeed.Track(order)

	require.NoError(t, book.Reject(order.ID))

	toasts := clientFeed.Toasts()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Pedido Rechazado", toasts[0].Title())
	assert.Equal(t, domain.SeverityError, toasts[0].Type())

	tracked, ok := clientFeed.Order(order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusRejected, tracked.Status)

	final, err := book.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, final.Status)
	assert.Error(t, book.Accept(order.ID, 10))
}
