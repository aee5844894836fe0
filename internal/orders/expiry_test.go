package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

func TestWatcher_ExpiresOverdueOrders(t *testing.T) {
	book, _ := capturingBook(t)
	order, err := book.PlaceOrder(testClient, testBusiness, testCart, testDest, "Dirección del mapa", "")
	require.NoError(t, err)

	// Move the clock past the acceptance window.
	book.timeNow = func() time.Time {
		return order.CreatedAt.Add(domain.PendingWindow + time.Second)
	}

	w := NewWatcher(book, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := book.Get(order.ID)
		return err == nil && got.Status == domain.StatusRejected
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_LeavesFreshOrdersAlone(t *testing.T) {
	book, _ := capturingBook(t)
	order, err := book.PlaceOrder(testClient, testBusiness, testCart, testDest, "Dirección del mapa", "")
	require.NoError(t, err)

	w := NewWatcher(book, time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_ = w.Run(ctx)

	got, err := book.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestNewWatcher_DefaultInterval(t *testing.T) {
	book, _ := capturingBook(t)
	w := NewWatcher(book, 0)
	assert.Equal(t, time.Second, w.interval)
}
