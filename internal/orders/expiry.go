package orders

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Watcher polls the book for pending orders whose acceptance window has
// elapsed and auto-rejects them. Because ExpirePending is a no-op once the
// order left PENDING, overlapping ticks and racing business actions are
// harmless.
type Watcher struct {
	book     *Book
	interval time.Duration
}

func NewWatcher(book *Book, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{book: book, interval: interval}
}

// Run ticks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-ctx.Done():
			zap.L().Info("expiry watcher stopped")
			return ctx.Err()
		}
	}
}

func (w *Watcher) sweep() {
	for _, id := range w.book.PendingDue() {
		if err := w.book.ExpirePending(id); err != nil {
			zap.L().Error("failed to expire order", zap.String("order_id", id), zap.Error(err))
		}
	}
}
