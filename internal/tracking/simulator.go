//go:generate mockgen -source ./simulator.go -destination=./mocks/simulator.go -package=mock_tracking
package tracking

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/metrics"
)

const (
	// DefaultInterval is the reference tick period for simulated movement.
	DefaultInterval = 2 * time.Second
	// DefaultStepFraction moves 20% of the remaining distance each tick,
	// an exponential approach rather than constant speed.
	DefaultStepFraction = 0.2
	// DefaultArriveEpsilon is the distance in degrees below which the
	// courier is considered to have arrived.
	DefaultArriveEpsilon = 1e-4
)

// Deliverer completes the order when the courier arrives. The order book
// satisfies it.
type Deliverer interface {
	Deliver(orderID string) error
}

// LocationSource produces courier positions for the tracking view. The
// simulator is the demo implementation; a push-based feed could replace it
// without the order book noticing.
type LocationSource interface {
	Current() domain.Location
	Stop()
}

// Advance computes one interpolation step toward the destination.
func Advance(cur, dst domain.Location, fraction float64) domain.Location {
	return domain.Location{
		Lat: cur.Lat + (dst.Lat-cur.Lat)*fraction,
		Lng: cur.Lng + (dst.Lng-cur.Lng)*fraction,
	}
}

// Config tunes a simulator. Zero values fall back to the reference
// behavior (2s ticks, 0.2 step, 1e-4 arrival threshold).
type Config struct {
	Interval      time.Duration
	StepFraction  float64
	ArriveEpsilon float64
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.StepFraction <= 0 {
		c.StepFraction = DefaultStepFraction
	}
	if c.ArriveEpsilon <= 0 {
		c.ArriveEpsilon = DefaultArriveEpsilon
	}
	return c
}

// Simulator drives one courier toward one order's destination. It is
// single-shot: create a new one when the tracked order changes identity.
type Simulator struct {
	book    Deliverer
	orderID string
	dst     domain.Location
	cfg     Config

	// onMove, if set, observes every position change including the final
	// snap to the destination.
	onMove func(domain.Location)

	mu      sync.Mutex
	cur     domain.Location
	arrived bool

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewSimulator(book Deliverer, orderID string, start, dest domain.Location, cfg Config) *Simulator {
	return &Simulator{
		book:    book,
		orderID: orderID,
		dst:     dest,
		cfg:     cfg.withDefaults(),
		cur:     start,
		stopped: make(chan struct{}),
	}
}

// OnMove registers a position observer. Must be called before Run.
func (s *Simulator) OnMove(fn func(domain.Location)) {
	s.onMove = fn
}

// Current returns the courier's latest simulated position.
func (s *Simulator) Current() domain.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Stop cancels the simulation. Safe to call more than once and after
// arrival.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Run ticks until arrival, Stop, or context cancellation. On arrival the
// position snaps exactly to the destination and the order is delivered
// exactly once; the ticker is released in every exit path so no stale
// timer keeps firing against a finished order.
func (s *Simulator) Run(ctx context.Context) error {
	metrics.ActiveSimulators.Inc()
	defer metrics.ActiveSimulators.Dec()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.step() {
				return nil
			}
		case <-s.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// step advances one tick and reports whether the courier arrived.
func (s *Simulator) step() bool {
	s.mu.Lock()
	if s.arrived {
		s.mu.Unlock()
		return true
	}
	next := Advance(s.cur, s.dst, s.cfg.StepFraction)
	if next.DistanceTo(s.dst) < s.cfg.ArriveEpsilon {
		s.cur = s.dst
		s.arrived = true
		pos := s.cur
		s.mu.Unlock()

		s.notifyMove(pos)
		if err := s.book.Deliver(s.orderID); err != nil {
			zap.L().Error("failed to mark order delivered on arrival",
				zap.String("order_id", s.orderID), zap.Error(err))
		} else {
			zap.L().Info("courier arrived", zap.String("order_id", s.orderID))
		}
		return true
	}
	s.cur = next
	s.mu.Unlock()

	s.notifyMove(next)
	return false
}

func (s *Simulator) notifyMove(pos domain.Location) {
	if s.onMove != nil {
		s.onMove(pos)
	}
}
