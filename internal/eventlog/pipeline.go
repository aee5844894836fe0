package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

// Entry is one event-log record, derived from a bus notification.
type Entry struct {
	Timestamp time.Time        `json:"timestamp"`
	Kind      domain.EventKind `json:"kind"`
	Role      domain.Role      `json:"role"`
	OrderID   string           `json:"order_id,omitempty"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
}

// EntryFromNotification flattens a notification into a log record.
func EntryFromNotification(n domain.Notification) Entry {
	return Entry{
		Timestamp: n.CreatedAt,
		Kind:      n.Kind,
		Role:      n.Role,
		OrderID:   n.OrderID,
		Title:     n.Title(),
		Message:   n.Message,
	}
}

// Pipeline batches event-log entries and hands them to a Producer through
// a small worker pool. Losing a record is acceptable (it is a log, not the
// source of truth) but shutdown drains what it can.
type Pipeline struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	producer    Producer

	inputChan  chan Entry
	batchChan  chan []Entry
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewPipeline(producer Producer, workerCount, batchSize int, timeout time.Duration) *Pipeline {
	if workerCount <= 0 {
		workerCount = 2
	}
	if batchSize <= 0 {
		batchSize = 5
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Pipeline{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		producer:    producer,
		inputChan:   make(chan Entry, workerCount*batchSize*2),
		batchChan:   make(chan []Entry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

// Start launches the aggregator and the workers.
func (p *Pipeline) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.runAggregator(ctx)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
}

// Subscriber is the slice of the bus the pipeline attaches to.
type Subscriber interface {
	Subscribe(fn func(domain.Notification)) func()
}

// Attach subscribes the pipeline to the bus; every notification becomes an
// event-log entry.
func (p *Pipeline) Attach(bus Subscriber) func() {
	return bus.Subscribe(func(n domain.Notification) {
		p.Log(EntryFromNotification(n))
	})
}

// Log enqueues one entry. It never blocks the publisher: when the buffer
// is full or the pipeline is shutting down, the entry is dropped with a
// warning.
func (p *Pipeline) Log(entry Entry) {
	select {
	case <-p.shutdownCh:
		return
	default:
	}

	select {
	case p.inputChan <- entry:
	default:
		zap.L().Warn("event log buffer full, dropping entry",
			zap.String("kind", string(entry.Kind)),
			zap.String("order_id", entry.OrderID))
	}
}

// Shutdown flushes pending batches and closes the producer.
func (p *Pipeline) Shutdown(ctx context.Context) {
	p.once.Do(func() {
		close(p.shutdownCh)

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			zap.L().Info("event log pipeline shut down")
		case <-ctx.Done():
			zap.L().Warn("event log pipeline shutdown interrupted")
		}

		if err := p.producer.Close(); err != nil {
			zap.L().Error("failed to close event log producer", zap.Error(err))
		}
	})
}

func (p *Pipeline) runAggregator(ctx context.Context) {
	defer p.wg.Done()

	var (
		batch    []Entry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			p.dispatch(batch)
		}
		close(p.batchChan)
	}()

	for {
		select {
		case entry := <-p.inputChan:
			batch = append(batch, entry)
			if len(batch) >= p.batchSize {
				p.dispatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(p.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			p.dispatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-p.shutdownCh:
			// Drain what is already buffered before exiting.
			for {
				select {
				case entry := <-p.inputChan:
					batch = append(batch, entry)
				default:
					return
				}
			}
		}
	}
}

func (p *Pipeline) dispatch(batch []Entry) {
	batchCopy := make([]Entry, len(batch))
	copy(batchCopy, batch)

	select {
	case p.batchChan <- batchCopy:
	default:
		// Workers are behind; send inline rather than dropping.
		p.send(context.Background(), batchCopy)
	}
}

func (p *Pipeline) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()

	for batch := range p.batchChan {
		p.send(ctx, batch)
	}
	zap.L().Debug("event log worker exiting", zap.Int("worker", id))
}

func (p *Pipeline) send(ctx context.Context, batch []Entry) {
	for _, entry := range batch {
		value, err := json.Marshal(entry)
		if err != nil {
			zap.L().Error("failed to marshal event log entry", zap.Error(err))
			continue
		}
		if err := p.producer.SendMessage(ctx, []byte(entry.OrderID), value); err != nil {
			zap.L().Error("failed to send event log entry",
				zap.String("order_id", entry.OrderID), zap.Error(err))
		}
	}
}
