package eventlog

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/bus"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	mock_eventlog "github.com/lUISVR2025XD/entregas-ai2025/internal/eventlog/mocks"
)

// The real bus must plug into the pipeline directly.
var _ Subscriber = (*bus.Bus)(nil)

// recorder collects everything a pipeline pushed through its producer.
type recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *recorder) add(value []byte) {
	var e Entry
	if err := json.Unmarshal(value, &e); err != nil {
		return
	}
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func newRecordedProducer(t *testing.T) (*mock_eventlog.MockProducer, *recorder) {
	t.Helper()
	ctrl := gomock.NewController(t)
	producer := mock_eventlog.NewMockProducer(ctrl)
	rec := &recorder{}
	producer.EXPECT().SendMessage(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ []byte, value []byte) error {
			rec.add(value)
			return nil
		}).AnyTimes()
	producer.EXPECT().Close().Return(nil).AnyTimes()
	return producer, rec
}

func TestPipeline_FlushesFullBatches(t *testing.T) {
	producer, rec := newRecordedProducer(t)
	p := NewPipeline(producer, 1, 2, time.Hour)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	p.Log(Entry{OrderID: "o1", Kind: domain.EventOrderPlaced})
	p.Log(Entry{OrderID: "o1", Kind: domain.EventOrderAccepted})

	assert.Eventually(t, func() bool { return rec.len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestPipeline_FlushesOnTimeout(t *testing.T) {
	producer, rec := newRecordedProducer(t)
	p := NewPipeline(producer, 1, 100, 20*time.Millisecond)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	p.Log(Entry{OrderID: "o1", Kind: domain.EventOrderPlaced})

	assert.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPipeline_ShutdownFlushesPending(t *testing.T) {
	producer, rec := newRecordedProducer(t)
	p := NewPipeline(producer, 2, 100, time.Hour)
	p.Start(context.Background())

	p.Log(Entry{OrderID: "o1", Kind: domain.EventOrderPlaced})
	p.Log(Entry{OrderID: "o2", Kind: domain.EventOrderPlaced})
	p.Log(Entry{OrderID: "o3", Kind: domain.EventOrderPlaced})

	p.Shutdown(context.Background())
	assert.Equal(t, 3, rec.len())

	// After shutdown, new entries are silently dropped.
	p.Log(Entry{OrderID: "o4", Kind: domain.EventOrderPlaced})
	assert.Equal(t, 3, rec.len())

	// Shutdown twice is fine.
	p.Shutdown(context.Background())
}

func TestPipeline_AttachLogsBusTraffic(t *testing.T) {
	producer, rec := newRecordedProducer(t)
	p := NewPipeline(producer, 1, 1, time.Hour)
	p.Start(context.Background())
	defer p.Shutdown(context.Background())

	b := bus.New()
	unsub := p.Attach(b)
	defer unsub()

	b.Publish(domain.Notification{
		ID: "n1", Kind: domain.EventOrderAccepted, Role: domain.RoleClient,
		OrderID: "o1", Message: "listo",
	})

	require.Eventually(t, func() bool { return rec.len() == 1 }, time.Second, 5*time.Millisecond)

	rec.mu.Lock()
	entry := rec.entries[0]
	rec.mu.Unlock()
	assert.Equal(t, domain.EventOrderAccepted, entry.Kind)
	assert.Equal(t, domain.RoleClient, entry.Role)
	assert.Equal(t, "o1", entry.OrderID)
	assert.Equal(t, "Pedido Confirmado", entry.Title)
}

func TestEntryFromNotification(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n := domain.Notification{
		ID: "n1", Kind: domain.EventOrderDelivered, Role: domain.RoleBusiness,
		OrderID: "o1", Message: "entregado", CreatedAt: now,
	}

	entry := EntryFromNotification(n)
	assert.Equal(t, now, entry.Timestamp)
	assert.Equal(t, domain.EventOrderDelivered, entry.Kind)
	assert.Equal(t, domain.RoleBusiness, entry.Role)
	assert.Equal(t, "o1", entry.OrderID)
	assert.Equal(t, "¡Pedido Entregado!", entry.Title)
	assert.Equal(t, "entregado", entry.Message)
}
