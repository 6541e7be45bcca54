package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage/memory"
)

type recordingBackend struct {
	*memory.Store
	mu       sync.Mutex
	saves    map[string]int
	failSave error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{Store: memory.New(), saves: map[string]int{}}
}

func (b *recordingBackend) Save(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	b.saves[key]++
	fail := b.failSave
	b.mu.Unlock()
	if fail != nil {
		return fail
	}
	return b.Store.Save(ctx, key, value)
}

func (b *recordingBackend) saveCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves[key]
}

func movement(id string) core.CashMovement {
	return core.CashMovement{ID: id, StoreID: "1", Type: core.MovementSale, Amount: decimal.NewFromInt(1), Date: time.Now()}
}

func slowConfig() FlusherConfig {
	return FlusherConfig{FlushInterval: time.Hour, BatchSize: 100, BufferSize: 16, OpTimeout: time.Second}
}

func TestDefaultFlusherConfig(t *testing.T) {
	config := DefaultFlusherConfig()
	assert.Equal(t, 500*time.Millisecond, config.FlushInterval)
	assert.Equal(t, 50, config.BatchSize)
	assert.Equal(t, 1024, config.BufferSize)
	assert.Equal(t, 5*time.Second, config.OpTimeout)
}

func TestFlusherCoalescesSnapshotsAndKeepsMovementOrder(t *testing.T) {
	backend := newRecordingBackend()
	f := NewFlusher(backend, slowConfig(), nil)

	require.NoError(t, f.Enqueue(SnapshotTask("sales", []byte(`[1]`))))
	require.NoError(t, f.Enqueue(MovementTask(movement("a"))))
	require.NoError(t, f.Enqueue(SnapshotTask("sales", []byte(`[1,2]`))))
	require.NoError(t, f.Enqueue(MovementTask(movement("b"))))
	require.NoError(t, f.Enqueue(SnapshotTask("sales", []byte(`[1,2,3]`))))

	require.NoError(t, f.Start(context.Background()))
	require.NoError(t, f.Stop(context.Background()))

	assert.Equal(t, 1, backend.saveCount("sales"))
	raw, err := backend.Load(context.Background(), "sales")
	require.NoError(t, err)
	assert.Equal(t, `[1,2,3]`, string(raw))

	moves, err := backend.LoadMovements(context.Background())
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "a", moves[0].ID)
	assert.Equal(t, "b", moves[1].ID)
	assert.Equal(t, int64(3), f.Flushed())
}

func TestFlusherFlushesOnBatchSize(t *testing.T) {
	backend := newRecordingBackend()
	config := slowConfig()
	config.BatchSize = 2
	f := NewFlusher(backend, config, nil)
	require.NoError(t, f.Start(context.Background()))
	defer f.Stop(context.Background())

	require.NoError(t, f.Enqueue(MovementTask(movement("a"))))
	require.NoError(t, f.Enqueue(MovementTask(movement("b"))))

	require.Eventually(t, func() bool {
		moves, _ := backend.LoadMovements(context.Background())
		return len(moves) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestFlusherFlushesOnInterval(t *testing.T) {
	backend := newRecordingBackend()
	config := slowConfig()
	config.FlushInterval = 20 * time.Millisecond
	f := NewFlusher(backend, config, nil)
	require.NoError(t, f.Start(context.Background()))
	defer f.Stop(context.Background())

	require.NoError(t, f.Enqueue(SnapshotTask("products", []byte(`[]`))))
	require.Eventually(t, func() bool { return backend.saveCount("products") == 1 }, time.Second, 10*time.Millisecond)
}

func TestFlusherReportsFailures(t *testing.T) {
	backend := newRecordingBackend()
	backend.failSave = errors.New("disk full")
	f := NewFlusher(backend, slowConfig(), nil)

	require.NoError(t, f.Enqueue(SnapshotTask("expenses", []byte(`[]`))))
	require.NoError(t, f.Start(context.Background()))
	require.NoError(t, f.Stop(context.Background()))

	select {
	case ferr := <-f.Errors():
		assert.Equal(t, TaskSnapshot, ferr.Task.Kind)
		assert.Equal(t, "expenses", ferr.Task.Key)
		assert.ErrorContains(t, ferr, "disk full")
	case <-time.After(time.Second):
		t.Fatal("expected a flush error")
	}
	assert.Equal(t, int64(1), f.Failed())
}

func TestFlusherQueueFullAndStopped(t *testing.T) {
	config := slowConfig()
	config.BufferSize = 1
	f := NewFlusher(newRecordingBackend(), config, nil)

	require.NoError(t, f.Enqueue(MovementTask(movement("a"))))
	require.ErrorIs(t, f.Enqueue(MovementTask(movement("b"))), ErrQueueFull)
	assert.Equal(t, 1, f.Pending())

	require.NoError(t, f.Stop(context.Background()))
	assert.Equal(t, 0, f.Pending(), "stop without start writes the queue")
	assert.Equal(t, int64(1), f.Flushed())
	require.ErrorIs(t, f.Enqueue(MovementTask(movement("c"))), ErrFlusherStopped)
	require.ErrorIs(t, f.Start(context.Background()), ErrFlusherStopped)
}

func TestFlusherStartTwice(t *testing.T) {
	f := NewFlusher(newRecordingBackend(), slowConfig(), nil)
	require.NoError(t, f.Start(context.Background()))
	defer f.Stop(context.Background())

	assert.True(t, f.IsRunning())
	assert.Error(t, f.Start(context.Background()))
}

func TestFlusherStopWithoutStartWritesQueue(t *testing.T) {
	backend := newRecordingBackend()
	f := NewFlusher(backend, slowConfig(), nil)
	require.NoError(t, f.Enqueue(SnapshotTask("registers", []byte(`[]`))))
	require.NoError(t, f.Enqueue(SnapshotTask("registers", []byte(`[{"id":"r1"}]`))))

	require.NoError(t, f.Stop(context.Background()))
	assert.Equal(t, 1, backend.saveCount("registers"), "snapshots coalesce on the final drain")
	got, err := backend.Load(context.Background(), "registers")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"r1"}]`, string(got))
	assert.False(t, f.IsRunning())
}
