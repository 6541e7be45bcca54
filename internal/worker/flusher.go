package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/storage"
)

var (
	ErrQueueFull      = errors.New("worker: persistence queue is full")
	ErrFlusherStopped = errors.New("worker: flusher stopped")
)

type TaskKind int

const (
	TaskSnapshot TaskKind = iota
	TaskMovement
)

func (k TaskKind) String() string {
	switch k {
	case TaskSnapshot:
		return "snapshot"
	case TaskMovement:
		return "movement"
	}
	return "unknown"
}

// Task is one pending write to the storage backend.
type Task struct {
	Kind     TaskKind
	Key      string
	Value    []byte
	Movement core.CashMovement
}

func SnapshotTask(key string, value []byte) Task {
	return Task{Kind: TaskSnapshot, Key: key, Value: value}
}

func MovementTask(m core.CashMovement) Task {
	return Task{Kind: TaskMovement, Key: m.ID, Movement: m}
}

// FlushError reports a task the backend refused. The in-memory state that
// produced the task is not rolled back.
type FlushError struct {
	Task Task
	Err  error
}

func (e FlushError) Error() string {
	return fmt.Sprintf("flush %s %s: %v", e.Task.Kind, e.Task.Key, e.Err)
}

func (e FlushError) Unwrap() error { return e.Err }

// FlusherConfig holds configuration for the flusher
type FlusherConfig struct {
	// FlushInterval is the longest a task waits before being written (default: 500ms)
	FlushInterval time.Duration

	// BatchSize triggers an early flush once that many tasks are pending (default: 50)
	BatchSize int

	// BufferSize bounds the queue; Enqueue fails beyond it (default: 1024)
	BufferSize int

	// OpTimeout bounds each backend call (default: 5s)
	OpTimeout time.Duration
}

// DefaultFlusherConfig returns sensible defaults
func DefaultFlusherConfig() FlusherConfig {
	return FlusherConfig{
		FlushInterval: 500 * time.Millisecond,
		BatchSize:     50,
		BufferSize:    1024,
		OpTimeout:     5 * time.Second,
	}
}

type Backend interface {
	storage.SnapshotStore
	storage.Journal
}

// Flusher writes state changes to the backend off the request path.
// Snapshot writes to the same key inside one batch collapse to the last
// value; movements are appended one by one in enqueue order.
type Flusher struct {
	backend Backend
	config  FlusherConfig
	logger  *log.Logger

	tasks chan Task
	errs  chan FlushError

	flushed atomic.Int64
	failed  atomic.Int64

	mu      sync.Mutex
	running bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewFlusher(backend Backend, config FlusherConfig, logger *log.Logger) *Flusher {
	def := DefaultFlusherConfig()
	if config.FlushInterval <= 0 {
		config.FlushInterval = def.FlushInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.OpTimeout <= 0 {
		config.OpTimeout = def.OpTimeout
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Flusher{
		backend: backend,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
		tasks:   make(chan Task, config.BufferSize),
		errs:    make(chan FlushError, 64),
	}
}

// Enqueue never blocks. Tasks queued before Start are written once the
// loop runs.
func (f *Flusher) Enqueue(t Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return ErrFlusherStopped
	}
	select {
	case f.tasks <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// Errors delivers write failures. Failures are dropped when nobody reads
// and the channel buffer is full; they are always logged.
func (f *Flusher) Errors() <-chan FlushError {
	return f.errs
}

// Pending returns the number of queued tasks not yet picked up.
func (f *Flusher) Pending() int { return len(f.tasks) }

func (f *Flusher) Flushed() int64 { return f.flushed.Load() }
func (f *Flusher) Failed() int64  { return f.failed.Load() }

// Start begins the processing loop. Returns an error if already running.
func (f *Flusher) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return fmt.Errorf("flusher is already running")
	}
	if f.stopped {
		f.mu.Unlock()
		return ErrFlusherStopped
	}
	f.running = true
	f.stopCh = make(chan struct{})
	f.doneCh = make(chan struct{})
	f.mu.Unlock()

	go f.runLoop(ctx)

	f.logger.InfoContext(ctx, "Flusher started",
		"flush_interval", f.config.FlushInterval,
		log.FieldBatchSize, f.config.BatchSize)
	return nil
}

// Stop refuses new tasks, writes everything still queued and waits for the
// loop to exit or ctx to expire. A flusher that never started writes its
// queue on the caller's goroutine.
func (f *Flusher) Stop(ctx context.Context) error {
	f.mu.Lock()
	alreadyStopping := f.stopped
	f.stopped = true
	running := f.running
	f.mu.Unlock()
	if !running {
		f.drain(ctx, nil)
		return nil
	}
	if !alreadyStopping {
		close(f.stopCh)
	}

	select {
	case <-f.doneCh:
		f.logger.InfoContext(ctx, "Flusher stopped gracefully",
			"flushed", f.flushed.Load(), "failed", f.failed.Load())
	case <-ctx.Done():
		f.logger.WarnContext(ctx, "Flusher stop timed out", log.FieldError, ctx.Err())
		return ctx.Err()
	}

	f.mu.Lock()
	f.running = false
	f.mu.Unlock()
	return nil
}

func (f *Flusher) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Flusher) runLoop(ctx context.Context) {
	defer close(f.doneCh)

	ticker := time.NewTicker(f.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]Task, 0, f.config.BatchSize)
	for {
		select {
		case <-f.stopCh:
			f.drain(context.WithoutCancel(ctx), batch)
			return
		case <-ctx.Done():
			f.drain(context.WithoutCancel(ctx), batch)
			return
		case t := <-f.tasks:
			batch = append(batch, t)
			if len(batch) >= f.config.BatchSize {
				f.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				f.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

func (f *Flusher) drain(ctx context.Context, batch []Task) {
	for {
		select {
		case t := <-f.tasks:
			batch = append(batch, t)
		default:
			if len(batch) > 0 {
				f.flush(ctx, batch)
			}
			return
		}
	}
}

func (f *Flusher) flush(ctx context.Context, batch []Task) {
	latest := make(map[string]int)
	for i, t := range batch {
		if t.Kind == TaskSnapshot {
			latest[t.Key] = i
		}
	}

	f.logger.DebugContext(ctx, "Flushing batch", log.FieldBatchSize, len(batch))
	for i, t := range batch {
		if t.Kind == TaskSnapshot && latest[t.Key] != i {
			continue
		}
		if err := f.write(ctx, t); err != nil {
			f.fail(ctx, t, err)
			continue
		}
		f.flushed.Add(1)
	}
}

func (f *Flusher) write(ctx context.Context, t Task) error {
	opCtx, cancel := context.WithTimeout(ctx, f.config.OpTimeout)
	defer cancel()
	switch t.Kind {
	case TaskSnapshot:
		return f.backend.Save(opCtx, t.Key, t.Value)
	case TaskMovement:
		return f.backend.AppendMovement(opCtx, t.Movement)
	default:
		return fmt.Errorf("unknown task kind %d", t.Kind)
	}
}

func (f *Flusher) fail(ctx context.Context, t Task, err error) {
	f.failed.Add(1)
	f.logger.ErrorContext(ctx, "Persistence write failed",
		"task", t.Kind.String(),
		log.FieldKey, t.Key,
		log.FieldError, err)
	select {
	case f.errs <- FlushError{Task: t, Err: err}:
	default:
		f.logger.WarnContext(ctx, "Flush error channel full, dropping notification", log.FieldKey, t.Key)
	}
}
