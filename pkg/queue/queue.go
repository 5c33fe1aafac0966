// Package queue runs nearcart's background jobs (receipt archiving) on a
// pluggable driver: in-process memory for development and tests, Redis for
// deployments with more than one process.
//
//	queue.Register("receipt.archive", func() queue.Job { return &jobs.ArchiveReceiptJob{} })
//	queue.Dispatch(ctx, &jobs.ArchiveReceiptJob{OrderID: 1})
//	queue.Work(ctx, 2)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/metrics"
)

// Job is the interface every queued job must satisfy. Jobs are serialized
// as JSON, so their state lives in exported fields.
type Job interface {
	// JobName is the registry key used to rebuild the job on the worker side.
	JobName() string
	Handle(ctx context.Context) error
}

// FailedJob is an in-memory record of a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Payload  json.RawMessage
	Err      error
	FailedAt time.Time
	Attempts int
}

// Driver is the queue storage backend.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Later makes payload poppable once delay has elapsed.
	Later(ctx context.Context, payload []byte, delay time.Duration) error
	// Pop blocks until a payload is available; (nil, nil) means "nothing yet".
	Pop(ctx context.Context) ([]byte, error)
}

// ErrUnknownJob is returned when a popped job has no registered factory.
var ErrUnknownJob = errors.New("queue: unregistered job type")

// Manager owns a driver, the job registry and the failure policy.
type Manager struct {
	mu       sync.RWMutex
	driver   Driver
	registry map[string]func() Job
	failed   []FailedJob
	db       *gorm.DB

	MaxAttempts int
	// Backoff returns the wait before retry number attempt (1-based).
	Backoff func(attempt int) time.Duration
}

// New creates a Manager on d with three attempts and linear backoff.
func New(d Driver) *Manager {
	return &Manager{
		driver:      d,
		registry:    map[string]func() Job{},
		MaxAttempts: 3,
		Backoff:     func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
	}
}

// ─── Default manager ─────────────────────────────────────────────────────────

var defaultManager = New(NewMemoryDriver())

// Default returns the process-wide manager.
func Default() *Manager { return defaultManager }

// SetDriver swaps the default manager's driver (e.g. to Redis at boot).
func SetDriver(d Driver) { defaultManager.SetDriver(d) }

// UseDB persists the default manager's failed jobs to db.
func UseDB(db *gorm.DB) { defaultManager.UseDB(db) }

// Register makes a job type available to the default manager.
func Register(name string, factory func() Job) { defaultManager.Register(name, factory) }

// Dispatch pushes job onto the default manager's queue.
func Dispatch(ctx context.Context, job Job) error { return defaultManager.Dispatch(ctx, job) }

// Work starts n workers on the default manager until ctx is cancelled.
func Work(ctx context.Context, n int) { defaultManager.Work(ctx, n) }

// ─── Manager API ─────────────────────────────────────────────────────────────

func (m *Manager) SetDriver(d Driver) {
	m.mu.Lock()
	m.driver = d
	m.mu.Unlock()
}

func (m *Manager) UseDB(db *gorm.DB) {
	m.mu.Lock()
	m.db = db
	m.mu.Unlock()
}

func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	m.registry[name] = factory
	m.mu.Unlock()
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(job Job) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", job.JobName(), err)
	}
	return json.Marshal(envelope{Type: job.JobName(), Payload: payload})
}

func (m *Manager) currentDriver() Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.driver
}

// Dispatch pushes job for immediate processing.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.currentDriver().Push(ctx, raw)
}

// DispatchAfter pushes job to become available after delay.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.currentDriver().Later(ctx, raw, delay)
}

// ─── Workers ─────────────────────────────────────────────────────────────────

// Work launches n workers that process jobs until ctx is cancelled.
func (m *Manager) Work(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go m.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.currentDriver().Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		if err := m.Process(ctx, raw); err != nil {
			logger.Error("queue: job dropped", "error", err)
		}
	}
}

// Process decodes and runs one raw job, retrying per the manager's policy.
// It returns an error only when the payload cannot be turned into a job.
func (m *Manager) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("queue: bad envelope: %w", err)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return fmt.Errorf("queue: unmarshal %s: %w", env.Type, err)
	}

	m.runWithRetry(ctx, job, env)
	return nil
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, env envelope) {
	log := logger.WithCtx(ctx).With("job", env.Type)
	attempts := m.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		start := time.Now()
		lastErr = job.Handle(ctx)
		if lastErr == nil {
			metrics.RecordQueueJob(env.Type, "success", start)
			log.Debug("queue: job processed", "attempt", attempt)
			return
		}
		metrics.RecordQueueJob(env.Type, "failure", start)
		log.Warn("queue: job failed", "attempt", attempt, "error", lastErr)
		if attempt < attempts && m.Backoff != nil {
			if !sleep(ctx, m.Backoff(attempt)) {
				break
			}
		}
	}

	m.persistFailed(ctx, env, lastErr, attempts)
	log.Error("queue: job exhausted retries", "error", lastErr)
}

// FailedJobs returns a snapshot of jobs that failed in this process.
func (m *Manager) FailedJobs() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]FailedJob, len(m.failed))
	copy(out, m.failed)
	return out
}

// sleep waits for d or ctx, reporting false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
