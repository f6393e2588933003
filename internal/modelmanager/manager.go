// Package modelmanager coordinates access to shared, expensive ML model
// instances (speech-to-text, translation, NLP tagging). Models are loaded
// lazily, guarded by per-class usage accounting, and unloaded either
// explicitly with a bounded drain or automatically after sitting idle.
//
// Concurrency contract:
//   - Shared access goes through Acquire/Release (or With). Multiple holders
//     may use one instance concurrently, up to an optional per-class cap.
//   - Exclusive access blocks new shared acquisitions and waits, bounded by
//     the caller's context, until in-flight usage drains to zero.
//   - Unload drains exclusively; if the drain deadline passes, it warns and
//     forces teardown. A forced slot is immediately reusable: the next
//     Acquire reloads through the registered loader.
package modelmanager

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/metrics"
)

// Class identifies a logical model class.
type Class string

const (
	ClassTranscription Class = "transcription"
	ClassTranslation   Class = "translation"
	ClassNLP           Class = "nlp"
)

// Loader constructs a model instance on first use. Instances that implement
// io.Closer are closed on unload.
type Loader func(ctx context.Context) (any, error)

// SlotOptions configures a registered model class.
type SlotOptions struct {
	// MaxConcurrent caps concurrent shared holders; zero means unlimited.
	MaxConcurrent int
}

type slot struct {
	class Class

	mu   sync.Mutex
	cond *sync.Cond

	loader        Loader
	maxConcurrent int

	instance  any
	loaded    bool
	usage     int
	exclusive bool

	loadedAt     time.Time
	lastUsedAt   time.Time
	loadDuration time.Duration

	totalAcquisitions uint64
	totalLoads        uint64
	forcedUnloads     uint64
}

// Manager is the process-wide coordinator for shared model instances.
type Manager struct {
	mu     sync.RWMutex
	slots  map[Class]*slot
	closed bool

	clock     clockwork.Clock
	loadGroup singleflight.Group
}

// New creates an empty manager. Register classes before serving traffic.
func New(clock clockwork.Clock) *Manager {
	return &Manager{
		slots: make(map[Class]*slot),
		clock: clock,
	}
}

// Register adds a lazily-loaded model class. Registering an already known
// class replaces its loader but keeps the slot state.
func (m *Manager) Register(class Class, loader Loader, opts SlotOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.slots[class]; ok {
		existing.mu.Lock()
		existing.loader = loader
		existing.maxConcurrent = opts.MaxConcurrent
		existing.mu.Unlock()
		return
	}

	s := &slot{
		class:         class,
		loader:        loader,
		maxConcurrent: opts.MaxConcurrent,
	}
	s.cond = sync.NewCond(&s.mu)
	m.slots[class] = s
}

func (m *Manager) slot(class Class) (*slot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, domain.ErrManagerClosed
	}
	s, ok := m.slots[class]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelNotFound, class)
	}
	return s, nil
}

// Handle is a checked-out shared reference to a model instance.
type Handle struct {
	class    Class
	instance any
	release  sync.Once
	slot     *slot
	clock    clockwork.Clock
}

// Instance returns the underlying model instance.
func (h *Handle) Instance() any {
	return h.instance
}

// Release returns the handle. Safe to call more than once; only the first
// call decrements the usage counter.
func (h *Handle) Release() {
	h.release.Do(func() {
		h.slot.mu.Lock()
		h.slot.usage--
		h.slot.lastUsedAt = h.clock.Now()
		usage := h.slot.usage
		h.slot.cond.Broadcast()
		h.slot.mu.Unlock()

		metrics.ModelUsageCurrent.WithLabelValues(string(h.class)).Set(float64(usage))
	})
}

// broadcastOnDone wakes cond waiters when ctx expires so bounded waits can
// observe the cancellation. Must be called without s.mu held.
func (s *slot) broadcastOnDone(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
}

// Acquire checks out shared access to a model, loading it on first use.
// It blocks while an exclusive holder is present or the concurrency cap is
// reached, bounded by ctx.
func (m *Manager) Acquire(ctx context.Context, class Class) (*Handle, error) {
	s, err := m.slot(class)
	if err != nil {
		metrics.ModelAcquisitionsTotal.WithLabelValues(string(class), "rejected").Inc()
		return nil, err
	}

	waitStart := m.clock.Now()
	stop := s.broadcastOnDone(ctx)
	defer stop()

	s.mu.Lock()
	for (s.exclusive || (s.maxConcurrent > 0 && s.usage >= s.maxConcurrent)) && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		s.mu.Unlock()
		metrics.ModelAcquisitionsTotal.WithLabelValues(string(class), "timeout").Inc()
		return nil, fmt.Errorf("acquire %s: %w", class, ctx.Err())
	}

	// Reserve the usage slot before loading so the cap covers loads too.
	s.usage++
	loaded := s.loaded
	instance := s.instance
	s.mu.Unlock()

	if !loaded {
		v, loadErr, _ := m.loadGroup.Do(string(class), func() (any, error) {
			return m.load(ctx, s)
		})
		if loadErr != nil {
			s.mu.Lock()
			s.usage--
			s.cond.Broadcast()
			s.mu.Unlock()
			metrics.ModelAcquisitionsTotal.WithLabelValues(string(class), "load_error").Inc()
			return nil, fmt.Errorf("load %s: %w", class, loadErr)
		}
		instance = v
	}

	s.mu.Lock()
	s.totalAcquisitions++
	s.lastUsedAt = m.clock.Now()
	usage := s.usage
	s.mu.Unlock()

	metrics.ModelAcquisitionsTotal.WithLabelValues(string(class), "ok").Inc()
	metrics.ModelUsageCurrent.WithLabelValues(string(class)).Set(float64(usage))
	metrics.ModelAcquireWaitDuration.WithLabelValues(string(class)).Observe(m.clock.Since(waitStart).Seconds())

	return &Handle{class: class, instance: instance, slot: s, clock: m.clock}, nil
}

// load runs the registered loader and installs the instance. Collapsed by
// singleflight, so only one caller pays the load cost per class.
func (m *Manager) load(ctx context.Context, s *slot) (any, error) {
	s.mu.Lock()
	if s.loaded {
		instance := s.instance
		s.mu.Unlock()
		return instance, nil
	}
	loader := s.loader
	s.mu.Unlock()

	start := m.clock.Now()
	instance, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := m.clock.Since(start)

	s.mu.Lock()
	s.instance = instance
	s.loaded = true
	s.loadedAt = m.clock.Now()
	s.loadDuration = elapsed
	s.totalLoads++
	s.mu.Unlock()

	slog.Info("Model loaded", "class", s.class, "duration", elapsed)
	metrics.ModelLoaded.WithLabelValues(string(s.class)).Set(1)
	metrics.ModelLoadDuration.WithLabelValues(string(s.class)).Observe(elapsed.Seconds())

	return instance, nil
}

// With acquires the model, runs fn with the instance, and releases it.
func (m *Manager) With(ctx context.Context, class Class, fn func(instance any) error) error {
	h, err := m.Acquire(ctx, class)
	if err != nil {
		return err
	}
	defer h.Release()
	return fn(h.Instance())
}

// AcquireExclusive blocks new shared acquisitions and waits, bounded by ctx,
// until in-flight usage drains to zero. The returned release function ends
// the exclusive hold.
func (m *Manager) AcquireExclusive(ctx context.Context, class Class) (release func(), err error) {
	s, slotErr := m.slot(class)
	if slotErr != nil {
		return nil, slotErr
	}

	stop := s.broadcastOnDone(ctx)
	defer stop()

	s.mu.Lock()
	for s.exclusive && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("exclusive %s: %w", class, ctx.Err())
	}

	// Barrier is up: no new shared holders can start while usage drains.
	s.exclusive = true
	for s.usage > 0 && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() != nil {
		s.exclusive = false
		s.cond.Broadcast()
		s.mu.Unlock()
		return nil, fmt.Errorf("exclusive %s: drain: %w", class, ctx.Err())
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.exclusive = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}, nil
}

// Unload tears a model down after an exclusive drain bounded by ctx. If the
// drain deadline passes, it warns and forces teardown with holders still
// in flight; their handles keep a reference, so they finish safely.
func (m *Manager) Unload(ctx context.Context, class Class) error {
	s, err := m.slot(class)
	if err != nil {
		return err
	}

	release, err := m.AcquireExclusive(ctx, class)
	if err != nil {
		s.mu.Lock()
		usage := s.usage
		s.forcedUnloads++
		m.teardownLocked(s, "forced")
		s.mu.Unlock()
		slog.Warn("Model unload drain timed out, forcing teardown",
			"class", class, "in_flight", usage, "error", err)
		return nil
	}
	defer release()

	s.mu.Lock()
	m.teardownLocked(s, "drained")
	s.mu.Unlock()
	return nil
}

// teardownLocked frees the instance. Caller holds s.mu.
func (m *Manager) teardownLocked(s *slot, reason string) {
	if !s.loaded {
		return
	}
	if closer, ok := s.instance.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			slog.Error("Model close failed", "class", s.class, "error", err)
		}
	}
	s.instance = nil
	s.loaded = false

	slog.Info("Model unloaded", "class", s.class, "reason", reason)
	metrics.ModelLoaded.WithLabelValues(string(s.class)).Set(0)
	metrics.ModelUnloadsTotal.WithLabelValues(string(s.class), reason).Inc()
}

// Shutdown refuses further acquisitions and unloads every class, each with
// the remaining ctx budget.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.Unlock()

	for _, s := range slots {
		release, err := m.acquireExclusiveSlot(ctx, s)
		if err != nil {
			s.mu.Lock()
			s.forcedUnloads++
			m.teardownLocked(s, "forced")
			s.mu.Unlock()
			slog.Warn("Shutdown drain timed out, forcing teardown", "class", s.class, "error", err)
			continue
		}
		s.mu.Lock()
		m.teardownLocked(s, "drained")
		s.mu.Unlock()
		release()
	}
	return nil
}

// acquireExclusiveSlot is AcquireExclusive on a resolved slot, bypassing the
// closed check (Shutdown runs after the manager is marked closed).
func (m *Manager) acquireExclusiveSlot(ctx context.Context, s *slot) (func(), error) {
	stop := s.broadcastOnDone(ctx)
	defer stop()

	s.mu.Lock()
	for s.exclusive && ctx.Err() == nil {
		s.cond.Wait()
	}
	if ctx.Err() == nil {
		s.exclusive = true
		for s.usage > 0 && ctx.Err() == nil {
			s.cond.Wait()
		}
	}
	if ctx.Err() != nil {
		s.exclusive = false
		s.cond.Broadcast()
		s.mu.Unlock()
		return nil, ctx.Err()
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		s.exclusive = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}, nil
}

// StartIdleSweeper starts a background goroutine that unloads models whose
// last use is older than maxIdle. Returns a stop function.
func (m *Manager) StartIdleSweeper(interval, maxIdle time.Duration) func() {
	ticker := m.clock.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.Chan():
				m.sweepIdle(maxIdle)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

func (m *Manager) sweepIdle(maxIdle time.Duration) {
	m.mu.RLock()
	slots := make([]*slot, 0, len(m.slots))
	for _, s := range m.slots {
		slots = append(slots, s)
	}
	m.mu.RUnlock()

	now := m.clock.Now()
	for _, s := range slots {
		s.mu.Lock()
		idle := s.loaded && s.usage == 0 && !s.exclusive && now.Sub(s.lastUsedAt) > maxIdle
		if idle {
			m.teardownLocked(s, "idle")
		}
		s.mu.Unlock()
	}
}
