package shopstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

const DefaultDebounce = 240 * time.Millisecond

// SyncStatus is a point-in-time view of one collection's remote reconciliation.
type SyncStatus struct {
	Authenticated bool
	Loaded        bool
	Pending       bool
	InFlight      bool
	Pushes        int
	LastErr       error
	LastSyncAt    time.Time
}

type Options struct {
	Scheduler        Scheduler
	Debounce         time.Duration
	OnSessionExpired func()
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Scheduler == nil {
		o.Scheduler = RealScheduler{}
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// syncHooks binds a syncer to the collection it reconciles. merge folds the remote
// snapshot into local state and reports whether the result differs from remote.
type syncHooks[T any] struct {
	fetch    func(ctx context.Context) (T, error)
	push     func(ctx context.Context, snapshot T) error
	merge    func(remote T) bool
	snapshot func() T
}

// syncer owns the load-once, debounce, single-in-flight lifecycle for one collection.
type syncer[T any] struct {
	name  string
	hooks syncHooks[T]
	opts  Options

	mu            sync.Mutex
	ctx           context.Context
	authenticated bool
	loaded        bool
	loading       bool
	generation    uint64
	timer         Timer
	pending       bool
	inFlight      bool
	dirty         bool
	done          chan struct{}
	loadDone      chan struct{}
	status        SyncStatus
}

func newSyncer[T any](name string, hooks syncHooks[T], opts Options) *syncer[T] {
	return &syncer[T]{
		name:  name,
		hooks: hooks,
		opts:  opts.withDefaults(),
		ctx:   context.Background(),
	}
}

func (s *syncer[T]) SetAuthenticated(ctx context.Context, authenticated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !authenticated {
		if s.authenticated {
			s.generation++
		}
		s.authenticated = false
		s.loaded = false
		s.loading = false
		s.pending = false
		s.dirty = false
		s.stopTimerLocked()
		return
	}

	if !s.authenticated {
		s.authenticated = true
		s.generation++
		s.ctx = context.WithoutCancel(ctx)
	}
	if s.loaded || s.loading {
		return
	}

	s.loading = true
	gen := s.generation
	loadDone := make(chan struct{})
	s.loadDone = loadDone
	s.opts.Scheduler.AfterFunc(0, func() {
		defer close(loadDone)
		s.load(gen)
	})
}

func (s *syncer[T]) load(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.authenticated {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	log := logger.FromCtx(ctx).With(zap.String("layer", "shopstate"), zap.String("collection", s.name))

	remote, err := s.hooks.fetch(ctx)

	s.mu.Lock()
	if gen != s.generation || !s.authenticated {
		// signed out while the fetch was running
		s.mu.Unlock()
		return
	}

	needsPush := false
	if err != nil {
		s.status.LastErr = err
		log.Warn("remote load failed", zap.Error(err))
	} else {
		needsPush = s.hooks.merge(remote)
		s.status.LastErr = nil
		log.Debug("remote snapshot merged", zap.Bool("needs_push", needsPush))
	}
	s.loading = false
	s.loaded = true
	if needsPush {
		s.scheduleLocked()
	}
	s.mu.Unlock()

	if errors.Is(err, ErrSessionExpired) {
		s.sessionExpired()
	}
}

// Touch records a local mutation; once loaded it (re)starts the debounce window.
func (s *syncer[T]) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authenticated || !s.loaded {
		return
	}
	s.scheduleLocked()
}

func (s *syncer[T]) scheduleLocked() {
	s.stopTimerLocked()
	s.pending = true
	gen := s.generation
	s.timer = s.opts.Scheduler.AfterFunc(s.opts.Debounce, func() { s.fire(gen) })
}

func (s *syncer[T]) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *syncer[T]) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.authenticated || !s.loaded || !s.pending {
		// signed out, or a Flush already took this window
		s.mu.Unlock()
		return
	}
	s.timer = nil
	if s.inFlight {
		s.dirty = true
		s.mu.Unlock()
		return
	}
	s.pending = false
	done := s.beginPushLocked()
	ctx := s.ctx
	s.mu.Unlock()

	s.pushLoop(ctx, gen, done)
}

// beginPushLocked takes the pending window: from here until done closes, the collection
// reports a push in flight.
func (s *syncer[T]) beginPushLocked() chan struct{} {
	s.inFlight = true
	s.done = make(chan struct{})
	return s.done
}

// pushLoop pushes the latest snapshot, then repeats once more for every mutation that
// landed while a push was in flight. The caller must have called beginPushLocked.
func (s *syncer[T]) pushLoop(ctx context.Context, gen uint64, done chan struct{}) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "shopstate"), zap.String("collection", s.name))

	expired := false
	for {
		err := s.hooks.push(ctx, s.hooks.snapshot())

		s.mu.Lock()
		s.status.Pushes++
		if err != nil {
			s.status.LastErr = err
			log.Warn("remote push failed", zap.Error(err))
			expired = expired || errors.Is(err, ErrSessionExpired)
		} else {
			s.status.LastErr = nil
			s.status.LastSyncAt = s.opts.Now()
		}

		again := s.dirty && gen == s.generation && s.authenticated
		s.dirty = false
		if again {
			s.stopTimerLocked()
			s.pending = false
			s.mu.Unlock()
			continue
		}
		s.inFlight = false
		s.done = nil
		s.mu.Unlock()
		break
	}
	close(done)

	if expired {
		s.sessionExpired()
	}
}

// Flush waits for an initial load, pushes any pending snapshot now and waits for
// in-flight work to finish.
func (s *syncer[T]) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.loading {
			loadDone := s.loadDone
			s.mu.Unlock()
			select {
			case <-loadDone:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if s.inFlight {
			done := s.done
			s.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !s.pending || !s.authenticated || !s.loaded {
			err := s.status.LastErr
			s.mu.Unlock()
			return err
		}

		s.stopTimerLocked()
		s.pending = false
		gen := s.generation
		done := s.beginPushLocked()
		pushCtx := s.ctx
		s.mu.Unlock()

		s.pushLoop(pushCtx, gen, done)
	}
}

func (s *syncer[T]) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Authenticated = s.authenticated
	st.Loaded = s.loaded
	st.Pending = s.pending
	st.InFlight = s.inFlight
	return st
}

func (s *syncer[T]) sessionExpired() {
	if s.opts.OnSessionExpired != nil {
		s.opts.OnSessionExpired()
	}
}
