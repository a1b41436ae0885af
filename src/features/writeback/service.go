package writeback

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/contre95/soulwrite/src/features/organizing"
	"github.com/contre95/soulwrite/src/features/readonly"
	"github.com/contre95/soulwrite/src/music"
)

const (
	defaultRetryDelay = 30 * time.Second
	defaultThrottle   = 10 * time.Millisecond
)

// State is the lifecycle phase of the write-back worker.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDraining State = "draining"
)

// Organizer renames and moves the file of a track.
type Organizer interface {
	Organize(ctx context.Context, track *music.Track) (organizing.Result, error)
}

// DeletionQueue is the part of the recycling queue the service controls.
type DeletionQueue interface {
	Len() int
	Clear()
}

// Options configures the write-back service.
type Options struct {
	RetryDelay time.Duration
	// Throttle is the minimum pause between two tracks. Negative disables it.
	Throttle  time.Duration
	Suspended bool
}

// Status is a point in time view of the service.
type Status struct {
	State          State `json:"state"`
	Suspended      bool  `json:"suspended"`
	Stopped        bool  `json:"stopped"`
	Queued         int   `json:"queued"`
	Deferred       int   `json:"deferred"`
	Deletions      int   `json:"deletions"`
	RetryScheduled bool  `json:"retry_scheduled"`
}

// Service owns the mutation queue and runs at most one background drain.
type Service struct {
	queue    *Queue
	deferred *Queue

	library    music.Library
	organizer  Organizer
	tags       music.TagWriter
	fs         music.FileSystem
	resolver   *readonly.Resolver
	deletions  DeletionQueue
	dispatcher music.Dispatcher
	limiter    *rate.Limiter
	retryDelay time.Duration

	running   atomic.Bool
	suspended atomic.Bool
	stop      atomic.Bool
	closed    atomic.Bool
	state     atomic.Value // State

	doneMu sync.Mutex
	done   chan struct{}

	retryMu   sync.Mutex
	retryStop func() bool

	ctx    context.Context
	cancel context.CancelFunc
	now    func() time.Time
}

// NewService creates the write-back service. Nothing runs until tracks are enqueued.
func NewService(
	library music.Library,
	organizer Organizer,
	tags music.TagWriter,
	fs music.FileSystem,
	resolver *readonly.Resolver,
	deletions DeletionQueue,
	dispatcher music.Dispatcher,
	opts Options,
) *Service {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	} else if opts.Throttle == 0 {
		limit = rate.Every(defaultThrottle)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		queue:      NewQueue(),
		deferred:   NewQueue(),
		library:    library,
		organizer:  organizer,
		tags:       tags,
		fs:         fs,
		resolver:   resolver,
		deletions:  deletions,
		dispatcher: dispatcher,
		limiter:    rate.NewLimiter(limit, 1),
		retryDelay: opts.RetryDelay,
		ctx:        ctx,
		cancel:     cancel,
		now:        time.Now,
	}
	s.state.Store(StateIdle)
	s.suspended.Store(opts.Suspended)
	return s
}

// Enqueue queues tracks for write-back and starts a drain unless writing is
// suspended or stopped. Tracks already queued are not added twice.
func (s *Service) Enqueue(tracks ...*music.Track) int {
	for _, t := range tracks {
		if t != nil {
			s.deferred.Remove(t.ID)
		}
	}
	added := s.queue.Add(tracks...)
	if added > 0 {
		slog.Debug("Tracks queued for write-back", "added", added, "queued", s.queue.Len())
	}
	s.kick()
	return added
}

// EnqueuePending queues every track the library still has pending changes for.
func (s *Service) EnqueuePending(ctx context.Context) (int, error) {
	tracks, err := s.library.PendingTracks(ctx)
	if err != nil {
		return 0, err
	}
	added := s.Enqueue(tracks...)
	if added > 0 {
		slog.Info("Resuming pending write-back", "tracks", added)
	}
	return added, nil
}

func (s *Service) kick() {
	if s.suspended.Load() || s.stop.Load() || s.queue.Len() == 0 {
		return
	}
	s.launch()
}

// Start launches a drain if none is running. It also lifts a previous RequestStop.
func (s *Service) Start() {
	s.stop.Store(false)
	if s.suspended.Load() {
		slog.Debug("Write-back is suspended, not starting")
		return
	}
	s.launch()
}

func (s *Service) launch() {
	if s.closed.Load() || !s.running.CompareAndSwap(false, true) {
		return
	}
	done := make(chan struct{})
	s.doneMu.Lock()
	s.done = done
	s.doneMu.Unlock()
	s.dispatcher.Go("writeback-drain", func() { s.run(done) })
}

// Suspend pauses or resumes writing to disk. While suspended the worker stops
// after its current track and Enqueue only queues. Resuming starts a drain at
// once when tracks are pending, including those waiting on the retry timer.
func (s *Service) Suspend(suspended bool) {
	if s.suspended.Swap(suspended) == suspended {
		return
	}
	if suspended {
		slog.Info("Write-back suspended")
		return
	}
	slog.Info("Write-back resumed")
	s.cancelRetry()
	s.promote()
	s.kick()
}

// Suspended reports whether writing is suspended.
func (s *Service) Suspended() bool {
	return s.suspended.Load()
}

// RequestStop asks the running drain to exit after its current track.
func (s *Service) RequestStop() {
	s.stop.Store(true)
	s.cancelRetry()
}

// Stopped reports whether a stop was requested and not lifted by Start.
func (s *Service) Stopped() bool {
	return s.stop.Load()
}

// Clear stops the worker and empties the mutation and deletion queues. A
// track already being written still completes; the drain then finds nothing
// left and exits. Later edits start a new drain as usual.
func (s *Service) Clear() {
	s.cancelRetry()
	s.queue.Clear()
	s.deferred.Clear()
	if s.deletions != nil {
		s.deletions.Clear()
	}
	slog.Info("Write-back queues cleared")
}

// Wait blocks until the running drain exits or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	s.doneMu.Lock()
	done := s.done
	s.doneMu.Unlock()
	if done == nil || !s.running.Load() {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the service for good and unblocks a pending read-only prompt.
func (s *Service) Close() {
	s.closed.Store(true)
	s.RequestStop()
	s.cancel()
}

// State returns the lifecycle phase.
func (s *Service) State() State {
	return s.state.Load().(State)
}

// Status returns a snapshot of the service.
func (s *Service) Status() Status {
	st := Status{
		State:     s.State(),
		Suspended: s.suspended.Load(),
		Stopped:   s.stop.Load(),
		Queued:    s.queue.Len(),
		Deferred:  s.deferred.Len(),
	}
	if s.deletions != nil {
		st.Deletions = s.deletions.Len()
	}
	s.retryMu.Lock()
	st.RetryScheduled = s.retryStop != nil
	s.retryMu.Unlock()
	return st
}

// Queued returns the tracks waiting in the queue.
func (s *Service) Queued() []*music.Track {
	return s.queue.Snapshot()
}

// QueueLen and DeferredLen feed the metrics gauges.
func (s *Service) QueueLen() int    { return s.queue.Len() }
func (s *Service) DeferredLen() int { return s.deferred.Len() }

func (s *Service) scheduleRetry() {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	if s.retryStop != nil {
		return
	}
	slog.Info("Retrying failed write-backs later", "tracks", s.deferred.Len(), "delay", s.retryDelay)
	s.retryStop = s.dispatcher.AfterFunc("writeback-retry", s.retryDelay, func() {
		s.retryMu.Lock()
		s.retryStop = nil
		s.retryMu.Unlock()
		s.promote()
		s.kick()
	})
}

func (s *Service) cancelRetry() {
	s.retryMu.Lock()
	defer s.retryMu.Unlock()
	if s.retryStop != nil {
		s.retryStop()
		s.retryStop = nil
	}
}

// promote moves deferred tracks back to the queue.
func (s *Service) promote() {
	if tracks := s.deferred.Take(); len(tracks) > 0 {
		s.queue.Add(tracks...)
	}
}
