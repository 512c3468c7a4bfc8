package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Config holds the engine-facing subset of scan options. It is read-only
// for the session.
type Config struct {
	Mode              Mode
	Concurrency       int
	Timeout           time.Duration // per-request timeout
	Delay             time.Duration // per-worker pacing between requests
	RateLimit         int           // global requests/sec cap, 0 = unlimited
	Retries           int           // additional attempts on transient failure
	RetryServerErrors bool          // treat 429/5xx as retryable
	Adaptive          bool          // adaptive throttle back-off on 429/errors
	KeepBody          bool          // retain response bodies in Findings
	Quiet             bool
}

// State is the terminal state of a session.
type State int32

const (
	StateRunning State = iota
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	}
	return "running"
}

// Session owns one scan lifecycle: the shared work queue, the worker pool,
// counters, recursion bookkeeping, and cancellation. Probing and acceptance
// are delegated to the injected Prober and Acceptor, keeping the session
// mode-agnostic.
type Session struct {
	cfg       Config
	prober    Prober
	acceptor  Acceptor
	throttle  *Throttler
	limiter   *rate.Limiter
	pauser    *Pauser
	recurser  *recursionController
	preflight *Descriptor
	observer  func(*Outcome)

	queue    *queue
	findings chan Finding
	counters Counters
	cancel   context.CancelFunc
	state    atomic.Int32

	pending atomic.Int64 // queued + in-flight descriptors
	gens    atomic.Int64 // generator goroutines still emitting
	workWG  sync.WaitGroup
	genWG   sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithPauser attaches a cooperative pause gate checked by every worker
// before pulling new work.
func WithPauser(p *Pauser) Option {
	return func(s *Session) { s.pauser = p }
}

// WithRecursion enables directory recursion: accepted directory-like
// findings below maxDepth spawn factory(scope, depth) into the same pool.
func WithRecursion(maxDepth int, factory func(scope string, depth int) Generator) Option {
	return func(s *Session) { s.recurser = newRecursionController(maxDepth, factory) }
}

// WithPreflight probes d before starting the pool; a terminal error fails
// the whole session instead of surfacing as one diagnostic among thousands.
func WithPreflight(d Descriptor) Option {
	return func(s *Session) { s.preflight = &d }
}

// WithObserver calls fn for every processed outcome, accepted or not, from
// worker goroutines. Used for resume bookkeeping; fn must be cheap and
// safe for concurrent use.
func WithObserver(fn func(*Outcome)) Option {
	return func(s *Session) { s.observer = fn }
}

// New creates a session. The acceptor may be nil, which accepts everything.
func New(cfg Config, prober Prober, acceptor Acceptor, opts ...Option) *Session {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if acceptor == nil {
		acceptor = AcceptAll{}
	}
	s := &Session{
		cfg:      cfg,
		prober:   prober,
		acceptor: acceptor,
		throttle: NewThrottler(cfg.Delay, cfg.Adaptive, cfg.Quiet),
		queue:    newQueue(),
		findings: make(chan Finding, cfg.Concurrency*2),
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Counters exposes the session's live counters for progress reporting.
func (s *Session) Counters() *Counters { return &s.counters }

// State returns the terminal state, or StateRunning while the finding
// stream is still open.
func (s *Session) State() State { return State(s.state.Load()) }

// Cancel stops the session: workers stop pulling new descriptors and the
// finding stream closes once in-flight probes finish or hit their timeout.
func (s *Session) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Run seeds the queue from the generator, starts the worker pool, and
// returns the finding stream. The channel closes when the queue drains and
// no probe is in flight, or when the session is cancelled; inspect State
// afterwards. A failed preflight returns an error and no stream.
func (s *Session) Run(ctx context.Context, seed Generator) (<-chan Finding, error) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.preflight != nil {
		out := s.attempt(ctx, *s.preflight)
		if out.Err != nil {
			s.cancel()
			s.state.Store(int32(StateFailed))
			return nil, fmt.Errorf("target unreachable: %w", out.Err)
		}
	}

	if s.recurser != nil {
		s.recurser.markVisited(seedScope(seed))
	}
	s.spawn(ctx, seed)

	for i := 0; i < s.cfg.Concurrency; i++ {
		s.workWG.Add(1)
		go s.worker(ctx)
	}

	// Discard queued work the moment the context is cancelled so the pool
	// drains within one in-flight request's timeout window.
	go func() {
		<-ctx.Done()
		s.queue.close(true)
	}()

	go func() {
		s.genWG.Wait()
		s.workWG.Wait()
		if ctx.Err() != nil {
			s.state.Store(int32(StateCancelled))
		} else {
			s.state.Store(int32(StateCompleted))
		}
		s.cancel()
		close(s.findings)
	}()

	return s.findings, nil
}

// spawn runs a generator goroutine feeding the shared queue. Drain
// detection: the queue closes once no generator is active and no
// descriptor is queued or in flight.
func (s *Session) spawn(ctx context.Context, g Generator) {
	s.gens.Add(1)
	s.genWG.Add(1)
	go func() {
		defer s.genWG.Done()
		g.Generate(ctx, func(d Descriptor) bool {
			s.pending.Add(1)
			if !s.queue.push(d) {
				s.pending.Add(-1)
				return false
			}
			s.counters.Queued.Add(1)
			return true
		})
		if s.gens.Add(-1) == 0 && s.pending.Load() == 0 {
			s.queue.close(false)
		}
	}()
}

// finishJob marks one descriptor fully processed. Must run after any
// recursion spawn the descriptor triggered, so the drain check cannot fire
// between a finding and its expansion.
func (s *Session) finishJob() {
	if s.pending.Add(-1) == 0 && s.gens.Load() == 0 {
		s.queue.close(false)
	}
}

// Skip counts a wordlist entry rejected by a generator; exposed so
// generators can be wired with Skip callbacks onto session counters.
func (s *Session) Skip(string) { s.counters.Skipped.Add(1) }

func (s *Session) worker(ctx context.Context) {
	defer s.workWG.Done()
	for {
		d, ok := s.queue.pop()
		if !ok {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if s.pauser != nil {
			s.pauser.Wait()
		}
		if delay := s.throttle.Delay(); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}

		s.counters.InFlight.Add(1)
		out := s.attempt(ctx, d)
		s.counters.InFlight.Add(-1)
		s.counters.Completed.Add(1)

		s.dispatch(ctx, out)
		if s.observer != nil {
			s.observer(out)
		}
		s.finishJob()
	}
}

// attempt probes one descriptor with the retry policy: transient failures
// (transport errors and, when configured, 429/5xx) are retried with the
// current throttle delay as backoff; retries collapse into one outcome.
func (s *Session) attempt(ctx context.Context, d Descriptor) *Outcome {
	var last *Outcome
	var lastErr error

	attempts := s.cfg.Retries + 1
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if backoff := s.throttle.Delay(); backoff > 0 {
				select {
				case <-time.After(backoff):
				case <-ctx.Done():
				}
			}
			if ctx.Err() != nil {
				break
			}
		}

		pctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
		out, err := s.prober.Probe(pctx, d)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				lastErr = err
				break
			}
			s.throttle.RecordError()
			lastErr = err
			continue
		}

		s.throttle.RecordStatus(out.StatusCode)
		last = out
		if s.cfg.RetryServerErrors && retryableStatus(out.StatusCode) && i < attempts-1 {
			continue
		}
		return out
	}

	if last != nil {
		return last
	}
	return &Outcome{Descriptor: d, Err: lastErr}
}

func (s *Session) dispatch(ctx context.Context, out *Outcome) {
	if out.Err != nil {
		s.counters.Errors.Add(1)
		return
	}

	unverified := s.acceptor.Prepare(ctx, out.Descriptor.Scope)
	ok, _ := s.acceptor.Accept(out)
	if !ok {
		s.counters.Filtered.Add(1)
		return
	}
	s.counters.Accepted.Add(1)

	// Recursion strictly after acceptance, before the job is released.
	if s.recurser != nil && ctx.Err() == nil {
		if g := s.recurser.consider(out); g != nil {
			s.spawn(ctx, g)
		}
	}

	f := Finding{Outcome: *out, Unverified: unverified}
	if !s.cfg.KeepBody {
		f.Outcome.Body = nil
	}
	select {
	case s.findings <- f:
	case <-ctx.Done():
	}
}

func retryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code < 600)
}

// seedScope extracts the visited-set key for the initial generation.
func seedScope(g Generator) string {
	switch gen := g.(type) {
	case *DirGenerator:
		return gen.Scope
	case *DNSGenerator:
		return gen.Zone
	case *VHostGenerator:
		return gen.Domain
	case *FuzzGenerator:
		return gen.Template.URL
	}
	return ""
}
