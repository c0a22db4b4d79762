package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pscheid92/suggestbox/internal/adapter/metrics"
	"github.com/pscheid92/suggestbox/internal/domain"
	"github.com/pscheid92/suggestbox/internal/platform/correlation"
	"github.com/pscheid92/suggestbox/internal/poll"
)

type Trigger string

const (
	TriggerTargeted Trigger = "targeted"
	TriggerFrequent Trigger = "frequent"
	TriggerFull     Trigger = "full"
	TriggerManual   Trigger = "manual"
)

const (
	leaderReleaseTimeout = 5 * time.Second
	manualSweepTimeout   = 15 * time.Minute
)

type SchedulerConfig struct {
	FrequentInterval time.Duration
	FullInterval     time.Duration
	// Concurrency bounds how many polls of one sweep are reconciled at once.
	Concurrency int
	// RateLimit is the number of polls started per second. Zero means unlimited.
	RateLimit float64
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Trigger   Trigger
	Polls     int
	Finalized int
	Missing   int
	Failed    int
}

// Scheduler reconciles stored polls against their chat messages. Periodic
// sweeps run from Run; targeted and manual sweeps are invoked directly and may
// overlap with them. Overlaps are safe because finalization is a single
// conditional store write.
type Scheduler struct {
	store    domain.PollStore
	messages domain.MessageSurface
	users    domain.UserDirectory
	leader   domain.LeaderElector
	metrics  *metrics.SweepMetrics
	clock    clockwork.Clock
	cfg      SchedulerConfig
	limiter  *rate.Limiter

	manualGroup singleflight.Group
	stopCh      chan struct{}
	stopOnce    sync.Once
	running     atomic.Bool
	runDone     chan struct{}
}

// NewScheduler creates the reconciliation scheduler. leader may be nil, in
// which case this instance always runs periodic sweeps.
func NewScheduler(
	store domain.PollStore,
	messages domain.MessageSurface,
	users domain.UserDirectory,
	leader domain.LeaderElector,
	m *metrics.SweepMetrics,
	clock clockwork.Clock,
	cfg SchedulerConfig,
) *Scheduler {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &Scheduler{
		store:    store,
		messages: messages,
		users:    users,
		leader:   leader,
		metrics:  m,
		clock:    clock,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, max(1, cfg.Concurrency)),
		stopCh:   make(chan struct{}),
		runDone:  make(chan struct{}),
	}
}

// Run performs a catch-up full sweep and then drives the frequent and full
// sweeps until ctx is cancelled or Stop is called. Run must be called at most
// once.
func (s *Scheduler) Run(ctx context.Context) {
	s.running.Store(true)
	defer close(s.runDone)

	frequent := s.clock.NewTicker(s.cfg.FrequentInterval)
	defer frequent.Stop()
	full := s.clock.NewTicker(s.cfg.FullInterval)
	defer full.Stop()
	defer s.releaseLeadership()

	s.runPeriodic(ctx, TriggerFull)

	for {
		select {
		case <-frequent.Chan():
			s.runPeriodic(ctx, TriggerFrequent)
		case <-full.Chan():
			s.runPeriodic(ctx, TriggerFull)
		case <-s.stopCh:
			slog.Info("Scheduler stopped")
			return
		case <-ctx.Done():
			slog.Info("Scheduler context cancelled")
			return
		}
	}
}

// Stop ends the Run loop and waits for the sweep in progress, if any.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.running.Load() {
		<-s.runDone
	}
}

// SweepPoll reconciles a single poll, used right after creation.
func (s *Scheduler) SweepPoll(ctx context.Context, pollID string) (SweepReport, error) {
	p, err := s.store.Get(ctx, pollID)
	if err != nil {
		return SweepReport{Trigger: TriggerTargeted}, fmt.Errorf("failed to load poll %s: %w", pollID, err)
	}
	return s.Sweep(ctx, TriggerTargeted, []domain.Poll{*p}), nil
}

// ForceRefresh runs an operator-requested full sweep regardless of
// leadership. Concurrent requests share one sweep.
func (s *Scheduler) ForceRefresh(ctx context.Context) (SweepReport, error) {
	v, err, _ := s.manualGroup.Do(string(TriggerManual), func() (any, error) {
		// The sweep is shared by every waiting caller, so one caller going
		// away must not abort it halfway.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), manualSweepTimeout)
		defer cancel()

		polls, err := s.store.GetAll(ctx)
		if err != nil {
			return SweepReport{Trigger: TriggerManual}, fmt.Errorf("failed to list polls: %w", err)
		}
		return s.Sweep(ctx, TriggerManual, polls), nil
	})
	return v.(SweepReport), err
}

func (s *Scheduler) runPeriodic(ctx context.Context, trigger Trigger) {
	if !s.isLeader(ctx) {
		return
	}

	var (
		polls []domain.Poll
		err   error
	)
	if trigger == TriggerFrequent {
		polls, err = s.store.GetOpen(ctx)
	} else {
		polls, err = s.store.GetAll(ctx)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load polls for sweep", "trigger", trigger, "error", err)
		return
	}

	if trigger == TriggerFrequent {
		s.metrics.OpenPolls.Set(float64(len(polls)))
	}
	s.Sweep(ctx, trigger, polls)
}

func (s *Scheduler) isLeader(ctx context.Context) bool {
	if s.leader == nil {
		return true
	}

	ok, err := s.leader.TryAcquire(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Leader check failed, skipping sweep", "error", err)
		return false
	}
	if !ok {
		slog.DebugContext(ctx, "Not the leader, skipping sweep")
	}
	return ok
}

func (s *Scheduler) releaseLeadership() {
	if s.leader == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), leaderReleaseTimeout)
	defer cancel()

	if err := s.leader.Release(ctx); err != nil && !errors.Is(err, domain.ErrNotLeader) {
		slog.Warn("Failed to release sweep leadership", "error", err)
	}
}

// Sweep reconciles the given polls. Each poll is independent: a failure is
// logged and counted, and the sweep moves on.
func (s *Scheduler) Sweep(ctx context.Context, trigger Trigger, polls []domain.Poll) SweepReport {
	if _, ok := correlation.ID(ctx); !ok {
		ctx = correlation.WithID(ctx, correlation.NewID())
	}
	ctx = correlation.WithTrigger(ctx, string(trigger))
	start := s.clock.Now()

	var finalized, missing, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, p := range polls {
		g.Go(func() error {
			if err := s.limiter.Wait(ctx); err != nil {
				failed.Add(1)
				return nil
			}

			result := s.reconcile(ctx, p)
			s.metrics.PollsProcessed.WithLabelValues(string(result)).Inc()
			switch result {
			case resultFinalized:
				finalized.Add(1)
			case resultMissing:
				missing.Add(1)
			case resultFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := SweepReport{
		Trigger:   trigger,
		Polls:     len(polls),
		Finalized: int(finalized.Load()),
		Missing:   int(missing.Load()),
		Failed:    int(failed.Load()),
	}

	s.metrics.SweepsTotal.WithLabelValues(string(trigger)).Inc()
	s.metrics.SweepDuration.WithLabelValues(string(trigger)).Observe(s.clock.Since(start).Seconds())

	slog.DebugContext(ctx, "Sweep finished",
		"polls", report.Polls,
		"finalized", report.Finalized,
		"missing", report.Missing,
		"failed", report.Failed)
	return report
}

type pollResult string

const (
	resultRendered  pollResult = "rendered"
	resultFinalized pollResult = "finalized"
	resultMissing   pollResult = "missing"
	resultFailed    pollResult = "failed"
)

func (s *Scheduler) reconcile(ctx context.Context, p domain.Poll) pollResult {
	author := s.lookupAuthor(ctx, p.AuthorID)

	msg, err := s.messages.FetchMessage(ctx, p.ID)
	if errors.Is(err, domain.ErrMessageNotFound) {
		return s.finalizeMissing(ctx, p)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to fetch poll message", "poll_id", p.ID, "error", err)
		return resultFailed
	}

	current, decision := poll.Evaluate(p, s.clock.Now(), msg.Reactions)
	if decision.ClosedNow {
		err := s.store.SetFinalTally(ctx, p.ID, decision.Tally)
		switch {
		case err == nil:
			s.metrics.PollsFinalized.WithLabelValues("deadline").Inc()
			slog.InfoContext(ctx, "Poll closed",
				"poll_id", p.ID,
				"yes", decision.Tally.Yes,
				"no", decision.Tally.No,
				"outcome", decision.Outcome.String())
		case errors.Is(err, domain.ErrAlreadyFinalized):
			// another sweep won the race; show what it stored
			stored, err := s.store.Get(ctx, p.ID)
			if err != nil || stored.FinalTally == nil {
				slog.WarnContext(ctx, "Failed to reload finalized poll", "poll_id", p.ID, "error", err)
				return resultFailed
			}
			current, decision = *stored, poll.ClosedDecision(*stored.FinalTally)
		default:
			slog.ErrorContext(ctx, "Failed to persist final tally", "poll_id", p.ID, "error", err)
			return resultFailed
		}
	}

	editErr := s.messages.EditMessage(ctx, p.ID, poll.Render(current, decision, author))
	if editErr != nil {
		slog.WarnContext(ctx, "Failed to update poll message", "poll_id", p.ID, "error", editErr)
	}

	if decision.ClosedNow {
		if err := s.messages.ClearReactions(ctx, p.ID); err != nil {
			slog.WarnContext(ctx, "Failed to clear reactions on closed poll", "poll_id", p.ID, "error", err)
		}
		return resultFinalized
	}

	// Closed in an earlier sweep but votes are still on the message: the
	// clear back then failed, or members reacted since.
	if !p.IsOpen() && poll.Tally(msg.Reactions).Total() > 0 {
		if err := s.messages.ClearReactions(ctx, p.ID); err != nil {
			slog.WarnContext(ctx, "Failed to clear leftover votes on closed poll", "poll_id", p.ID, "error", err)
			return resultFailed
		}
		slog.InfoContext(ctx, "Cleared leftover votes on closed poll", "poll_id", p.ID)
	}
	if editErr != nil {
		return resultFailed
	}
	return resultRendered
}

// finalizeMissing closes a poll whose message is gone so later sweeps stop
// retrying it. The stored tally wins if there is one.
func (s *Scheduler) finalizeMissing(ctx context.Context, p domain.Poll) pollResult {
	slog.ErrorContext(ctx, "Poll message no longer exists", "poll_id", p.ID)

	if !p.IsOpen() {
		return resultMissing
	}

	err := s.store.SetFinalTally(ctx, p.ID, domain.Tally{})
	switch {
	case err == nil:
		s.metrics.PollsFinalized.WithLabelValues("message_missing").Inc()
		return resultMissing
	case errors.Is(err, domain.ErrAlreadyFinalized):
		return resultMissing
	default:
		slog.ErrorContext(ctx, "Failed to finalize poll with missing message", "poll_id", p.ID, "error", err)
		return resultFailed
	}
}

func (s *Scheduler) lookupAuthor(ctx context.Context, authorID string) *domain.UserInfo {
	user, err := s.users.FetchUser(ctx, authorID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			slog.WarnContext(ctx, "Author lookup failed", "author_id", authorID, "error", err)
		}
		return nil
	}
	return user
}
