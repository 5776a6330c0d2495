package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fd1az/deal-finder/business/planning/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/logger"
)

// Runner performs one planning run.
type Runner interface {
	Run(ctx context.Context) (*domain.Opportunity, error)
}

var _ Runner = (*Framework)(nil)

// Scheduler triggers runs on a cron schedule. Overlapping triggers are
// skipped while a run is still in progress.
type Scheduler struct {
	runner Runner
	spec   string
	cron   *cron.Cron
	logger logger.LoggerInterface

	mu      sync.Mutex
	cancel  context.CancelFunc
	entry   cron.EntryID
	manual  sync.WaitGroup
	stopped bool
}

// NewScheduler parses spec ("@every 30m", "0 */2 * * *") and creates a
// stopped Scheduler.
func NewScheduler(runner Runner, spec string, log logger.LoggerInterface) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("invalid schedule "+spec))
	}

	return &Scheduler{
		runner: runner,
		spec:   spec,
		cron:   cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: log,
	}, nil
}

// Start registers the job and starts the cron loop. Runs inherit ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	id, err := s.cron.AddFunc(s.spec, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.Run(ctx); err != nil {
			s.logger.Error(ctx, "scheduled run failed", "error", err)
		}
	})
	if err != nil {
		cancel()
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err),
			apperror.WithContext("schedule "+s.spec))
	}

	s.mu.Lock()
	s.cancel = cancel
	s.entry = id
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info(ctx, "scheduler started", "schedule", s.spec)
	return nil
}

// Next returns the time of the next scheduled run, zero before Start.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	id := s.entry
	s.mu.Unlock()
	if id == 0 {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Trigger starts a run now, outside the schedule. It goes through the same
// skip-if-running guard as scheduled runs, so it is a no-op while one is in
// progress. It reports false before Start or after Stop.
func (s *Scheduler) Trigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == 0 || s.stopped {
		return false
	}

	job := s.cron.Entry(s.entry).WrappedJob
	s.manual.Add(1)
	go func() {
		defer s.manual.Done()
		job.Run()
	}()
	return true
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.manual.Wait()
	s.logger.Info(context.Background(), "scheduler stopped")
}
