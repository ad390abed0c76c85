package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/enescakir/emoji"
	"github.com/gimlet-io/runstatus/pkg/model"
	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/jonboulle/clockwork"
	"github.com/rvflash/elapsed"
	"github.com/sirupsen/logrus"
)

const (
	defaultPollInterval      = 10 * time.Second
	defaultDiscoveryInterval = 2 * time.Second
	defaultDiscoveryGrace    = 60 * time.Second
)

// ErrCancelled is returned by Run when the context got cancelled before all jobs completed
var ErrCancelled = errors.New("deploy was cancelled")

// JobLister returns the jobs of a workflow run attempt
type JobLister interface {
	ListJobs(ctx context.Context, runID int64, attempt int64) ([]model.Job, error)
}

// Sender keeps the status message of the run up to date
type Sender interface {
	Send(ctx context.Context, s status.Snapshot, republish bool) error
}

// Monitor polls the jobs of a run attempt and reports their status until
// every job other than the one running the monitor completes
type Monitor struct {
	Lister   JobLister
	Notifier Sender
	Builder  *status.Builder
	Clock    clockwork.Clock

	RunID          int64
	Attempt        int64
	StepIdentifier string

	RepublishLongJobs bool
	LongJobDuration   time.Duration

	PollInterval         time.Duration
	DiscoveryInterval    time.Duration
	DiscoveryGracePeriod time.Duration

	startedAt        time.Time
	last             *status.Snapshot
	maxQueuedSeconds float64
}

// Run polls until all important jobs complete. Cancelling ctx reports the run
// as cancelled and returns ErrCancelled. Any other failure is reported in the
// status message too, then returned.
func (m *Monitor) Run(ctx context.Context) error {
	m.defaults()
	m.startedAt = m.Clock.Now()
	m.last = nil
	m.maxQueuedSeconds = 0

	for {
		if ctx.Err() != nil {
			return m.cancelled(ctx)
		}

		done, err := m.tick(ctx)
		if err == nil && done {
			return nil
		}
		if ctx.Err() != nil {
			return m.cancelled(ctx)
		}
		if err != nil {
			return m.fail(ctx, err)
		}

		select {
		case <-ctx.Done():
			return m.cancelled(ctx)
		case <-m.Clock.After(m.PollInterval):
		}
	}
}

// tick fetches and reports the state of the run once. It returns true when
// there is nothing more to report
func (m *Monitor) tick(ctx context.Context) (bool, error) {
	start := m.Clock.Now()
	jobs, self, err := m.discover(ctx)
	fetchDuration.Observe(m.Clock.Since(start).Seconds())
	if err != nil || ctx.Err() != nil {
		return false, err
	}

	if len(status.ImportantJobs(jobs, self.ID)) == 0 {
		logrus.Info("no jobs to report on besides the status job")
		return true, nil
	}

	now := m.Clock.Now()
	s := m.Builder.Build(jobs, self.ID, now, m.maxQueuedSeconds)
	m.last = &s
	m.maxQueuedSeconds = s.MaxQueuedSeconds
	ticks.Inc()

	logrus.Infof("----------\n%s", s.Text())
	if !s.OverallStartedAt.IsZero() {
		logrus.Debugf("run started %s", elapsed.Time(s.OverallStartedAt))
	}

	republish := m.RepublishLongJobs && s.AllJobsCompleted &&
		status.Seconds(s.OverallStartedAt, now) > m.LongJobDuration.Seconds()

	err = m.Notifier.Send(context.WithoutCancel(ctx), s, republish)
	if err != nil {
		return false, err
	}

	return s.AllJobsCompleted, nil
}

// discover fetches the jobs and locates the one running the monitor. Freshly
// started jobs may be missing from the listing, so a missing status job is
// retried until the discovery grace period passes.
func (m *Monitor) discover(ctx context.Context) ([]model.Job, model.Job, error) {
	var jobs []model.Job
	var self model.Job

	operation := func() error {
		var err error
		jobs, err = m.Lister.ListJobs(context.WithoutCancel(ctx), m.RunID, m.Attempt)
		if err != nil {
			return backoff.Permanent(err)
		}
		logrus.Tracef("jobs = %+v", jobs)

		self, err = status.FindSelfJob(jobs, m.StepIdentifier)
		return err
	}
	notify := func(err error, next time.Duration) {
		logrus.Infof("couldn't find status job. Trying again in %s", next)
		logrus.Debugf("jobs = %+v", jobs)
	}

	policy := backoff.WithContext(&graceBackOff{
		clock:    m.Clock,
		start:    m.startedAt,
		grace:    m.DiscoveryGracePeriod,
		interval: m.DiscoveryInterval,
	}, ctx)

	err := backoff.RetryNotifyWithTimer(operation, policy, notify, &clockTimer{clock: m.Clock})
	if errors.Is(err, status.ErrSelfJobNotFound) {
		return nil, model.Job{}, fmt.Errorf("could not find job with step identifier %s", m.StepIdentifier)
	}

	return jobs, self, err
}

func (m *Monitor) cancelled(ctx context.Context) error {
	logrus.Warn("cancelled, reporting the run as failed")

	line := fmt.Sprintf("%v Deploy was cancelled", emoji.Warning)
	if err := m.report(ctx, line); err != nil {
		return errors.Join(ErrCancelled, err)
	}
	return ErrCancelled
}

func (m *Monitor) fail(ctx context.Context, cause error) error {
	logrus.Errorf("status reporter failed: %s", cause)

	line := fmt.Sprintf("%v Status reporter failed: %s", emoji.Warning, cause)
	if err := m.report(ctx, line); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

// report sends a failed snapshot that keeps the completed lines of the last poll
func (m *Monitor) report(ctx context.Context, reason string) error {
	s := m.Builder.Failure(m.last, reason, m.Clock.Now(), m.maxQueuedSeconds)
	logrus.Infof("----------\n%s", s.Text())

	err := m.Notifier.Send(context.WithoutCancel(ctx), s, false)
	if err != nil {
		logrus.Errorf("could not report failure: %s", err)
		return fmt.Errorf("could not report failure: %w", err)
	}
	return nil
}

func (m *Monitor) defaults() {
	if m.Clock == nil {
		m.Clock = clockwork.NewRealClock()
	}
	if m.PollInterval == 0 {
		m.PollInterval = defaultPollInterval
	}
	if m.DiscoveryInterval == 0 {
		m.DiscoveryInterval = defaultDiscoveryInterval
	}
	if m.DiscoveryGracePeriod == 0 {
		m.DiscoveryGracePeriod = defaultDiscoveryGrace
	}
}
