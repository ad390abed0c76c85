package monitor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/enescakir/emoji"
	"github.com/gimlet-io/runstatus/pkg/model"
	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker = "[runstatus]"

var start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type scriptedLister struct {
	responses [][]model.Job
	err       error
	calls     int
}

func (l *scriptedLister) ListJobs(_ context.Context, runID int64, attempt int64) ([]model.Job, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	i := l.calls - 1
	if i >= len(l.responses) {
		i = len(l.responses) - 1
	}
	return l.responses[i], nil
}

type sentSnapshot struct {
	snapshot  status.Snapshot
	republish bool
}

type recordingSender struct {
	sent   []sentSnapshot
	onSend func(n int)
	err    error
}

func (r *recordingSender) Send(_ context.Context, s status.Snapshot, republish bool) error {
	r.sent = append(r.sent, sentSnapshot{snapshot: s, republish: republish})
	if r.onSend != nil {
		r.onSend(len(r.sent))
	}
	return r.err
}

func selfJob() model.Job {
	return model.Job{
		ID:        1,
		Name:      "notify",
		Status:    model.InProgress,
		StartedAt: start.Add(-20 * time.Minute),
		Steps:     []model.Step{{Name: "Report " + marker, Status: model.InProgress}},
	}
}

func deployJob(jobStatus, conclusion string) model.Job {
	job := model.Job{
		ID:         2,
		Name:       "deploy",
		Status:     jobStatus,
		Conclusion: conclusion,
		StartedAt:  start.Add(-5 * time.Minute),
		HTMLURL:    "https://github.com/acme/app/actions/runs/7/job/2",
		Steps: []model.Step{
			{Name: "Deploy", Status: model.InProgress, StartedAt: start.Add(-time.Minute)},
		},
	}
	if jobStatus == model.Completed {
		job.Steps[0].Status = model.Completed
		job.Steps[0].Conclusion = conclusion
		job.Steps[0].CompletedAt = start
	}
	return job
}

func newMonitor(lister JobLister, sender Sender, clock clockwork.Clock) *Monitor {
	return &Monitor{
		Lister:   lister,
		Notifier: sender,
		Builder: &status.Builder{
			ImportantSteps:    []string{"Deploy"},
			DeployDescription: "app",
			Verbs:             status.NewVerbForms("deploy", ""),
			RunURL:            "https://github.com/acme/app/actions/runs/7",
		},
		Clock:             clock,
		RunID:             7,
		Attempt:           1,
		StepIdentifier:    marker,
		RepublishLongJobs: true,
		LongJobDuration:   30 * time.Minute,
	}
}

func runAsync(m *Monitor, ctx context.Context) chan error {
	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()
	return done
}

func TestNoImportantJobs(t *testing.T) {
	lister := &scriptedLister{responses: [][]model.Job{{selfJob()}}}
	sender := &recordingSender{}

	err := newMonitor(lister, sender, clockwork.NewFakeClockAt(start)).Run(context.Background())

	assert.Nil(t, err)
	assert.Equal(t, 1, lister.calls)
	assert.Empty(t, sender.sent)
}

func TestRunUntilCompleted(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	lister := &scriptedLister{responses: [][]model.Job{
		{selfJob(), deployJob(model.InProgress, "")},
		{selfJob(), deployJob(model.Completed, model.Success)},
	}}
	sender := &recordingSender{}

	done := runAsync(newMonitor(lister, sender, clock), context.Background())
	clock.BlockUntil(1)
	clock.Advance(10 * time.Second)
	err := <-done

	require.Nil(t, err)
	assert.Equal(t, 2, lister.calls)
	require.Len(t, sender.sent, 2)

	running := sender.sent[0].snapshot
	assert.Equal(t, model.Warning, running.Color)
	assert.Equal(t, []string{":hammer_and_wrench: Deploy running for 1m0s..."}, running.ActiveLines)

	completed := sender.sent[1].snapshot
	assert.True(t, completed.AllJobsCompleted)
	assert.Equal(t, model.Good, completed.Color)
	assert.Empty(t, completed.ActiveLines)
	assert.Equal(t, []string{":hammer_and_wrench: Deploy completed in 1m0s"}, completed.CompletedLines)
	assert.False(t, sender.sent[1].republish, "the run is shorter than the long job duration")
}

func TestRepublishLongRuns(t *testing.T) {
	jobs := [][]model.Job{{selfJob(), deployJob(model.Completed, model.Success)}}

	sender := &recordingSender{}
	m := newMonitor(&scriptedLister{responses: jobs}, sender, clockwork.NewFakeClockAt(start))
	m.LongJobDuration = 10 * time.Minute
	require.Nil(t, m.Run(context.Background()))
	require.Len(t, sender.sent, 1)
	assert.True(t, sender.sent[0].republish)

	sender = &recordingSender{}
	m = newMonitor(&scriptedLister{responses: jobs}, sender, clockwork.NewFakeClockAt(start))
	m.LongJobDuration = 10 * time.Minute
	m.RepublishLongJobs = false
	require.Nil(t, m.Run(context.Background()))
	assert.False(t, sender.sent[0].republish)
}

func TestSelfJobRetryThenFatal(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	lister := &scriptedLister{responses: [][]model.Job{{deployJob(model.InProgress, "")}}}
	sender := &recordingSender{}

	done := runAsync(newMonitor(lister, sender, clock), context.Background())
	for i := 0; i < 30; i++ {
		clock.BlockUntil(1)
		clock.Advance(2 * time.Second)
	}
	err := <-done

	assert.ErrorContains(t, err, "could not find job with step identifier "+marker)
	assert.Equal(t, 31, lister.calls, "one initial fetch and thirty retries two seconds apart")
	require.Len(t, sender.sent, 1)

	failure := sender.sent[0].snapshot
	assert.Equal(t, model.Danger, failure.Color)
	assert.Empty(t, failure.ActiveLines)
	require.Len(t, failure.CompletedLines, 1)
	assert.Contains(t, failure.CompletedLines[0], "Status reporter failed: could not find job with step identifier")
}

func TestSelfJobFoundAfterRetry(t *testing.T) {
	clock := clockwork.NewFakeClockAt(start)
	lister := &scriptedLister{responses: [][]model.Job{
		{deployJob(model.Completed, model.Success)},
		{selfJob(), deployJob(model.Completed, model.Success)},
	}}
	sender := &recordingSender{}

	done := runAsync(newMonitor(lister, sender, clock), context.Background())
	clock.BlockUntil(1)
	clock.Advance(2 * time.Second)
	err := <-done

	assert.Nil(t, err)
	assert.Equal(t, 2, lister.calls)
	require.Len(t, sender.sent, 1)
	assert.True(t, sender.sent[0].snapshot.AllSucceeded)
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lister := &scriptedLister{responses: [][]model.Job{{selfJob(), deployJob(model.InProgress, "")}}}
	sender := &recordingSender{onSend: func(n int) {
		if n == 1 {
			cancel()
		}
	}}

	err := newMonitor(lister, sender, clockwork.NewFakeClockAt(start)).Run(ctx)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 1, lister.calls)
	require.Len(t, sender.sent, 2)

	cancelled := sender.sent[1].snapshot
	assert.Empty(t, cancelled.ActiveLines)
	assert.Contains(t, cancelled.CompletedLines, fmt.Sprintf("%v Deploy was cancelled", emoji.Warning))
	assert.Equal(t, model.Danger, cancelled.Color)
	assert.Equal(t, "https://github.com/acme/app/actions/runs/7/job/2", cancelled.LogURL)
	assert.False(t, sender.sent[1].republish)
}

func TestCancelledBeforeFirstPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &scriptedLister{responses: [][]model.Job{{selfJob()}}}
	sender := &recordingSender{}

	err := newMonitor(lister, sender, clockwork.NewFakeClockAt(start)).Run(ctx)

	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, lister.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{fmt.Sprintf("%v Deploy was cancelled", emoji.Warning)}, sender.sent[0].snapshot.CompletedLines)
	assert.Equal(t, "https://github.com/acme/app/actions/runs/7", sender.sent[0].snapshot.LogURL)
}

func TestFetchErrorIsReported(t *testing.T) {
	boom := errors.New("API rate limit exceeded")
	lister := &scriptedLister{err: boom}
	sender := &recordingSender{}

	err := newMonitor(lister, sender, clockwork.NewFakeClockAt(start)).Run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, lister.calls, "only a missing status job is retried")
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{fmt.Sprintf("%v Status reporter failed: API rate limit exceeded", emoji.Warning)}, sender.sent[0].snapshot.CompletedLines)
}

func TestSendErrorIsNotHidden(t *testing.T) {
	lister := &scriptedLister{responses: [][]model.Job{{selfJob(), deployJob(model.InProgress, "")}}}
	sender := &recordingSender{err: errors.New("channel_not_found")}

	err := newMonitor(lister, sender, clockwork.NewFakeClockAt(start)).Run(context.Background())

	assert.ErrorContains(t, err, "channel_not_found")
	assert.ErrorContains(t, err, "could not report failure")
	assert.Len(t, sender.sent, 2)
}
