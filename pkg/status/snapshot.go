package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/enescakir/emoji"
	"github.com/gimlet-io/runstatus/pkg/model"
)

const defaultStepEmoji = ":hammer_and_wrench:"

// queuedSuffixThreshold is the queue time in seconds above which
// finished runs mention how long they were queued
const queuedSuffixThreshold = 10

// Snapshot is the rendering state derived from a single poll of the run
type Snapshot struct {
	Description    string
	ActiveLines    []string
	CompletedLines []string
	LogURL         string
	Color          model.Color

	AllJobsCompleted bool
	AllSucceeded     bool

	OverallStartedAt   time.Time
	ImportantStartedAt time.Time
	MaxQueuedSeconds   float64
}

// Builder turns job listings into snapshots
type Builder struct {
	ImportantSteps    []string
	StepEmojis        map[string]string
	LogJobName        string
	DeployDescription string
	Verbs             VerbForms

	// RunURL is linked when no job is known yet
	RunURL string
}

// Build classifies the jobs of a run attempt and renders them.
// maxQueuedSeconds is the longest queue time seen by earlier polls.
func (b *Builder) Build(jobs []model.Job, selfID int64, now time.Time, maxQueuedSeconds float64) Snapshot {
	important := ImportantJobs(jobs, selfID)

	s := Snapshot{
		ActiveLines:        []string{},
		CompletedLines:     []string{},
		LogURL:             b.logURL(important),
		OverallStartedAt:   earliestStart(jobs),
		ImportantStartedAt: earliestStart(important),
		MaxQueuedSeconds:   maxQueuedSeconds,
		AllJobsCompleted:   true,
		AllSucceeded:       true,
	}

	anyStarted := false
	pending := []model.Job{}
	for _, job := range important {
		b.foldSteps(&s, job, now)

		if job.Status != model.Completed {
			s.AllJobsCompleted = false
		}
		if !job.Succeeded() {
			s.AllSucceeded = false
		}
		if job.Started() {
			anyStarted = true
		}
		if job.Status == model.Pending {
			pending = append(pending, job)
		}
	}

	if s.AllJobsCompleted {
		if s.AllSucceeded {
			s.Color = model.Good
		} else {
			s.Color = model.Danger
		}
		// the jobs API may still list steps in progress for a completed job
		s.ActiveLines = []string{}
	} else if len(pending) > 0 {
		for _, job := range pending {
			queued := Seconds(job.QueuedSince(), now)
			if queued > s.MaxQueuedSeconds {
				s.MaxQueuedSeconds = queued
			}
			s.ActiveLines = append(s.ActiveLines,
				fmt.Sprintf("%s %s queued for %s...", ClockEmoji(queued), job.Name, FormatDuration(queued)))
		}
	} else if anyStarted {
		s.Color = model.Warning
	}

	s.Description = b.description(s.AllJobsCompleted, s.AllSucceeded, s.ImportantStartedAt, now, s.MaxQueuedSeconds)

	return s
}

// Failure renders a failed run that keeps the completed steps of the last
// successful poll and adds the reason of the failure
func (b *Builder) Failure(last *Snapshot, reason string, now time.Time, maxQueuedSeconds float64) Snapshot {
	s := Snapshot{
		ActiveLines:      []string{},
		CompletedLines:   []string{},
		LogURL:           b.RunURL,
		Color:            model.Danger,
		AllJobsCompleted: true,
		MaxQueuedSeconds: maxQueuedSeconds,
	}

	if last != nil {
		s.CompletedLines = append(s.CompletedLines, last.CompletedLines...)
		s.OverallStartedAt = last.OverallStartedAt
		s.ImportantStartedAt = last.ImportantStartedAt
		if last.LogURL != "" {
			s.LogURL = last.LogURL
		}
		if last.MaxQueuedSeconds > s.MaxQueuedSeconds {
			s.MaxQueuedSeconds = last.MaxQueuedSeconds
		}
	}
	s.CompletedLines = append(s.CompletedLines, reason)
	s.Description = b.description(true, false, s.ImportantStartedAt, now, s.MaxQueuedSeconds)

	return s
}

// Text is the plain text version of the snapshot, used as notification fallback
func (s Snapshot) Text() string {
	var sb strings.Builder
	sb.WriteString(s.Description + "\n")
	if len(s.ActiveLines) > 0 {
		sb.WriteString(strings.Join(s.ActiveLines, "\n") + "\n")
	}
	if len(s.CompletedLines) > 0 {
		sb.WriteString(strings.Join(s.CompletedLines, "\n") + "\n")
	}
	return sb.String()
}

func (b *Builder) foldSteps(s *Snapshot, job model.Job, now time.Time) {
	for _, step := range job.Steps {
		switch step.Status {
		case model.Completed:
			switch step.Conclusion {
			case model.Success:
				if !b.importantStep(step.Name) {
					continue
				}
				s.CompletedLines = append(s.CompletedLines,
					fmt.Sprintf("%s %s completed in %s", b.stepEmoji(step.Name), step.Name, stepDuration(step, now)))
			case model.Skipped:
			default:
				s.CompletedLines = append(s.CompletedLines,
					fmt.Sprintf("%s failed after %s", step.Name, stepDuration(step, now)))
			}
		case model.InProgress:
			s.ActiveLines = append(s.ActiveLines,
				fmt.Sprintf("%s %s running for %s...", b.stepEmoji(step.Name), step.Name, stepDuration(step, now)))
		}
	}
}

func (b *Builder) description(completed, success bool, importantStartedAt, now time.Time, maxQueuedSeconds float64) string {
	if !completed {
		return fmt.Sprintf("%s %s %s", emoji.HourglassNotDone, titleCase(b.Verbs.Continuous), b.DeployDescription)
	}

	var description string
	if success {
		description = fmt.Sprintf("%s %s %s", emoji.CheckMarkButton, titleCase(b.Verbs.Past), b.DeployDescription)
	} else {
		description = fmt.Sprintf("%s Failed to %s %s", emoji.CrossMark, b.Verbs.Base, b.DeployDescription)
	}

	if !importantStartedAt.IsZero() {
		preposition := "in"
		if !success {
			preposition = "after"
		}
		description += fmt.Sprintf(" %s %s", preposition, FormatDuration(Seconds(importantStartedAt, now)))
		if maxQueuedSeconds > queuedSuffixThreshold {
			description += fmt.Sprintf(" (queued %s)", FormatDuration(maxQueuedSeconds))
		}
	}

	return description
}

// logURL prefers the configured log job, then running jobs, then failed ones
func (b *Builder) logURL(important []model.Job) string {
	if len(important) == 0 {
		return b.RunURL
	}

	if b.LogJobName != "" {
		for _, job := range important {
			if strings.Contains(job.Name, b.LogJobName) {
				return job.HTMLURL
			}
		}
	}
	for _, job := range important {
		if job.Status == model.InProgress {
			return job.HTMLURL
		}
	}
	for _, job := range important {
		if job.Conclusion == model.Failure {
			return job.HTMLURL
		}
	}

	return important[0].HTMLURL
}

func (b *Builder) importantStep(name string) bool {
	for _, s := range b.ImportantSteps {
		if s == name {
			return true
		}
	}
	return false
}

func (b *Builder) stepEmoji(name string) string {
	if e, ok := b.StepEmojis[EmojiKey(name)]; ok && e != "" {
		return e
	}
	return defaultStepEmoji
}

// EmojiKey is the lookup key of a step name in the emoji override table
func EmojiKey(stepName string) string {
	return strings.ToUpper(strings.ReplaceAll(stepName, " ", "_"))
}

func stepDuration(step model.Step, now time.Time) string {
	completedAt := step.CompletedAt
	if completedAt.IsZero() {
		completedAt = now
	}
	return FormatDuration(Seconds(step.StartedAt, completedAt))
}

func earliestStart(jobs []model.Job) time.Time {
	var earliest time.Time
	for _, job := range jobs {
		if job.StartedAt.IsZero() {
			continue
		}
		if earliest.IsZero() || job.StartedAt.Before(earliest) {
			earliest = job.StartedAt
		}
	}
	return earliest
}
