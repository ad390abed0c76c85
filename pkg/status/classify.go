package status

import (
	"errors"
	"strings"

	"github.com/gimlet-io/runstatus/pkg/model"
)

// ErrSelfJobNotFound is returned when no job carries the step identifier.
// The jobs API is eventually consistent, the job running the monitor may show up late.
var ErrSelfJobNotFound = errors.New("status job not found")

// FindSelfJob returns the job that has a step whose name contains the marker
func FindSelfJob(jobs []model.Job, marker string) (model.Job, error) {
	for _, job := range jobs {
		for _, step := range job.Steps {
			if strings.Contains(step.Name, marker) {
				return job, nil
			}
		}
	}

	return model.Job{}, ErrSelfJobNotFound
}

// ImportantJobs returns every job of the run except the one running the monitor
func ImportantJobs(jobs []model.Job, selfID int64) []model.Job {
	important := []model.Job{}
	for _, job := range jobs {
		if job.ID != selfID {
			important = append(important, job)
		}
	}
	return important
}
