// Copyright 2019 Laszlo Fogas
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "time"

// Job and step statuses as reported by the workflow jobs API
const (
	Queued     = "queued"
	Pending    = "pending"
	InProgress = "in_progress"
	Completed  = "completed"
)

// Job and step conclusions. An empty conclusion means the job has not finished yet
const (
	Success   = "success"
	Failure   = "failure"
	Skipped   = "skipped"
	Cancelled = "cancelled"
)

// Job represents a workflow job of a run attempt
type Job struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion"`
	StartedAt  time.Time `json:"started_at"`
	CreatedAt  time.Time `json:"created_at"`
	HTMLURL    string    `json:"html_url"`
	Steps      []Step    `json:"steps"`
}

// Step is a single step of a workflow job
type Step struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Conclusion  string    `json:"conclusion"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Jobs is the page format of the workflow jobs API
type Jobs struct {
	TotalCount int   `json:"total_count"`
	Jobs       []Job `json:"jobs"`
}

// QueuedSince returns the instant the job started waiting for a runner
func (j Job) QueuedSince() time.Time {
	if j.StartedAt.IsZero() {
		return j.CreatedAt
	}
	return j.StartedAt
}

func (j Job) Started() bool {
	return j.Status != Queued && j.Status != Pending
}

func (j Job) Succeeded() bool {
	return j.Conclusion == Success || j.Conclusion == Skipped
}
