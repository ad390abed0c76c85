package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gimlet-io/runstatus/cmd/runstatus/config"
	"github.com/gimlet-io/runstatus/pkg/model"
	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/rvflash/elapsed"
	"github.com/urfave/cli/v2"
)

var renderCmd = cli.Command{
	Name:  "render",
	Usage: "Renders the status message of a saved jobs API response",
	UsageText: `runstatus render \
     --jobs jobs.json \
     --now 2024-01-01T12:00:00Z`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "jobs",
			Aliases:  []string{"f"},
			Usage:    "path of a workflow jobs API response, or a JSON list of jobs",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "now",
			Usage: "the RFC3339 format time to render the durations at, defaults to the current time",
		},
		&cli.StringFlag{
			Name:  "queued",
			Usage: "longest queue time seen by earlier polls, eg.: 1m5s",
		},
	},
	Action: render,
}

func render(c *cli.Context) error {
	cfg, err := config.Environ()
	if err != nil {
		return fmt.Errorf("invalid configuration: %s", err)
	}
	initLogging(cfg)

	jobs, err := readJobs(c.String("jobs"))
	if err != nil {
		return err
	}

	now := time.Now()
	if c.String("now") != "" {
		now, err = time.Parse(time.RFC3339, c.String("now"))
		if err != nil {
			return fmt.Errorf("cannot parse --now: %s", err)
		}
	}

	var maxQueued int64
	if c.String("queued") != "" {
		maxQueued, err = status.ParseDuration(c.String("queued"))
		if err != nil {
			return fmt.Errorf("cannot parse --queued: %s", err)
		}
	}

	var selfID int64
	if cfg.StepIdentifier != "" {
		self, err := status.FindSelfJob(jobs, cfg.StepIdentifier)
		if err == nil {
			selfID = self.ID
		}
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	s := builder.Build(jobs, selfID, now, float64(maxQueued))
	printSnapshot(c.App.Writer, s)
	return nil
}

func readJobs(path string) ([]model.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read jobs: %s", err)
	}

	var list []model.Job
	if json.Unmarshal(data, &list) == nil {
		return list, nil
	}

	var response model.Jobs
	err = json.Unmarshal(data, &response)
	if err != nil {
		return nil, fmt.Errorf("cannot parse jobs: %s", err)
	}
	return response.Jobs, nil
}

func printSnapshot(w io.Writer, s status.Snapshot) {
	headline := color.New(color.Bold).SprintFunc()
	switch s.Color {
	case model.Good:
		headline = color.New(color.FgGreen, color.Bold).SprintFunc()
	case model.Danger:
		headline = color.New(color.FgRed, color.Bold).SprintFunc()
	case model.Warning:
		headline = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintln(w, headline(s.Description))
	for _, line := range s.ActiveLines {
		fmt.Fprintf(w, "  %s\n", yellow(line))
	}
	for _, line := range s.CompletedLines {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintf(w, "%s %s\n", gray("Logs:"), s.LogURL)
	if !s.OverallStartedAt.IsZero() {
		fmt.Fprintln(w, gray(fmt.Sprintf("run started %s", elapsed.Time(s.OverallStartedAt))))
	}
}
