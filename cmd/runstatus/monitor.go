package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gimlet-io/runstatus/cmd/runstatus/config"
	"github.com/gimlet-io/runstatus/pkg/github"
	"github.com/gimlet-io/runstatus/pkg/monitor"
	"github.com/gimlet-io/runstatus/pkg/notifications"
	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var monitorCmd = cli.Command{
	Name:  "monitor",
	Usage: "Reports the jobs of the current run attempt until they complete",
	UsageText: `GITHUB_TOKEN=ghp_xxx \
     GITHUB_REPOSITORY=mycompany/myapp \
     GITHUB_RUN_ID=123456789 \
     STEP_IDENTIFIER="[runstatus]" \
     NOTIFICATIONS_TOKEN=xoxb-xxx \
     NOTIFICATIONS_CHANNEL=C0123456789 \
     runstatus monitor`,
	Action: monitorAction,
}

func monitorAction(c *cli.Context) error {
	cfg, err := config.Environ()
	if err != nil {
		return fmt.Errorf("invalid configuration: %s", err)
	}
	initLogging(cfg)

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		fmt.Println(cfg.String())
	}

	err = cfg.Validate()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveMetrics(cfg.MetricsAddr)

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}

	lister, err := github.NewClient(ctx, cfg.Github.Token, cfg.Github.APIURL, cfg.Github.Repository, cfg.Github.Debug)
	if err != nil {
		return err
	}

	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}
	notifier := notifications.NewNotifier(transport, cfg.Notifications.Channel, cfg.Notifications.MessageID)

	m := &monitor.Monitor{
		Lister:            lister,
		Notifier:          notifier,
		Builder:           builder,
		RunID:             cfg.Github.RunID,
		Attempt:           cfg.Github.RunAttempt,
		StepIdentifier:    cfg.StepIdentifier,
		RepublishLongJobs: cfg.RepublishLongJobs(),
		LongJobDuration:   time.Duration(cfg.LongJobDuration) * time.Second,
	}

	logrus.Infof("monitoring run %d attempt %d of %s", cfg.Github.RunID, cfg.Github.RunAttempt, cfg.Github.Repository)
	err = m.Run(ctx)
	if ref := notifier.State().Ref; !ref.Empty() {
		logrus.Infof("status message %s in channel %s", ref.ID, ref.Channel)
	}
	return err
}

func newBuilder(cfg *config.Config) (*status.Builder, error) {
	emojis, err := cfg.StepEmojis()
	if err != nil {
		return nil, err
	}

	return &status.Builder{
		ImportantSteps:    cfg.ImportantStepList(),
		StepEmojis:        emojis,
		LogJobName:        cfg.LogJobName,
		DeployDescription: cfg.DeployDescription,
		Verbs:             cfg.VerbForms(),
		RunURL:            cfg.RunURL(),
	}, nil
}

func newTransport(cfg *config.Config) (notifications.Transport, error) {
	switch cfg.Notifications.Provider {
	case "discord":
		return notifications.NewDiscordProvider(cfg.Notifications.Token)
	default:
		return notifications.NewSlackProvider(cfg.Notifications.Token), nil
	}
}
