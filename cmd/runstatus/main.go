package main

import (
	"fmt"
	"os"

	"github.com/enescakir/emoji"
	"github.com/gimlet-io/runstatus/cmd/runstatus/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	err := godotenv.Load(".env")
	if err != nil {
		logrus.Debugf("could not load .env file, relying on env vars")
	}

	app := &cli.App{
		Name:                 "runstatus",
		Usage:                "keeps a chat message up to date with the status of a GitHub Actions run",
		EnableBashCompletion: true,
		Action:               monitorAction,
		Commands: []*cli.Command{
			&monitorCmd,
			&renderCmd,
		},
	}
	err = app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", emoji.CrossMark, err.Error())
		os.Exit(1)
	}
}

func initLogging(c *config.Config) {
	if c.Logging.Debug || c.Github.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if c.Logging.Trace {
		logrus.SetLevel(logrus.TraceLevel)
	}
	if c.Logging.Text {
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   c.Logging.Color,
			DisableColors: !c.Logging.Color,
		})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{
			PrettyPrint: c.Logging.Pretty,
		})
	}
}
