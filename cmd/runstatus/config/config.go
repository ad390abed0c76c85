package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gimlet-io/runstatus/pkg/status"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

const legacyEmojiPrefix = "STATUS_"
const legacyEmojiSuffix = "_EMOJI"

// Environ returns the settings from the environment.
func Environ() (*Config, error) {
	cfg := Config{}
	err := envconfig.Process("", &cfg)
	defaults(&cfg)

	return &cfg, err
}

func defaults(c *Config) {
	if c.Github.APIURL == "" {
		c.Github.APIURL = "https://api.github.com"
	}
	if c.Github.ServerURL == "" {
		c.Github.ServerURL = "https://github.com"
	}
	if c.Github.RunAttempt == 0 {
		c.Github.RunAttempt = 1
	}
	if c.Notifications.Provider == "" {
		c.Notifications.Provider = "slack"
	}
	if c.LongJobDuration == 0 {
		c.LongJobDuration = 600
	}
	if c.RepublishLongJobsString == "" {
		c.RepublishLongJobsString = "true"
	}
	if c.Verb == "" {
		c.Verb = "deploy"
	}
	if c.DeployDescription == "" && c.Github.Repository != "" {
		c.DeployDescription = fmt.Sprintf("%s from `%s` (%s)", repoName(c.Github.Repository), c.Github.RefName, shortSHA(c.Github.SHA))
	}
}

// String returns the configuration in string format.
func (c *Config) String() string {
	out, _ := yaml.Marshal(c)
	return string(out)
}

type Config struct {
	Logging       Logging
	Github        Github
	Notifications Notifications

	StepIdentifier    string `envconfig:"STEP_IDENTIFIER"`
	ImportantSteps    string `envconfig:"IMPORTANT_STEPS"`
	StepEmojiList     string `envconfig:"STEP_EMOJIS"`
	LogJobName        string `envconfig:"LOG_JOB_NAME"`
	DeployDescription string `envconfig:"DEPLOY_DESCRIPTION"`
	Verb              string `envconfig:"VERB"`
	VerbPast          string `envconfig:"VERB_PAST"`

	// LongJobDuration is in seconds
	LongJobDuration         int    `envconfig:"LONG_JOB_DURATION"`
	RepublishLongJobsString string `envconfig:"REPUBLISH_LONG_JOBS"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Logging provides the logging configuration.
type Logging struct {
	Debug  bool `envconfig:"DEBUG"`
	Trace  bool `envconfig:"TRACE"`
	Color  bool `envconfig:"LOGS_COLOR"`
	Pretty bool `envconfig:"LOGS_PRETTY"`
	Text   bool `envconfig:"LOGS_TEXT"`
}

type Github struct {
	Token      string `envconfig:"GITHUB_TOKEN" yaml:"-"`
	APIURL     string `envconfig:"GITHUB_API_URL"`
	ServerURL  string `envconfig:"GITHUB_SERVER_URL"`
	Repository string `envconfig:"GITHUB_REPOSITORY"`
	RunID      int64  `envconfig:"GITHUB_RUN_ID"`
	RunAttempt int64  `envconfig:"GITHUB_RUN_ATTEMPT"`
	RefName    string `envconfig:"GITHUB_REF_NAME"`
	SHA        string `envconfig:"GITHUB_SHA"`
	Debug      bool   `envconfig:"GITHUB_DEBUG"`
}

type Notifications struct {
	Provider  string `envconfig:"NOTIFICATIONS_PROVIDER"`
	Token     string `envconfig:"NOTIFICATIONS_TOKEN" yaml:"-"`
	Channel   string `envconfig:"NOTIFICATIONS_CHANNEL"`
	MessageID string `envconfig:"MESSAGE_ID"`
}

// Validate checks the settings the monitor can't run without
func (c *Config) Validate() error {
	missing := []string{}
	if c.Github.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.Github.Repository == "" {
		missing = append(missing, "GITHUB_REPOSITORY")
	}
	if c.Github.RunID == 0 {
		missing = append(missing, "GITHUB_RUN_ID")
	}
	if c.StepIdentifier == "" {
		missing = append(missing, "STEP_IDENTIFIER")
	}
	if c.Notifications.Token == "" {
		missing = append(missing, "NOTIFICATIONS_TOKEN")
	}
	if c.Notifications.Channel == "" {
		missing = append(missing, "NOTIFICATIONS_CHANNEL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %s", strings.Join(missing, ", "))
	}

	switch c.Notifications.Provider {
	case "slack", "discord":
	default:
		return fmt.Errorf("unknown notifications provider: %s", c.Notifications.Provider)
	}

	return nil
}

// RepublishLongJobs defaults to true, also when the value can't be parsed
func (c *Config) RepublishLongJobs() bool {
	republish, err := strconv.ParseBool(c.RepublishLongJobsString)
	if err != nil {
		return true
	}
	return republish
}

func (c *Config) ImportantStepList() []string {
	steps := []string{}
	for _, step := range strings.Split(c.ImportantSteps, ",") {
		step = strings.TrimSpace(step)
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}

// StepEmojis merges the STEP_EMOJIS list with the STATUS_<STEP>_EMOJI variables
func (c *Config) StepEmojis() (map[string]string, error) {
	return parseStepEmojis(c.StepEmojiList, os.Environ())
}

func (c *Config) RunURL() string {
	return fmt.Sprintf("%s/%s/actions/runs/%d",
		strings.TrimSuffix(c.Github.ServerURL, "/"), c.Github.Repository, c.Github.RunID)
}

func (c *Config) VerbForms() status.VerbForms {
	return status.NewVerbForms(c.Verb, c.VerbPast)
}

func parseStepEmojis(list string, environ []string) (map[string]string, error) {
	emojis := map[string]string{}

	for _, kv := range environ {
		key, value, found := strings.Cut(kv, "=")
		if !found || value == "" {
			continue
		}
		if !strings.HasPrefix(key, legacyEmojiPrefix) || !strings.HasSuffix(key, legacyEmojiSuffix) {
			continue
		}
		step := strings.TrimSuffix(strings.TrimPrefix(key, legacyEmojiPrefix), legacyEmojiSuffix)
		if step == "" {
			continue
		}
		emojis[step] = value
	}

	for _, pair := range strings.Split(list, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, glyph, found := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		glyph = strings.TrimSpace(glyph)
		if !found || name == "" || glyph == "" {
			return nil, fmt.Errorf("invalid step emoji %q, expected <step name>=<emoji>", pair)
		}
		emojis[status.EmojiKey(name)] = glyph
	}

	return emojis, nil
}

func repoName(repository string) string {
	if i := strings.LastIndex(repository, "/"); i >= 0 {
		return repository[i+1:]
	}
	return repository
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
