package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	c := &Config{
		Github: Github{
			Repository: "acme/app",
			RunID:      7,
			RefName:    "main",
			SHA:        "0a1b2c3d4e5f60718293",
		},
	}
	defaults(c)

	assert.Equal(t, "https://api.github.com", c.Github.APIURL)
	assert.Equal(t, int64(1), c.Github.RunAttempt)
	assert.Equal(t, "slack", c.Notifications.Provider)
	assert.Equal(t, 600, c.LongJobDuration)
	assert.True(t, c.RepublishLongJobs())
	assert.Equal(t, "app from `main` (0a1b2c3)", c.DeployDescription)
	assert.Equal(t, "https://github.com/acme/app/actions/runs/7", c.RunURL())
	assert.Equal(t, "deploying", c.VerbForms().Continuous)

	c = &Config{DeployDescription: "the docs site", Verb: "Publish"}
	defaults(c)
	assert.Equal(t, "the docs site", c.DeployDescription)
	assert.Equal(t, "published", c.VerbForms().Past)
}

func TestRepublishLongJobsFlag(t *testing.T) {
	c := &Config{RepublishLongJobsString: "false"}
	defaults(c)
	assert.False(t, c.RepublishLongJobs())

	c = &Config{RepublishLongJobsString: "not a boolean"}
	defaults(c)
	assert.True(t, c.RepublishLongJobs(), "should default to true in case of parse errors")
}

func TestImportantStepList(t *testing.T) {
	c := &Config{ImportantSteps: "Build, Deploy ,,Run tests"}
	assert.Equal(t, []string{"Build", "Deploy", "Run tests"}, c.ImportantStepList())

	c = &Config{}
	assert.Empty(t, c.ImportantStepList())
}

func TestParseStepEmojis(t *testing.T) {
	environ := []string{
		"PATH=/usr/bin",
		"STATUS_BUILD_EMOJI=:package:",
		"STATUS_DEPLOY_EMOJI=:ship:",
		"STATUS__EMOJI=:x:",
		"STATUS_EMPTY_EMOJI=",
	}

	emojis, err := parseStepEmojis("Run tests=:test_tube:, Deploy = :rocket:", environ)
	assert.Nil(t, err)
	assert.Equal(t, map[string]string{
		"BUILD":     ":package:",
		"DEPLOY":    ":rocket:",
		"RUN_TESTS": ":test_tube:",
	}, emojis)

	_, err = parseStepEmojis("Deploy", nil)
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	c := &Config{}
	defaults(c)
	err := c.Validate()
	assert.EqualError(t, err, "missing configuration: GITHUB_TOKEN, GITHUB_REPOSITORY, GITHUB_RUN_ID, STEP_IDENTIFIER, NOTIFICATIONS_TOKEN, NOTIFICATIONS_CHANNEL")

	c = &Config{
		Github:         Github{Token: "ghp", Repository: "acme/app", RunID: 7},
		StepIdentifier: "[runstatus]",
		Notifications:  Notifications{Token: "xoxb", Channel: "C123"},
	}
	defaults(c)
	assert.Nil(t, c.Validate())

	c.Notifications.Provider = "teams"
	assert.EqualError(t, c.Validate(), "unknown notifications provider: teams")
}
