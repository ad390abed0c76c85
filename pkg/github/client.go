package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gimlet-io/runstatus/pkg/model"
	"github.com/google/go-github/v37/github"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const defaultAPIURL = "https://api.github.com"

const perPage = 100

// Client lists the jobs of a workflow run attempt
type Client struct {
	client *github.Client
	owner  string
	repo   string
	debug  bool
}

// NewClient returns a client for the owner/repo repository. apiURL points
// to GitHub Enterprise Server installations, empty means github.com
func NewClient(ctx context.Context, token, apiURL, repository string, debug bool) (*Client, error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("cannot determine repo owner and name from %q", repository)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return newClient(tc, apiURL, parts[0], parts[1], debug)
}

func newClient(httpClient *http.Client, apiURL, owner, repo string, debug bool) (*Client, error) {
	client := github.NewClient(httpClient)
	if apiURL != "" && strings.TrimSuffix(apiURL, "/") != defaultAPIURL {
		var err error
		client, err = github.NewEnterpriseClient(apiURL, apiURL, httpClient)
		if err != nil {
			return nil, errors.Wrap(err, "invalid GitHub API url")
		}
	}

	return &Client{
		client: client,
		owner:  owner,
		repo:   repo,
		debug:  debug,
	}, nil
}

// ListJobs returns every job of the given run attempt, following pagination
func (c *Client) ListJobs(ctx context.Context, runID int64, attempt int64) ([]model.Job, error) {
	jobs := []model.Job{}

	page := 1
	for {
		u := fmt.Sprintf("repos/%v/%v/actions/runs/%v/attempts/%v/jobs?per_page=%d&page=%d",
			c.owner, c.repo, runID, attempt, perPage, page)
		req, err := c.client.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create jobs request")
		}

		var result model.Jobs
		resp, err := c.client.Do(ctx, req, &result)
		if err != nil {
			return nil, errors.Wrapf(err, "could not list jobs of run %d attempt %d", runID, attempt)
		}

		if c.debug {
			logrus.Debugf("jobs page %d: %+v", page, result.Jobs)
		}

		jobs = append(jobs, result.Jobs...)
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage
	}

	return jobs, nil
}
