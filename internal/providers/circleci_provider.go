package providers

import (
	"fmt"
	"path"
	"strings"
)

type CircleCIEnv struct {
	Detected bool `env:"CIRCLECI"`

	Username      string `env:"CIRCLE_USERNAME"`
	Branch        string `env:"CIRCLE_BRANCH"`
	Sha1          string `env:"CIRCLE_SHA1"`
	BuildNum      string `env:"CIRCLE_BUILD_NUM"`
	BuildURL      string `env:"CIRCLE_BUILD_URL"`
	Job           string `env:"CIRCLE_JOB"`
	PullRequest   string `env:"CIRCLE_PULL_REQUEST"`
	RepositoryURL string `env:"CIRCLE_REPOSITORY_URL"`
	Workflow      string `env:"CIRCLE_WORKFLOW_ID"`
}

func (cfg CircleCIEnv) makeProvider() Provider {
	provider := Provider{
		Name:          "circleci",
		Actor:         cfg.Username,
		BranchName:    cfg.Branch,
		CommitSha:     cfg.Sha1,
		JobURL:        cfg.BuildURL,
		Job:           cfg.Job,
		Workflow:      cfg.Workflow,
		RepositoryURL: cfg.RepositoryURL,
	}

	if cfg.Job != "" && cfg.BuildNum != "" {
		provider.Title = fmt.Sprintf("%s (%s)", cfg.Job, cfg.BuildNum)
	}

	// CIRCLE_PULL_REQUEST is the URL of the pull request, its last segment is the number.
	if cfg.PullRequest != "" {
		provider.PRNumber = parsePRNumber(path.Base(strings.TrimSuffix(cfg.PullRequest, "/")))
	}

	return provider
}
