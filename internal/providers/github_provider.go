package providers

import (
	"fmt"
	"strings"
)

type GitHubEnv struct {
	Detected bool `env:"GITHUB_ACTIONS"`

	Actor string `env:"GITHUB_ACTOR"`

	// branch
	Ref     string `env:"GITHUB_REF"`
	HeadRef string `env:"GITHUB_HEAD_REF"`

	CommitSha string `env:"GITHUB_SHA"`

	// job
	ServerURL  string `env:"GITHUB_SERVER_URL" envDefault:"https://github.com"`
	Repository string `env:"GITHUB_REPOSITORY"`
	RunID      string `env:"GITHUB_RUN_ID"`
	Workflow   string `env:"GITHUB_WORKFLOW"`
	Job        string `env:"GITHUB_JOB"`
}

func (cfg GitHubEnv) makeProvider() Provider {
	provider := Provider{
		Name:      "github",
		Actor:     cfg.Actor,
		CommitSha: cfg.CommitSha,
		Workflow:  cfg.Workflow,
		Job:       cfg.Job,
	}

	if strings.HasPrefix(cfg.Ref, "refs/pull/") {
		parts := strings.SplitN(strings.TrimSuffix(cfg.Ref, "/merge"), "/", 3)
		provider.PRNumber = parsePRNumber(parts[len(parts)-1])
	}

	provider.BranchName = firstNonempty(cfg.HeadRef, cfg.Ref)

	serverURL := strings.TrimSuffix(firstNonempty(cfg.ServerURL, "https://github.com"), "/")
	if cfg.Repository != "" {
		provider.RepositoryURL = fmt.Sprintf("%s/%s", serverURL, cfg.Repository)

		if cfg.RunID != "" {
			provider.JobURL = fmt.Sprintf("%s/actions/runs/%s", provider.RepositoryURL, cfg.RunID)
			if provider.PRNumber > 0 {
				provider.JobURL = fmt.Sprintf("%s?pr=%d", provider.JobURL, provider.PRNumber)
			}
		}
	}

	return provider
}
