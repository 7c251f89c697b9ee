package providers

type BuildkiteEnv struct {
	Detected bool `env:"BUILDKITE"`

	AuthorName  string `env:"BUILDKITE_BUILD_AUTHOR"`
	AuthorEmail string `env:"BUILDKITE_BUILD_AUTHOR_EMAIL"`
	Branch      string `env:"BUILDKITE_BRANCH"`
	Message     string `env:"BUILDKITE_MESSAGE"`
	Commit      string `env:"BUILDKITE_COMMIT"`
	PullRequest string `env:"BUILDKITE_PULL_REQUEST"`
	BuildURL    string `env:"BUILDKITE_BUILD_URL"`
	Label       string `env:"BUILDKITE_LABEL"`
	Pipeline    string `env:"BUILDKITE_PIPELINE_SLUG"`
	Repo        string `env:"BUILDKITE_REPO"`
}

func (cfg BuildkiteEnv) makeProvider() Provider {
	return Provider{
		Name:          "buildkite",
		Actor:         cfg.AuthorEmail,
		AuthorName:    cfg.AuthorName,
		AuthorEmail:   cfg.AuthorEmail,
		BranchName:    cfg.Branch,
		CommitMessage: cfg.Message,
		CommitSha:     cfg.Commit,
		// Buildkite sets BUILDKITE_PULL_REQUEST to "false" outside of pull requests.
		PRNumber:      parsePRNumber(cfg.PullRequest),
		JobURL:        cfg.BuildURL,
		Workflow:      cfg.Pipeline,
		Job:           cfg.Label,
		RepositoryURL: cfg.Repo,
	}
}
