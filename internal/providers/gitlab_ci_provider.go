package providers

import "strings"

type GitLabEnv struct {
	// see https://docs.gitlab.com/ee/ci/variables/predefined_variables.html
	Detected bool `env:"GITLAB_CI"`

	JobName  string `env:"CI_JOB_NAME"`
	JobStage string `env:"CI_JOB_STAGE"`
	JobURL   string `env:"CI_JOB_URL"`

	ProjectURL string `env:"CI_PROJECT_URL"`

	CommitSHA     string `env:"CI_COMMIT_SHA"`
	CommitAuthor  string `env:"CI_COMMIT_AUTHOR"`
	CommitRefName string `env:"CI_COMMIT_REF_NAME"`
	CommitBranch  string `env:"CI_COMMIT_BRANCH"`
	CommitMessage string `env:"CI_COMMIT_MESSAGE"`

	MergeRequestIID          string `env:"CI_MERGE_REQUEST_IID"`
	MergeRequestSourceBranch string `env:"CI_MERGE_REQUEST_SOURCE_BRANCH_NAME"`
	MergeRequestTitle        string `env:"CI_MERGE_REQUEST_TITLE"`
}

func (cfg GitLabEnv) makeProvider() Provider {
	provider := Provider{
		Name:          "gitlabci",
		CommitSha:     cfg.CommitSHA,
		CommitMessage: cfg.CommitMessage,
		PRNumber:      parsePRNumber(cfg.MergeRequestIID),
		Title:         cfg.MergeRequestTitle,
		Workflow:      cfg.JobName,
		Job:           cfg.JobStage,
		JobURL:        cfg.JobURL,
		RepositoryURL: cfg.ProjectURL,
	}

	branch := firstNonempty(cfg.CommitRefName, cfg.CommitBranch, cfg.MergeRequestSourceBranch)
	provider.BranchName = strings.Replace(branch, "remotes/", "", 1)

	// CI_COMMIT_AUTHOR is formatted as `Name <email>`
	if name, email, ok := strings.Cut(cfg.CommitAuthor, "<"); ok {
		provider.AuthorName = strings.TrimSpace(name)
		provider.AuthorEmail = strings.ReplaceAll(email, ">", "")
		provider.Actor = provider.AuthorName
	}

	return provider
}
