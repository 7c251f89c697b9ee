package providers

const nullProviderName = "unsupported"

// GenericEnv holds explicit overrides. They win over anything a CI platform reports.
type GenericEnv struct {
	Branch        string `env:"FLAKEGUARD_BRANCH"`
	Sha           string `env:"FLAKEGUARD_COMMIT_SHA"`
	JobURL        string `env:"FLAKEGUARD_JOB_URL"`
	RepositoryURL string `env:"FLAKEGUARD_REPO_URL"`
}

func nullProvider() Provider {
	return Provider{Name: nullProviderName}
}

func MergeGeneric(into Provider, from GenericEnv) Provider {
	into.BranchName = firstNonempty(from.Branch, into.BranchName)
	into.CommitSha = firstNonempty(from.Sha, into.CommitSha)
	into.JobURL = firstNonempty(from.JobURL, into.JobURL)
	into.RepositoryURL = firstNonempty(from.RepositoryURL, into.RepositoryURL)
	return into
}
