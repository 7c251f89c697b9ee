// Package providers reads what the CI platform knows about the current job from the environment.
package providers

import (
	"strconv"
	"strings"

	"github.com/caarlos0/env/v7"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/textsafety"
)

const maxBranchNameLength = 1000

// BranchClass groups branches by how they are used.
type BranchClass int

const (
	BranchClassNone BranchClass = iota
	BranchClassPullRequest
	BranchClassProtected
	BranchClassMerge
)

func (c BranchClass) String() string {
	switch c {
	case BranchClassPullRequest:
		return "pull-request"
	case BranchClassProtected:
		return "protected"
	case BranchClassMerge:
		return "merge"
	default:
		return "none"
	}
}

// Provider is what a CI platform reported about the current job. Any field may be empty.
type Provider struct {
	Name          string
	BranchName    string
	BranchClass   BranchClass
	PRNumber      int
	CommitSha     string
	CommitMessage string
	Actor         string
	AuthorName    string
	AuthorEmail   string
	Title         string
	Workflow      string
	Job           string
	JobURL        string
	RepositoryURL string
}

// Detected reports whether a supported CI platform was found.
func (p Provider) Detected() bool {
	return p.Name != "" && p.Name != nullProviderName
}

// Env holds the environment of every supported CI platform.
type Env struct {
	GitHub    GitHubEnv
	Buildkite BuildkiteEnv
	CircleCI  CircleCIEnv
	GitLab    GitLabEnv
	Generic   GenericEnv
}

// ParseEnv reads Env from the process environment.
func ParseEnv() (Env, error) {
	var e Env

	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "unable to parse environment variables")
	}

	return e, nil
}

// Detect picks the first CI platform whose marker variable is set. Values from the generic environment override
// whatever the platform reported.
func Detect(e Env) Provider {
	var provider Provider

	switch {
	case e.GitHub.Detected:
		provider = e.GitHub.makeProvider()
	case e.Buildkite.Detected:
		provider = e.Buildkite.makeProvider()
	case e.CircleCI.Detected:
		provider = e.CircleCI.makeProvider()
	case e.GitLab.Detected:
		provider = e.GitLab.makeProvider()
	default:
		provider = nullProvider()
	}

	provider = MergeGeneric(provider, e.Generic)

	if provider.BranchName != "" {
		provider.BranchName = cleanBranch(provider.BranchName)
		provider.BranchClass = classifyBranch(provider.BranchName, provider.PRNumber)
	}

	return provider
}

func cleanBranch(branch string) string {
	branch = strings.ReplaceAll(branch, "refs/heads/", "")
	branch = strings.ReplaceAll(branch, "refs/", "")
	branch = strings.ReplaceAll(branch, "origin/", "")

	return textsafety.Truncate(branch, maxBranchNameLength)
}

func classifyBranch(branch string, prNumber int) BranchClass {
	switch {
	case prNumber > 0:
		return BranchClassPullRequest
	case strings.HasPrefix(branch, "remotes/pull/"), strings.HasPrefix(branch, "pull/"):
		return BranchClassPullRequest
	case branch == "master", branch == "main":
		return BranchClassProtected
	case strings.Contains(branch, "/trunk-merge/"):
		return BranchClassMerge
	default:
		return BranchClassNone
	}
}

func parsePRNumber(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}

	return n
}

func firstNonempty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}
