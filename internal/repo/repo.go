// Package repo determines which repository and commit a test run belongs to.
package repo

import (
	"os"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rwx-research/flakeguard/internal/errors"
)

const shortSHALen = 7

var githubMergeBranch = regexp.MustCompile(`refs/remotes/pull/[0-9]+/merge`)

// Overrides take precedence over anything read from the repository itself.
type Overrides struct {
	URL             string
	HeadSHA         string
	HeadBranch      string
	HeadCommitEpoch int64
}

// Bundle describes the repository and its checked-out commit.
type Bundle struct {
	Info              Info
	Root              string
	URL               string
	HeadSHA           string
	HeadSHAShort      string
	HeadBranch        string
	HeadCommitEpoch   int64
	HeadCommitMessage string
	HeadAuthorName    string
	HeadAuthorEmail   string
}

// Open reads the repository at root (or the current working directory). The root does not need to be a git
// repository as long as the URL is overridden.
func Open(root string, overrides Overrides) (Bundle, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Bundle{}, errors.NewSystemError("Unable to determine the current working directory: %s", err)
		}
		root = wd
	}

	bundle := Bundle{
		Root:            root,
		URL:             overrides.URL,
		HeadSHA:         overrides.HeadSHA,
		HeadBranch:      overrides.HeadBranch,
		HeadCommitEpoch: overrides.HeadCommitEpoch,
	}

	repository, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
	case err != nil:
		return Bundle{}, errors.NewSystemError("Unable to open git repository at %q: %s", root, err)
	default:
		if err := bundle.readFrom(repository); err != nil {
			return Bundle{}, err
		}
	}

	if bundle.URL == "" {
		return Bundle{}, errors.NewDetailedConfigurationError(
			"Unable to determine the repository URL",
			"Neither the flags nor the git repository at "+root+" specify a remote URL.",
			"Set the 'origin' remote of the repository or pass '--repo-url'.",
		)
	}

	bundle.Info, err = ParseURL(bundle.URL)
	if err != nil {
		return Bundle{}, errors.WithStack(err)
	}

	bundle.HeadSHAShort = bundle.HeadSHA
	if len(bundle.HeadSHAShort) > shortSHALen {
		bundle.HeadSHAShort = bundle.HeadSHAShort[:shortSHALen]
	}

	return bundle, nil
}

func (b *Bundle) readFrom(repository *git.Repository) error {
	if b.URL == "" {
		remote, err := repository.Remote(git.DefaultRemoteName)
		if err != nil && !errors.Is(err, git.ErrRemoteNotFound) {
			return errors.NewSystemError("Unable to read the %q remote: %s", git.DefaultRemoteName, err)
		}

		if remote != nil && len(remote.Config().URLs) > 0 {
			b.URL = remote.Config().URLs[0]
		}
	}

	head, err := repository.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// An empty repository has no commits yet.
		return nil
	}
	if err != nil {
		return errors.NewSystemError("Unable to resolve HEAD: %s", err)
	}

	if b.HeadBranch == "" && head.Name().IsBranch() {
		b.HeadBranch = head.Name().String()
	}

	commit, err := repository.CommitObject(head.Hash())
	if err != nil {
		return errors.NewSystemError("Unable to read the HEAD commit: %s", err)
	}
	commit = pullRequestHead(repository, commit, b.HeadBranch)

	if b.HeadSHA == "" {
		b.HeadSHA = commit.Hash.String()
	}

	if b.HeadCommitEpoch == 0 {
		b.HeadCommitEpoch = commit.Committer.When.Unix()
	}

	b.HeadCommitMessage = strings.TrimSpace(strings.SplitN(commit.Message, "\n", 2)[0])
	b.HeadAuthorName = commit.Author.Name
	b.HeadAuthorEmail = commit.Author.Email

	return nil
}

// pullRequestHead resolves the synthetic merge commit GitHub checks out for pull requests to the head of the pull
// request branch, if that commit is available locally.
func pullRequestHead(repository *git.Repository, commit *object.Commit, branch string) *object.Commit {
	if !githubMergeBranch.MatchString(branch) || commit.NumParents() != 2 {
		return commit
	}

	head, err := repository.CommitObject(commit.ParentHashes[1])
	if err != nil {
		return commit
	}

	return head
}
