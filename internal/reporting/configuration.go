package reporting

import (
	"github.com/rwx-research/flakeguard/internal/providers"
	"github.com/rwx-research/flakeguard/internal/repo"
)

// Configuration is the context a report is written in.
type Configuration struct {
	OrgSlug  string
	Repo     repo.Info
	Provider providers.Provider
}
