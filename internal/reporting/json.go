package reporting

import (
	"encoding/json"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
	"github.com/rwx-research/flakeguard/internal/quarantine"
	"github.com/rwx-research/flakeguard/internal/repo"
	"github.com/rwx-research/flakeguard/internal/testing"
)

type jsonTest struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ParentName    string   `json:"parentName"`
	Classname     string   `json:"classname,omitempty"`
	File          string   `json:"file,omitempty"`
	Line          int      `json:"line,omitempty"`
	Status        string   `json:"status"`
	StatusMessage string   `json:"statusMessage,omitempty"`
	Attempt       int      `json:"attempt"`
	Codeowners    []string `json:"codeowners,omitempty"`
}

type jsonSummary struct {
	ExitCode             int        `json:"exitCode"`
	GroupIsQuarantined   bool       `json:"groupIsQuarantined"`
	QuarantiningDisabled bool       `json:"quarantiningDisabled"`
	FetchStatus          string     `json:"fetchStatus"`
	FetchReason          string     `json:"fetchReason,omitempty"`
	OrgSlug              string     `json:"orgUrlSlug,omitempty"`
	Repo                 repo.Info  `json:"repo"`
	Branch               string     `json:"branch,omitempty"`
	CommitSha            string     `json:"commitSha,omitempty"`
	JobURL               string     `json:"jobUrl,omitempty"`
	Quarantined          []jsonTest `json:"quarantined"`
	NotQuarantined       []jsonTest `json:"notQuarantined"`
}

// WriteJSONSummary writes the quarantine decision as indented JSON.
func WriteJSONSummary(file fs.File, decision quarantine.Decision, cfg Configuration) error {
	summary := jsonSummary{
		ExitCode:             decision.ExitCode,
		GroupIsQuarantined:   decision.GroupIsQuarantined,
		QuarantiningDisabled: decision.Disabled,
		FetchStatus:          decision.FetchStatus.Kind.String(),
		FetchReason:          decision.FetchStatus.Reason,
		OrgSlug:              cfg.OrgSlug,
		Repo:                 cfg.Repo,
		Branch:               cfg.Provider.BranchName,
		CommitSha:            cfg.Provider.CommitSha,
		JobURL:               cfg.Provider.JobURL,
		Quarantined:          jsonTests(decision.Quarantined),
		NotQuarantined:       jsonTests(decision.NotQuarantined),
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(summary); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func jsonTests(runs []testing.TestCaseRun) []jsonTest {
	tests := make([]jsonTest, len(runs))
	for i, run := range runs {
		tests[i] = jsonTest{
			ID:            run.ID,
			Name:          run.Name,
			ParentName:    run.ParentName,
			Classname:     run.Classname,
			File:          run.File,
			Line:          run.Line,
			Status:        run.Status.String(),
			StatusMessage: run.StatusMessage,
			Attempt:       run.AttemptNumber,
			Codeowners:    run.Codeowners,
		}
	}

	return tests
}
