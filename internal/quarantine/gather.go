package quarantine

import (
	"context"

	"go.uber.org/zap"

	"github.com/rwx-research/flakeguard/internal/repo"
	"github.com/rwx-research/flakeguard/internal/testing"
)

// FetchRequest is what a Fetcher needs to look up the quarantine configuration.
type FetchRequest struct {
	Repo       repo.Info
	OrgSlug    string
	TestIDs    []string
	RemoteURLs []string
}

// Fetcher looks up the quarantine configuration of a repository.
type Fetcher interface {
	GetQuarantineConfig(ctx context.Context, req FetchRequest) (Config, error)
}

// Request holds the inputs of Gather.
type Request struct {
	Fetcher Fetcher
	Log     *zap.SugaredLogger

	Failures      []testing.TestCaseRun
	PriorExitCode *int
	// NoFilesFound short-circuits the decision: without reports there is nothing to quarantine.
	NoFilesFound        bool
	DisableQuarantining bool

	OrgSlug    string
	Repo       repo.Info
	RemoteURLs []string
}

// Gather fetches the quarantine configuration, if there is anything to quarantine, and decides on the exit code.
// Fetch errors are logged and never fail the decision.
func Gather(ctx context.Context, req Request) Decision {
	log := req.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	defaultExitCode := DefaultExitCode(req.Failures, req.PriorExitCode)

	if req.NoFilesFound {
		log.Info("No JUnit files found, not quarantining any tests")
		return Decision{
			ExitCode:       defaultExitCode,
			Quarantined:    make([]testing.TestCaseRun, 0),
			NotQuarantined: req.Failures,
			FetchStatus:    FetchStatus{Kind: FetchSkipped, Reason: "no test reports were found"},
		}
	}

	if req.DisableQuarantining {
		log.Info("Quarantining is disabled, not quarantining any tests")
		return Decide(
			req.Failures,
			&Config{IsDisabled: true},
			FetchStatus{Kind: FetchSkipped, Reason: "quarantining is disabled"},
			&defaultExitCode,
		)
	}

	cfg, fetch := fetchConfig(ctx, req, log)
	if cfg != nil && cfg.IsDisabled {
		log.Info("Quarantining is not enabled, not quarantining any tests")
		return Decide(req.Failures, cfg, fetch, &defaultExitCode)
	}

	decision := Decide(req.Failures, cfg, fetch, &defaultExitCode)

	quarantined := make(map[string]struct{}, len(decision.Quarantined))
	for _, failure := range decision.Quarantined {
		quarantined[failure.ID] = struct{}{}
	}

	for _, failure := range req.Failures {
		if _, ok := quarantined[failure.ID]; ok {
			log.Infof("%s -> %s [QUARANTINED] (id: %s)", failure.ParentName, failure.Name, failure.ID)
		} else {
			log.Infof("%s -> %s (id: %s)", failure.ParentName, failure.Name, failure.ID)
		}
	}

	switch {
	case len(req.Failures) == 0:
		log.Info("No failed tests to quarantine, returning exit code from command.")
	case !decision.GroupIsQuarantined:
		log.Info("Not all test failures were quarantined, returning exit code from command.")
	case defaultExitCode != ExitSuccess:
		log.Info("All test failures were quarantined, overriding exit code to be exit_success")
	}

	return decision
}

func fetchConfig(ctx context.Context, req Request, log *zap.SugaredLogger) (*Config, FetchStatus) {
	if len(req.Failures) == 0 {
		log.Debug("No failed tests to quarantine")
		return nil, FetchStatus{Kind: FetchSkipped, Reason: "there are no failed tests"}
	}

	if req.Fetcher == nil {
		return nil, FetchStatus{Kind: FetchSkipped, Reason: "no quarantine backend is configured"}
	}

	log.Info("Checking if failed tests can be quarantined")

	ids := make([]string, 0, len(req.Failures))
	for _, failure := range req.Failures {
		ids = append(ids, failure.ID)
	}

	cfg, err := req.Fetcher.GetQuarantineConfig(ctx, FetchRequest{
		Repo:       req.Repo,
		OrgSlug:    req.OrgSlug,
		TestIDs:    ids,
		RemoteURLs: req.RemoteURLs,
	})
	if err != nil {
		log.Errorf("Unable to fetch the quarantine configuration: %s", err)
		return nil, FetchStatus{Kind: FetchFailed, Reason: err.Error()}
	}

	return &cfg, FetchStatus{Kind: FetchSucceeded}
}
