package cli_test

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rwx-research/flakeguard/internal/cli"
	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/fileset"
	"github.com/rwx-research/flakeguard/internal/mocks"
	"github.com/rwx-research/flakeguard/internal/quarantine"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Test", func() {
	var (
		ctx           context.Context
		now           time.Time
		modTime       time.Time
		exitCode      int
		executed      []exec.CommandConfig
		fetches       int
		service       cli.Service
		cfg           cli.TestConfig
		quarantineAll bool
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
		modTime = now.Add(time.Minute)
		exitCode = 1
		executed = nil
		fetches = 0
		quarantineAll = false

		cfg = cli.TestConfig{
			QuarantineConfig: cli.QuarantineConfig{
				Reports:  cli.ReportsConfig{Globs: []string{"reports/*.xml"}},
				Identity: cli.IdentityConfig{OrgSlug: "acme"},
			},
			Command: exec.CommandConfig{Name: "bundle", Args: []string{"exec", "rspec"}},
		}
	})

	JustBeforeEach(func() {
		core, _ := observer.New(zapcore.DebugLevel)

		runner := new(mocks.TaskRunner)
		runner.MockNewCommand = func(_ context.Context, commandConfig exec.CommandConfig) (exec.Command, error) {
			executed = append(executed, commandConfig)

			return &mocks.Command{
				MockStart: func() error { return nil },
				MockWait: func() error {
					if exitCode == 0 {
						return nil
					}
					return errors.New("exit status")
				},
			}, nil
		}
		runner.MockGetExitStatusFromError = func(error) (int, error) {
			return exitCode, nil
		}

		backend := new(mocks.Backend)
		backend.MockGetQuarantineConfig = func(
			_ context.Context,
			req quarantine.FetchRequest,
		) (quarantine.Config, error) {
			fetches++
			config := quarantine.Config{QuarantinedIDs: make(map[string]struct{})}
			if quarantineAll {
				for _, id := range req.TestIDs {
					config.QuarantinedIDs[id] = struct{}{}
				}
			}

			return config, nil
		}

		service = cli.Service{
			Backend:    backend,
			Log:        zap.New(core).Sugar(),
			FileSystem: newMemoryFileSystem(modTime, map[string]string{"reports/a.xml": validReport}),
			TaskRunner: runner,
			Now:        func() time.Time { return now },
		}
	})

	It("runs the command and returns its exit code", func() {
		err := service.Test(ctx, cfg)

		executionErr, ok := errors.AsExecutionError(err)
		Expect(ok).To(BeTrue())
		Expect(executionErr.Code).To(Equal(1))
		Expect(executed).To(HaveLen(1))
		Expect(executed[0].Name).To(Equal("bundle"))
		Expect(executed[0].Args).To(Equal([]string{"exec", "rspec"}))
	})

	Context("when the failures are quarantined", func() {
		BeforeEach(func() {
			quarantineAll = true
		})

		It("succeeds", func() {
			Expect(service.Test(ctx, cfg)).To(Succeed())
		})
	})

	Context("when the reports predate the command", func() {
		BeforeEach(func() {
			modTime = now.Add(-time.Hour)
			exitCode = 2
		})

		It("ignores them and keeps the exit code", func() {
			err := service.Test(ctx, cfg)

			executionErr, ok := errors.AsExecutionError(err)
			Expect(ok).To(BeTrue())
			Expect(executionErr.Code).To(Equal(2))
		})
	})

	Context("when the command succeeds despite failures in its reports", func() {
		BeforeEach(func() {
			exitCode = 0
		})

		It("treats the file sets as passed and does not look for quarantined tests", func() {
			Expect(service.Test(ctx, cfg)).To(Succeed())
			Expect(fetches).To(Equal(0))
		})

		Context("and a test runner report is given", func() {
			BeforeEach(func() {
				cfg.Reports.TestRunnerReport = &fileset.TestRunnerReport{ResolvedStatus: fileset.RunnerStatusFailed}
			})

			It("keeps it", func() {
				Expect(service.Test(ctx, cfg)).To(Succeed())
				Expect(fetches).To(Equal(1))
			})
		})
	})

	Context("when the command fails", func() {
		It("looks up the failures of its reports", func() {
			_ = service.Test(ctx, cfg)
			Expect(fetches).To(Equal(1))
		})
	})

	It("requires a command", func() {
		cfg.Command = exec.CommandConfig{}

		_, ok := errors.AsConfigurationError(service.Test(ctx, cfg))
		Expect(ok).To(BeTrue())
		Expect(executed).To(BeEmpty())
	})
})
