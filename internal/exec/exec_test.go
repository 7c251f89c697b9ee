package exec_test

import (
	"context"
	"os"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/exec"
	"github.com/rwx-research/flakeguard/internal/mocks"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("CommandConfigFromLine", func() {
	It("splits the line into words", func() {
		cfg, err := exec.CommandConfigFromLine(`go test -run "TestFoo|TestBar" ./...`)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Name).To(Equal("go"))
		Expect(cfg.Args).To(Equal([]string{"test", "-run", "TestFoo|TestBar", "./..."}))
	})

	It("expands environment variables", func() {
		Expect(os.Setenv("FLAKEGUARD_EXEC_TEST_PKG", "./internal/...")).To(Succeed())
		DeferCleanup(os.Unsetenv, "FLAKEGUARD_EXEC_TEST_PKG")

		cfg, err := exec.CommandConfigFromLine("go test $FLAKEGUARD_EXEC_TEST_PKG")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Args).To(Equal([]string{"test", "./internal/..."}))
	})

	It("rejects empty lines", func() {
		_, err := exec.CommandConfigFromLine("   ")
		Expect(err).To(HaveOccurred())

		_, ok := errors.AsConfigurationError(err)
		Expect(ok).To(BeTrue())
	})

	It("rejects unterminated quotes", func() {
		_, err := exec.CommandConfigFromLine(`go test "./...`)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("CommandConfigFromArgs", func() {
	It("uses the argv as is", func() {
		cfg, err := exec.CommandConfigFromArgs([]string{"bundle", "exec", "rspec"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Name).To(Equal("bundle"))
		Expect(cfg.Args).To(Equal([]string{"exec", "rspec"}))
		Expect(cfg.Stdout).To(Equal(os.Stdout))
	})

	It("splits a single argument", func() {
		cfg, err := exec.CommandConfigFromArgs([]string{"npm run test"})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Name).To(Equal("npm"))
		Expect(cfg.Args).To(Equal([]string{"run", "test"}))
	})

	It("requires a command", func() {
		_, err := exec.CommandConfigFromArgs(nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Run", func() {
	var (
		runner  mocks.TaskRunner
		command mocks.Command
	)

	BeforeEach(func() {
		command = mocks.Command{
			MockStart: func() error { return nil },
			MockWait:  func() error { return nil },
		}
		runner = mocks.TaskRunner{
			MockNewCommand: func(_ context.Context, _ exec.CommandConfig) (exec.Command, error) {
				return &command, nil
			},
		}
	})

	It("returns 0 when the command succeeds", func() {
		exitCode, err := exec.Run(context.Background(), &runner, exec.CommandConfig{Name: "true"})
		Expect(err).NotTo(HaveOccurred())
		Expect(exitCode).To(Equal(0))
	})

	It("returns the exit code of a failing command", func() {
		command.MockWait = func() error { return errors.New("exit status 3") }
		runner.MockGetExitStatusFromError = func(error) (int, error) { return 3, nil }

		exitCode, err := exec.Run(context.Background(), &runner, exec.CommandConfig{Name: "false"})
		Expect(err).NotTo(HaveOccurred())
		Expect(exitCode).To(Equal(3))
	})

	It("fails when the command cannot be started", func() {
		command.MockStart = func() error { return errors.New("no such file") }

		_, err := exec.Run(context.Background(), &runner, exec.CommandConfig{Name: "missing"})
		Expect(err).To(HaveOccurred())

		_, ok := errors.AsSystemError(err)
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("Local", func() {
	It("reports the exit code of a real process", func() {
		cfg, err := exec.CommandConfigFromLine("sh -c 'exit 4'")
		Expect(err).NotTo(HaveOccurred())
		cfg.Stdin, cfg.Stdout, cfg.Stderr = nil, GinkgoWriter, GinkgoWriter

		exitCode, err := exec.Run(context.Background(), exec.Local{}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(exitCode).To(Equal(4))
	})
})
