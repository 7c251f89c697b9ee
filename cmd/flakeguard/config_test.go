package main_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	flakeguard "github.com/rwx-research/flakeguard/cmd/flakeguard"
	"github.com/rwx-research/flakeguard/internal/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("InitConfig", func() {
	var (
		cfg        flakeguard.Config
		cmd        *cobra.Command
		cliArgs    *flakeguard.CliArgs
		err        error
		flags      []string
		configFile string
		setEnv     func(string, string)
	)

	BeforeEach(func() {
		envPrefixes := []string{"GITHUB", "BUILDKITE", "CIRCLE", "GITLAB", "CI", "FLAKEGUARD"}
		for _, env := range os.Environ() {
			for _, prefix := range envPrefixes {
				if strings.HasPrefix(env, prefix) {
					pair := strings.SplitN(env, "=", 2)
					value := pair[1]
					os.Unsetenv(pair[0])
					DeferCleanup(os.Setenv, pair[0], value)
				}
			}
		}

		setEnv = func(key, value string) {
			os.Setenv(key, value)
			DeferCleanup(os.Unsetenv, key)
		}

		flags = []string{}
		configFile = filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(configFile, []byte(""), 0o600)).To(Succeed())
	})

	writeConfig := func(content string) {
		Expect(os.WriteFile(configFile, []byte(content), 0o600)).To(Succeed())
	}

	JustBeforeEach(func() {
		cmd = &cobra.Command{Use: "flakeguard"}
		cliArgs = new(flakeguard.CliArgs)
		Expect(flakeguard.ConfigureRootCmd(cmd, cliArgs)).To(Succeed())

		cmd.SetContext(context.Background())
		Expect(cmd.ParseFlags(append([]string{"--config-file", configFile}, flags...))).To(Succeed())

		cfg, err = flakeguard.InitConfig(cmd, cliArgs)
	})

	Context("with an empty config file", func() {
		It("uses the defaults", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Org).To(BeEmpty())
			Expect(cfg.Reports.JUnitPaths).To(BeEmpty())
			Expect(cfg.Quarantine.Disabled).To(BeFalse())
		})
	})

	Context("with a config file", func() {
		BeforeEach(func() {
			writeConfig(`
org-url-slug: acme
api:
  host: flakeguard.example.com
reports:
  junit-paths:
    - reports/*.xml
  codeowners-path: .github/CODEOWNERS
test:
  command: bundle exec rspec
quarantine:
  variant: linux
  json-output: quarantine.json
`)
		})

		It("reads it", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Org).To(Equal("acme"))
			Expect(cfg.API.Host).To(Equal("flakeguard.example.com"))
			Expect(cfg.Reports.JUnitPaths).To(Equal([]string{"reports/*.xml"}))
			Expect(cfg.Reports.CodeownersPath).To(Equal(".github/CODEOWNERS"))
			Expect(cfg.Test.Command).To(Equal("bundle exec rspec"))
			Expect(cfg.Quarantine.Variant).To(Equal("linux"))
			Expect(cfg.Quarantine.JSONOutput).To(Equal("quarantine.json"))
		})

		Context("and environment variables", func() {
			BeforeEach(func() {
				setEnv("FLAKEGUARD_ORG", "globex")
				setEnv("FLAKEGUARD_TOKEN", "secret")
				setEnv("FLAKEGUARD_DISABLE_QUARANTINING", "true")
			})

			It("prefers the environment", func() {
				Expect(err).ToNot(HaveOccurred())
				Expect(cfg.Org).To(Equal("globex"))
				Expect(cfg.Secrets.Token).To(Equal("secret"))
				Expect(cfg.Quarantine.Disabled).To(BeTrue())
				Expect(cfg.API.Host).To(Equal("flakeguard.example.com"))
			})

			Context("and flags", func() {
				BeforeEach(func() {
					flags = []string{"--org-url-slug", "initech", "--junit-paths", "out/*.xml", "--variant", "macos"}
				})

				It("prefers the flags", func() {
					Expect(err).ToNot(HaveOccurred())
					Expect(cfg.Org).To(Equal("initech"))
					Expect(cfg.Reports.JUnitPaths).To(Equal([]string{"out/*.xml"}))
					Expect(cfg.Quarantine.Variant).To(Equal("macos"))
				})
			})
		})
	})

	Context("with flags in the config file", func() {
		BeforeEach(func() {
			writeConfig(`
flags:
  debug: true
  local: true
`)
		})

		It("sets them", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.Output.Debug).To(BeTrue())
			Expect(cfg.API.Local).To(BeTrue())
		})
	})

	Context("with an unknown key in the config file", func() {
		BeforeEach(func() {
			writeConfig("unknown: true\n")
		})

		It("fails", func() {
			Expect(err).To(HaveOccurred())
			_, ok := errors.AsConfigurationError(err)
			Expect(ok).To(BeTrue())
		})
	})

	Context("with CI environment variables", func() {
		BeforeEach(func() {
			setEnv("GITHUB_ACTIONS", "true")
			setEnv("GITHUB_REPOSITORY", "acme/widgets")
			setEnv("GITHUB_SERVER_URL", "https://github.com")
			setEnv("GITHUB_SHA", "abc123")
		})

		It("parses the provider environment", func() {
			Expect(err).ToNot(HaveOccurred())
			Expect(cfg.ProvidersEnv.GitHub.Detected).To(BeTrue())
			Expect(cfg.ProvidersEnv.GitHub.CommitSha).To(Equal("abc123"))
		})
	})
})
