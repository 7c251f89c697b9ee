//go:build mage
// +build mage

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "./flakeguard"

// Default is the default build target.
var Default = Build

// Build builds the flakeguard binary. `VERSION` is embedded into it, if set.
func Build(ctx context.Context) error {
	args := []string{"-o", binary}

	ldflags := os.Getenv("LDFLAGS")
	if version := os.Getenv("VERSION"); version != "" {
		ldflags = fmt.Sprintf("%s -X github.com/rwx-research/flakeguard.Version=%s", ldflags, version)
	}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}

	if os.Getenv("CGO_ENABLED") == "0" {
		args = append(args, "-a")
	}

	return sh.RunV("go", append(append([]string{"build"}, args...), "./cmd/flakeguard")...)
}

// Clean removes any generated artifacts from the repository.
func Clean(ctx context.Context) error {
	for _, path := range []string{binary, "report.xml"} {
		if err := sh.Rm(path); err != nil {
			return err
		}
	}

	return nil
}

// Lint runs the linter & performs static-analysis checks.
func Lint(ctx context.Context) error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Test executes the test-suite. With `REPORT` set, a JUnit report is written to report.xml.
func Test(ctx context.Context) error {
	if os.Getenv("REPORT") != "" {
		return sh.RunV("ginkgo", "--junit-report=report.xml", "./...")
	}

	cmd := exec.Command("command", "-v", "ginkgo")
	if err := cmd.Run(); err != nil {
		return sh.RunV("go", "test", "./...")
	}

	return sh.RunV("ginkgo", "./...")
}

// Dogfood runs the test-suite and validates the JUnit report it produces with a freshly built binary.
func Dogfood(ctx context.Context) error {
	mg.CtxDeps(ctx, Build)

	os.Setenv("REPORT", "true")
	if err := Test(ctx); err != nil {
		return err
	}

	return sh.RunV(binary, "validate", "--junit-paths", "report.xml")
}
