// Package helpers holds utilities shared by the integration tests.
package helpers

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/onsi/gomega"
)

// ciEnvPrefixes are the prefixes of variables that change how flakeguard detects its environment.
var ciEnvPrefixes = []string{"GITHUB", "BUILDKITE", "CIRCLE", "GITLAB", "CI", "FLAKEGUARD"}

// WriteFiles writes every file below root, creating directories as needed.
func WriteFiles(root string, files map[string]string) {
	for name, content := range files {
		path := filepath.Join(root, name)
		gomega.Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(path, []byte(content), 0o600)).To(gomega.Succeed())
	}
}

// CleanEnv returns the environment of the current process without any CI or flakeguard variables.
func CleanEnv() map[string]string {
	env := map[string]string{}

	for _, pair := range os.Environ() {
		fields := strings.SplitN(pair, "=", 2)
		if len(fields) != 2 || hasCIPrefix(fields[0]) {
			continue
		}

		env[fields[0]] = fields[1]
	}

	return env
}

func hasCIPrefix(name string) bool {
	for _, prefix := range ciEnvPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}
