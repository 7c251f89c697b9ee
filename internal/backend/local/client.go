// Package local is a file-backed quarantine backend, useful without network access or an API token.
package local

import (
	"context"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/fs"
	"github.com/rwx-research/flakeguard/internal/quarantine"
)

// QuarantineFile is the on-disk format of the quarantines file.
type QuarantineFile struct {
	Disabled         bool     `yaml:"disabled"`
	QuarantinedTests []string `yaml:"quarantined-tests"`
}

type Client struct {
	fs              fs.FileSystem
	quarantinesPath string
}

func NewClient(fileSystem fs.FileSystem, quarantinesPath string) (Client, error) {
	if fileSystem == nil {
		return Client{}, errors.NewInternalError("missing file system")
	}

	if quarantinesPath == "" {
		return Client{}, errors.NewConfigurationError("missing path to the quarantines file")
	}

	return Client{fs: fileSystem, quarantinesPath: quarantinesPath}, nil
}

// GetQuarantineConfig reads the quarantines file. A missing file means nothing is quarantined.
func (c Client) GetQuarantineConfig(_ context.Context, _ quarantine.FetchRequest) (quarantine.Config, error) {
	cfg := quarantine.Config{QuarantinedIDs: make(map[string]struct{})}

	fd, err := c.fs.Open(c.quarantinesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}

		return cfg, errors.NewSystemError("unable to open %q: %s", c.quarantinesPath, err)
	}
	defer fd.Close()

	var file QuarantineFile

	decoder := yaml.NewDecoder(fd)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return cfg, errors.NewConfigurationError("unable to parse %q: %s", c.quarantinesPath, err)
	}

	cfg.IsDisabled = file.Disabled
	for _, id := range file.QuarantinedTests {
		cfg.QuarantinedIDs[id] = struct{}{}
	}

	return cfg, nil
}
