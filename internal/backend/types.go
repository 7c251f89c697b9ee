// Package backend holds the collaborators that look up which tests are quarantined.
package backend

import (
	"context"

	"github.com/rwx-research/flakeguard/internal/quarantine"
)

// Client is the interface of our quarantine backends.
type Client interface {
	GetQuarantineConfig(ctx context.Context, req quarantine.FetchRequest) (quarantine.Config, error)
}

// Test is a single test as sent to the backend when asking for its quarantine state.
type Test struct {
	ID string `json:"id"`
}

// Tests wraps identifiers for a request body.
func Tests(ids []string) []Test {
	tests := make([]Test, len(ids))
	for i, id := range ids {
		tests[i] = Test{ID: id}
	}

	return tests
}
