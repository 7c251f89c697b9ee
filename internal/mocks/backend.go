package mocks

import (
	"context"

	"github.com/rwx-research/flakeguard/internal/errors"
	"github.com/rwx-research/flakeguard/internal/quarantine"
)

// Backend is a mocked implementation of 'backend.Client'.
type Backend struct {
	MockGetQuarantineConfig func(context.Context, quarantine.FetchRequest) (quarantine.Config, error)
}

// GetQuarantineConfig either calls the configured mock of itself or returns an error if that doesn't exist.
func (b *Backend) GetQuarantineConfig(ctx context.Context, req quarantine.FetchRequest) (quarantine.Config, error) {
	if b.MockGetQuarantineConfig != nil {
		return b.MockGetQuarantineConfig(ctx, req)
	}

	return quarantine.Config{}, errors.NewInternalError("MockGetQuarantineConfig was not configured")
}
