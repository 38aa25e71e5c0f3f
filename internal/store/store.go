// Package store persists completed discovery runs. The interface decouples
// the pipeline from the backing database so runs work without one.
package store

import (
	"context"

	"github.com/grantscout/grantscout/internal/grant"
)

// Provider records discovery runs.
type Provider interface {
	// SaveRun persists one run and its result set.
	SaveRun(ctx context.Context, result grant.DiscoveryResult, criteria grant.SearchCriteria) error

	// Close releases the underlying connections.
	Close() error
}

// NoOp is a Provider that records nothing. Used when no database is
// configured.
type NoOp struct{}

// SaveRun does nothing.
func (NoOp) SaveRun(context.Context, grant.DiscoveryResult, grant.SearchCriteria) error {
	return nil
}

// Close does nothing.
func (NoOp) Close() error { return nil }
