// Package ports defines the contracts between the dispatcher core and its
// infrastructure: where sites come from, where timelines are kept, how deferred
// stage transitions are armed and where stage events are published.
package ports

import (
	"context"

	"fulfillment/internal/core/domain/model/site"
)

// SiteDirectory is the read-only view of both location tiers the resolver scans.
// Implementations return a consistent snapshot per call; callers must not mutate
// the returned slices.
type SiteDirectory interface {
	// Facilities returns every fulfillment facility. An empty result is not an error.
	Facilities(ctx context.Context) ([]site.Site, error)

	// RelayPoints returns every relay point. An empty result is not an error.
	RelayPoints(ctx context.Context) ([]site.Site, error)
}

// SiteSource loads the full directory, both kinds mixed, from its system of record
// (postgres, mongo or a seed file). Sources are read out of band; the dispatcher
// never writes sites.
type SiteSource interface {
	LoadSites(ctx context.Context) ([]site.Site, error)
}
