// Package sitedir keeps the site directory in memory as an immutable snapshot that
// is swapped atomically on reload.
package sitedir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"

	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

var (
	_ ports.SiteDirectory = (*Directory)(nil)

	ErrDuplicateSiteName = errors.New("duplicate site name")
)

// Metrics receives directory sizes and reload outcomes.
type Metrics interface {
	SetDirectorySites(kind string, n int)
	RecordDirectoryRefresh(success bool)
}

type snapshot struct {
	facilities  []site.Site
	relayPoints []site.Site
}

// Directory serves the last successfully loaded snapshot. Readers never observe a
// partially loaded directory: a reload builds a new snapshot and publishes it with
// a single atomic store.
type Directory struct {
	source  ports.SiteSource
	current atomic.Pointer[snapshot]
	metrics Metrics
	logger  *slog.Logger
}

// New returns an empty directory backed by source. Call Reload before serving.
func New(source ports.SiteSource, metrics Metrics, logger *slog.Logger) *Directory {
	d := &Directory{
		source:  source,
		metrics: metrics,
		logger:  logger.With("component", "site_directory"),
	}
	d.current.Store(&snapshot{})
	return d
}

func (d *Directory) Facilities(_ context.Context) ([]site.Site, error) {
	return d.current.Load().facilities, nil
}

func (d *Directory) RelayPoints(_ context.Context) ([]site.Site, error) {
	return d.current.Load().relayPoints, nil
}

// Reload reads the source and replaces the snapshot. On error the previous
// snapshot stays in place.
func (d *Directory) Reload(ctx context.Context) error {
	sites, err := d.source.LoadSites(ctx)
	if err == nil {
		err = d.Replace(sites)
	}

	if d.metrics != nil {
		d.metrics.RecordDirectoryRefresh(err == nil)
	}
	if err != nil {
		return fmt.Errorf("reload site directory: %w", err)
	}
	return nil
}

// Replace validates sites and publishes them as the new snapshot.
// Names must be unique within a kind.
func (d *Directory) Replace(sites []site.Site) error {
	next := &snapshot{
		facilities:  make([]site.Site, 0),
		relayPoints: make([]site.Site, 0),
	}
	seen := map[site.Kind]map[string]struct{}{
		site.Facility:   {},
		site.RelayPoint: {},
	}

	for _, s := range sites {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Kind()][s.Name()]; dup {
			return errs.NewValueIsInvalidErrorWithCause("name",
				fmt.Errorf("%w: %s %q", ErrDuplicateSiteName, s.Kind(), s.Name()))
		}
		seen[s.Kind()][s.Name()] = struct{}{}

		switch s.Kind() {
		case site.Facility:
			next.facilities = append(next.facilities, s)
		case site.RelayPoint:
			next.relayPoints = append(next.relayPoints, s)
		}
	}

	sortByName(next.facilities)
	sortByName(next.relayPoints)

	d.current.Store(next)

	if d.metrics != nil {
		d.metrics.SetDirectorySites(site.Facility.String(), len(next.facilities))
		d.metrics.SetDirectorySites(site.RelayPoint.String(), len(next.relayPoints))
	}
	d.logger.InfoContext(context.Background(), "Site directory loaded",
		"facilities", len(next.facilities), "relay_points", len(next.relayPoints))

	return nil
}

func sortByName(sites []site.Site) {
	sort.Slice(sites, func(i, j int) bool { return sites[i].Name() < sites[j].Name() })
}
