package services

import (
	"errors"
	"math"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
)

// ErrNoCandidatesAvailable is returned when the directory tier being searched is empty.
var ErrNoCandidatesAvailable = errors.New("no candidates available")

// Assignment is a resolved site together with its distance from the query point.
type Assignment struct {
	Site     site.Site
	Distance float64
}

// NearestSiteResolver selects the closest site by straight-line distance.
//
// Business rules:
//   - every candidate is scanned; there is no spatial index
//   - ties on distance resolve to the lexicographically smaller name, so the
//     result does not depend on the order the directory enumerates sites in
//   - an empty candidate set is ErrNoCandidatesAvailable
//
// Example usage:
//
//	resolver := NewNearestSiteResolver()
//	facility, err := resolver.ResolveFacility(customer, facilities)
//	if errors.Is(err, ErrNoCandidatesAvailable) {
//	    // directory is empty
//	}
//	relay, err := resolver.ResolveRelay(facility.Site, relays)
type NearestSiteResolver struct{}

func NewNearestSiteResolver() NearestSiteResolver {
	return NearestSiteResolver{}
}

// ResolveFacility returns the facility closest to the delivery point.
func (r NearestSiteResolver) ResolveFacility(point kernel.Location, facilities []site.Site) (Assignment, error) {
	return r.Nearest(point, facilities)
}

// ResolveRelay returns the relay point closest to the facility (not to the customer).
func (r NearestSiteResolver) ResolveRelay(facility site.Site, relays []site.Site) (Assignment, error) {
	if err := facility.Validate(); err != nil {
		return Assignment{}, err
	}
	return r.Nearest(facility.Location(), relays)
}

// Nearest scans candidates for the minimum distance to origin.
func (r NearestSiteResolver) Nearest(origin kernel.Location, candidates []site.Site) (Assignment, error) {
	if err := origin.Validate(); err != nil {
		return Assignment{}, err
	}

	var (
		best     site.Site
		bestDist = math.Inf(1)
		found    bool
	)

	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return Assignment{}, err
		}

		dist, err := c.DistanceTo(origin)
		if err != nil {
			return Assignment{}, err
		}

		if !found || dist < bestDist || (dist == bestDist && c.Name() < best.Name()) {
			best, bestDist, found = c, dist, true
		}
	}

	if !found {
		return Assignment{}, ErrNoCandidatesAvailable
	}

	return Assignment{Site: best, Distance: bestDist}, nil
}
