// Package siterepo reads the site directory from the MongoDB collections of the
// legacy order-processing service: facilities live in "warehouses" and relay
// points in "hotspots".
package siterepo

import (
	"fmt"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
)

const (
	WarehousesCollection = "warehouses"
	HotspotsCollection   = "hotspots"
)

// siteDocument is the shape shared by both collections. Hotspots also carry the
// name of the warehouse they were seeded next to; the dispatcher resolves relays
// by distance, so the field is read but not used for selection.
type siteDocument struct {
	Name      string  `bson:"name"`
	Lat       float64 `bson:"lat"`
	Lng       float64 `bson:"lng"`
	Warehouse string  `bson:"warehouse,omitempty"`
}

// toDomain maps lat to X and lng to Y and derives the site id from the name.
func toDomain(doc siteDocument, kind site.Kind) (site.Site, error) {
	loc, err := kernel.NewLocation(doc.Lat, doc.Lng)
	if err != nil {
		return site.Site{}, fmt.Errorf("%s %q: %w", kind, doc.Name, err)
	}

	s, err := site.NewNamedSite(doc.Name, loc, kind)
	if err != nil {
		return site.Site{}, fmt.Errorf("%s %q: %w", kind, doc.Name, err)
	}
	return s, nil
}

func toDomainAll(docs []siteDocument, kind site.Kind) ([]site.Site, error) {
	sites := make([]site.Site, 0, len(docs))
	for _, doc := range docs {
		s, err := toDomain(doc, kind)
		if err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, nil
}
