// Package sitefile loads the site directory from a YAML seed file.
package sitefile

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/ports"

	"gopkg.in/yaml.v3"
)

var _ ports.SiteSource = (*File)(nil)

// Document is the seed file layout:
//
//	facilities:
//	  - {name: F1, x: 0, y: 0}
//	relayPoints:
//	  - {name: R1, x: 1, y: 1}
type Document struct {
	Facilities  []Entry `yaml:"facilities"`
	RelayPoints []Entry `yaml:"relayPoints"`
}

type Entry struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// File is a SiteSource that rereads its path on every load, so editing the seed
// file and waiting for the next directory refresh is enough to change sites.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) LoadSites(_ context.Context) ([]site.Site, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a seed document. Unknown keys are rejected so a misspelt section
// does not silently produce an empty tier.
func Parse(data []byte) ([]site.Site, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse site seed file: %w", err)
	}

	facilities, err := toSites(doc.Facilities, site.Facility)
	if err != nil {
		return nil, err
	}
	relays, err := toSites(doc.RelayPoints, site.RelayPoint)
	if err != nil {
		return nil, err
	}

	return append(facilities, relays...), nil
}

func toSites(entries []Entry, kind site.Kind) ([]site.Site, error) {
	sites := make([]site.Site, 0, len(entries))
	for i, e := range entries {
		loc, err := kernel.NewLocation(e.X, e.Y)
		if err != nil {
			return nil, fmt.Errorf("%s #%d %q: %w", kind, i, e.Name, err)
		}
		s, err := site.NewNamedSite(e.Name, loc, kind)
		if err != nil {
			return nil, fmt.Errorf("%s #%d %q: %w", kind, i, e.Name, err)
		}
		sites = append(sites, s)
	}
	return sites, nil
}
