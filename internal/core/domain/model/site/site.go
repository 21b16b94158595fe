package site

import (
	"errors"
	"strings"
	"unicode/utf8"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

// NameMaxLength bounds site names.
const NameMaxLength = 100

var ErrSiteIsNotConstructed = errors.New("Site must be created via NewSite constructor")

// Site is a named point in the dispatch plane: either a fulfillment facility or a
// relay point. Both tiers share this shape; Kind tells them apart.
//
// Sites are read-only for the dispatcher. They are loaded from a directory source
// and never mutated while orders are being dispatched.
type Site struct { //nolint:recvcheck //using for validation
	id       kernel.UUID
	name     string
	location kernel.Location
	kind     Kind

	guard guard.ConstructorGuard
}

// NewSite validates and builds a site.
//
// Example:
//
//	f1, err := site.NewSite(kernel.NewUUID(), "F1", kernel.MustNewLocation(0, 0), site.Facility)
func NewSite(id kernel.UUID, name string, location kernel.Location, kind Kind) (Site, error) {
	s := Site{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		s.setID(id),
		s.setName(name),
		s.setLocation(location),
		s.setKind(kind),
	); err != nil {
		return Site{}, err
	}

	return s, nil
}

// NewNamedSite builds a site whose id is derived from its kind and name, for
// sources that carry no UUID of their own.
func NewNamedSite(name string, location kernel.Location, kind Kind) (Site, error) {
	return NewSite(kernel.NewUUIDFromName(kind.Namespace(), strings.TrimSpace(name)), name, location, kind)
}

func (s Site) Validate() error {
	return s.guard.Validate(ErrSiteIsNotConstructed)
}

func (s Site) ID() kernel.UUID {
	return s.id
}

func (s Site) Name() string {
	return s.name
}

func (s Site) Location() kernel.Location {
	return s.location
}

func (s Site) Kind() Kind {
	return s.kind
}

// DistanceTo is the straight-line distance from the site to a point.
func (s Site) DistanceTo(point kernel.Location) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s.location.Distance(point)
}

func (s *Site) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Site) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	if n := utf8.RuneCountInString(name); n > NameMaxLength {
		return errs.NewValueIsOutOfRangeError("name length", n, 1, NameMaxLength)
	}
	s.name = name
	return nil
}

func (s *Site) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}

func (s *Site) setKind(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	s.kind = kind
	return nil
}
