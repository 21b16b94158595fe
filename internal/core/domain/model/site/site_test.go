package site_test

import (
	"strings"
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSite(t *testing.T) {
	validID := kernel.NewUUID()
	validLoc := kernel.MustNewLocation(10, 10)

	tests := []struct {
		name     string
		id       kernel.UUID
		siteName string
		location kernel.Location
		kind     site.Kind
		wantErr  error
	}{
		{name: "valid facility", id: validID, siteName: "F2", location: validLoc, kind: site.Facility},
		{name: "valid relay point", id: validID, siteName: "R2", location: validLoc, kind: site.RelayPoint},
		{name: "zero id", siteName: "F2", location: validLoc, kind: site.Facility, wantErr: kernel.ErrUUIDIsNotConstructed},
		{name: "blank name", id: validID, siteName: "   ", location: validLoc, kind: site.Facility, wantErr: errs.ErrValueIsRequired},
		{
			name: "name too long", id: validID, siteName: strings.Repeat("x", site.NameMaxLength+1),
			location: validLoc, kind: site.Facility, wantErr: errs.ErrValueIsOutOfRange,
		},
		{name: "zero location", id: validID, siteName: "F2", kind: site.Facility, wantErr: kernel.ErrLocationIsNotConstructed},
		{name: "unknown kind", id: validID, siteName: "F2", location: validLoc, kind: site.UnknownKind, wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := site.NewSite(tt.id, tt.siteName, tt.location, tt.kind)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.ErrorIs(t, s.Validate(), site.ErrSiteIsNotConstructed)
				return
			}

			require.NoError(t, err)
			require.NoError(t, s.Validate())
			assert.True(t, s.ID().IsEqual(tt.id))
			assert.Equal(t, tt.siteName, s.Name())
			assert.Equal(t, tt.kind, s.Kind())
		})
	}
}

func TestNewNamedSite(t *testing.T) {
	loc := kernel.MustNewLocation(1, 1)

	f, err := site.NewNamedSite("R1", loc, site.Facility)
	require.NoError(t, err)
	r, err := site.NewNamedSite(" R1 ", loc, site.RelayPoint)
	require.NoError(t, err)
	again, err := site.NewNamedSite("R1", loc, site.RelayPoint)
	require.NoError(t, err)

	assert.Equal(t, "R1", r.Name(), "names are trimmed")
	assert.True(t, r.ID().IsEqual(again.ID()), "ids are stable across loads")
	assert.False(t, f.ID().IsEqual(r.ID()), "kinds use separate namespaces")
}

func TestSite_DistanceTo(t *testing.T) {
	f1, err := site.NewNamedSite("F1", kernel.MustNewLocation(0, 0), site.Facility)
	require.NoError(t, err)

	d, err := f1.DistanceTo(kernel.MustNewLocation(3, 4))
	require.NoError(t, err)
	assert.InDelta(t, 5.0, d, 1e-9)

	_, err = site.Site{}.DistanceTo(kernel.MustNewLocation(3, 4))
	require.ErrorIs(t, err, site.ErrSiteIsNotConstructed)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "Facility", site.Facility.String())
	assert.Equal(t, "RelayPoint", site.RelayPoint.String())
	assert.Equal(t, "Unknown", site.Kind(42).String())
}
