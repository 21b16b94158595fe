// Package siterepo reads the site directory from a postgres table shared by both
// site kinds.
package siterepo

import (
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/site"

	"github.com/google/uuid"
)

// SiteDTO is one row of the sites table.
type SiteDTO struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_sites_kind_name"`
	Kind int       `gorm:"type:smallint;not null;uniqueIndex:idx_sites_kind_name"`
	X    float64   `gorm:"type:double precision;not null"`
	Y    float64   `gorm:"type:double precision;not null"`
}

// TableName overrides GORM's default "site_dtos".
func (SiteDTO) TableName() string {
	return "sites"
}

func fromDomain(s site.Site) SiteDTO {
	return SiteDTO{
		ID:   s.ID().Bytes(),
		Name: s.Name(),
		Kind: int(s.Kind()),
		X:    s.Location().X(),
		Y:    s.Location().Y(),
	}
}

func toDomain(dto SiteDTO) (site.Site, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return site.Site{}, err
	}

	loc, err := kernel.NewLocation(dto.X, dto.Y)
	if err != nil {
		return site.Site{}, err
	}

	return site.NewSite(id, dto.Name, loc, site.Kind(dto.Kind))
}
