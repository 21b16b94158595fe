package siterepo

import (
	"context"
	"fmt"

	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/ports"

	"gorm.io/gorm"
)

var _ ports.SiteSource = (*GormSiteRepository)(nil)

// GormSiteRepository implements ports.SiteSource using GORM.
type GormSiteRepository struct {
	db *gorm.DB
}

func NewGormSiteRepository(db *gorm.DB) *GormSiteRepository {
	return &GormSiteRepository{db: db}
}

// Migrate creates or updates the sites table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&SiteDTO{})
}

// LoadSites returns every stored site of both kinds ordered by kind, then name.
// A row that no longer passes domain validation fails the whole load.
func (r *GormSiteRepository) LoadSites(ctx context.Context) ([]site.Site, error) {
	var dtos []SiteDTO
	if err := r.db.WithContext(ctx).Order("kind").Order("name").Find(&dtos).Error; err != nil {
		return nil, err
	}

	sites := make([]site.Site, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", dto.Name, err)
		}
		sites = append(sites, s)
	}

	return sites, nil
}
