package menu

import (
	"context"

	"restoran-web/internal/models"

	"gorm.io/gorm"
)

type Catalog struct {
	Categories    []models.MenuCategory
	ItemsByCat    map[uint][]models.MenuItem
	Uncategorized []models.MenuItem
	Sets          []models.FoodSet
}

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Catalog loads the public menu: available items grouped by category with
// featured ones first, and active food sets with their items.
func (s *Service) Catalog(ctx context.Context) (*Catalog, error) {
	db := s.db.WithContext(ctx)
	cat := &Catalog{ItemsByCat: map[uint][]models.MenuItem{}}

	if err := db.Order("name").Find(&cat.Categories).Error; err != nil {
		return nil, err
	}

	var items []models.MenuItem
	err := db.Where("available = ?", true).
		Order("featured DESC, name").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.CategoryID == nil {
			cat.Uncategorized = append(cat.Uncategorized, it)
			continue
		}
		cat.ItemsByCat[*it.CategoryID] = append(cat.ItemsByCat[*it.CategoryID], it)
	}

	err = db.Where("active = ?", true).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Preload("Items.MenuItem").
		Order("name").
		Find(&cat.Sets).Error
	if err != nil {
		return nil, err
	}
	return cat, nil
}
