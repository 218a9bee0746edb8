package addresses

import (
	"context"
	"errors"

	"restoran-web/internal/models"

	"gorm.io/gorm"
)

var ErrAddressNotFound = errors.New("address not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns the user's addresses, default first.
func (s *Service) List(ctx context.Context, userID uint) ([]models.Address, error) {
	var out []models.Address
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id").
		Find(&out).Error
	return out, err
}

// Create stores a new address. A default address clears the default flag
// on the user's other addresses, so each user has at most one.
func (s *Service) Create(ctx context.Context, a *models.Address) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			err := tx.Model(&models.Address{}).
				Where("user_id = ? AND is_default = ?", a.UserID, true).
				Update("is_default", false).Error
			if err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

func (s *Service) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
