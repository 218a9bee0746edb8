package vouchers

import (
	"errors"
	"strings"

	"restoran-web/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// FindByCode looks a voucher up case-insensitively. A missing or blank code
// yields nil without an error.
func (r *Repository) FindByCode(tx *gorm.DB, code string) (*models.Voucher, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var v models.Voucher
	err := tx.Where("LOWER(code) = LOWER(?)", code).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// IncrementUsage bumps used_count unless the usage limit was reached in the
// meantime. It reports whether the row was updated.
func (r *Repository) IncrementUsage(tx *gorm.DB, id uint) (bool, error) {
	res := tx.Model(&models.Voucher{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected > 0, res.Error
}
