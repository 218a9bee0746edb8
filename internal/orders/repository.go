package orders

import (
	"restoran-web/internal/models"

	"gorm.io/gorm"
)

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

// Create inserts the order with its items, payment and rider assignment.
func (r *Repository) Create(tx *gorm.DB, o *models.Order) error {
	return tx.Create(o).Error
}

func (r *Repository) Get(tx *gorm.DB, id uint) (*models.Order, error) {
	var o models.Order
	if err := tx.First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetDetail loads the order with items, payment and assignment.
func (r *Repository) GetDetail(tx *gorm.DB, id uint) (*models.Order, error) {
	var o models.Order
	err := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Payment").
		Preload("RiderAssignment").
		First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) ListForUser(tx *gorm.DB, userID uint, limit int) ([]models.Order, error) {
	var out []models.Order
	err := tx.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListOpen returns orders oldest first. With no statuses it returns every
// order that is not completed or cancelled.
func (r *Repository) ListOpen(tx *gorm.DB, statuses []models.OrderStatus, limit int) ([]models.Order, error) {
	q := tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	} else {
		q = q.Where("status NOT IN ?", []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled})
	}
	var out []models.Order
	err := q.Order("created_at, id").Limit(limit).Find(&out).Error
	return out, err
}

// UpdateStatusGuard moves the order from one status to another only if it
// is still in the expected status, and reports the affected row count.
func (r *Repository) UpdateStatusGuard(tx *gorm.DB, id uint, from, to models.OrderStatus) (int64, error) {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

func (r *Repository) SetStatus(tx *gorm.DB, id uint, to models.OrderStatus) error {
	return tx.Model(&models.Order{}).Where("id = ?", id).Update("status", to).Error
}
