package rider

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"restoran-web/internal/models"

	"gorm.io/gorm"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrAlreadyClaimed = errors.New("already accepted by another rider")
	ErrNotAssigned    = errors.New("not your assignment")
	ErrOrderClosed    = errors.New("order is already closed")
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, now: now}
}

var riderOrderTypes = []models.OrderType{models.OrderTypeDelivery, models.OrderTypeTakeaway}

// Available lists ready delivery and takeaway orders nobody has claimed.
func (s *Service) Available(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := s.db.WithContext(ctx).
		Where("status = ? AND order_type IN ?", models.OrderStatusReady, riderOrderTypes).
		Where("NOT EXISTS (SELECT 1 FROM rider_assignments ra WHERE ra.order_id = orders.id AND ra.rider_id IS NOT NULL)").
		Order("created_at, id").
		Find(&out).Error
	return out, err
}

// Mine lists orders the rider holds that are not delivered yet, with
// their assignments.
func (s *Service) Mine(ctx context.Context, riderID uint) ([]models.Order, error) {
	var out []models.Order
	err := s.db.WithContext(ctx).
		Preload("RiderAssignment").
		Where("EXISTS (SELECT 1 FROM rider_assignments ra WHERE ra.order_id = orders.id AND ra.rider_id = ? AND ra.status <> ?)",
			riderID, models.AssignmentCompleted).
		Order("created_at, id").
		Find(&out).Error
	return out, err
}

// loadAssignment returns the order and its assignment, creating the
// assignment when the order has none.
func loadAssignment(tx *gorm.DB, orderID uint) (*models.Order, *models.RiderAssignment, error) {
	var o models.Order
	if err := tx.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}

	var ra models.RiderAssignment
	err := tx.Where("order_id = ?", o.ID).First(&ra).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		ra = *models.NewRiderAssignment()
		ra.OrderID = o.ID
		err = tx.Create(&ra).Error
	}
	if err != nil {
		return nil, nil, err
	}
	return &o, &ra, nil
}

// Accept claims the order for the rider. The claim is a single conditional
// update, so two riders racing for one order cannot both win. Accepting an
// order the rider already holds succeeds again.
func (s *Service) Accept(ctx context.Context, orderID, riderID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, ra, err := loadAssignment(tx, orderID)
		if err != nil {
			return err
		}
		if ra.RiderID != nil {
			if *ra.RiderID == riderID {
				return nil
			}
			return ErrAlreadyClaimed
		}
		if o.Status.Terminal() {
			return ErrOrderClosed
		}

		res := tx.Model(&models.RiderAssignment{}).
			Where("id = ? AND rider_id IS NULL", ra.ID).
			Updates(map[string]any{
				"rider_id":    riderID,
				"accepted_at": s.now(),
				"status":      models.AssignmentAccepted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			return nil
		}

		var current models.RiderAssignment
		if err := tx.First(&current, ra.ID).Error; err != nil {
			return err
		}
		if current.RiderID != nil && *current.RiderID == riderID {
			return nil
		}
		return ErrAlreadyClaimed
	})
}

// Rider steps only apply while the kitchen has handed the order over.
var riderOrderStatuses = []models.OrderStatus{models.OrderStatusReady, models.OrderStatusDelivering}

// Picked marks the food as collected: assignment and order both become
// delivering. Repeating it on an order already out for delivery is a no-op.
func (s *Service) Picked(ctx context.Context, orderID, riderID uint) error {
	return s.advance(ctx, orderID, riderID, step{
		stamp:      "picked_at",
		assignment: models.AssignmentDelivering,
		order:      models.OrderStatusDelivering,
		from:       []models.AssignmentStatus{models.AssignmentAccepted, models.AssignmentDelivering},
	})
}

// Complete marks the order delivered: assignment and order both become
// completed. A completed or cancelled order cannot be completed again.
func (s *Service) Complete(ctx context.Context, orderID, riderID uint) error {
	return s.advance(ctx, orderID, riderID, step{
		stamp:      "delivered_at",
		assignment: models.AssignmentCompleted,
		order:      models.OrderStatusCompleted,
		from:       []models.AssignmentStatus{models.AssignmentAccepted, models.AssignmentDelivering},
	})
}

type step struct {
	stamp      string
	assignment models.AssignmentStatus
	order      models.OrderStatus
	from       []models.AssignmentStatus
}

func (s *Service) advance(ctx context.Context, orderID, riderID uint, st step) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, ra, err := loadAssignment(tx, orderID)
		if err != nil {
			return err
		}
		if ra.RiderID == nil || *ra.RiderID != riderID {
			return ErrNotAssigned
		}
		if !slices.Contains(riderOrderStatuses, o.Status) || !slices.Contains(st.from, ra.Status) {
			return fmt.Errorf("%w: order is %s", ErrOrderClosed, o.Status)
		}
		if o.Status == st.order && ra.Status == st.assignment {
			return nil
		}

		res := tx.Model(&models.RiderAssignment{}).
			Where("id = ? AND status IN ?", ra.ID, st.from).
			Updates(map[string]any{st.stamp: s.now(), "status": st.assignment})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: assignment changed concurrently", ErrOrderClosed)
		}

		res = tx.Model(&models.Order{}).
			Where("id = ? AND status IN ?", o.ID, riderOrderStatuses).
			Update("status", st.order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order changed concurrently", ErrOrderClosed)
		}
		return nil
	})
}
