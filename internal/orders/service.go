package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restoran-web/internal/auth"
	"restoran-web/internal/inventory"
	"restoran-web/internal/models"
	"restoran-web/internal/pricing"
	"restoran-web/internal/vouchers"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrForbidden         = errors.New("not allowed to view this order")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrAlreadyPaid       = errors.New("payment already recorded")
)

const (
	myOrdersLimit = 100
	queueLimit    = 200
)

type Service struct {
	db       *gorm.DB
	repo     *Repository
	vouchers *vouchers.Repository
	stock    *inventory.Service
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, vr *vouchers.Repository, stock *inventory.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, repo: repo, vouchers: vr, stock: stock, now: now}
}

// Create prices and stores an order in a single transaction: the order,
// its items, an unpaid payment and, for delivery or takeaway, an open rider
// assignment. A voucher that takes effect has its usage counted in the
// same transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Order, error) {
	subtotal := in.Subtotal
	items := make([]models.OrderItem, 0, len(in.Items))
	itemsTotal := decimal.Zero
	for _, it := range in.Items {
		line := pricing.Round2(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		itemsTotal = itemsTotal.Add(line)
		items = append(items, models.OrderItem{
			MenuItemID: it.MenuItemID,
			FoodSetID:  it.FoodSetID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  it.Price,
			TotalPrice: line,
			Note:       it.Note,
		})
	}
	if !in.HasSubtotal && len(items) > 0 {
		subtotal = itemsTotal
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := resolveCatalog(tx, items); err != nil {
			return err
		}

		v, err := s.vouchers.FindByCode(tx, in.VoucherCode)
		if err != nil {
			return fmt.Errorf("find voucher: %w", err)
		}

		res := pricing.ApplyVoucher(v, subtotal, in.DeliveryFee, s.now())
		if v != nil && res.Applied() {
			counted, err := s.vouchers.IncrementUsage(tx, v.ID)
			if err != nil {
				return fmt.Errorf("count voucher usage: %w", err)
			}
			if !counted {
				// limit reached by a concurrent order
				res = pricing.Result{Discount: decimal.Zero, DeliveryFee: in.DeliveryFee}
			}
		}
		total := pricing.OrderTotal(subtotal, res.Discount, res.DeliveryFee)

		order = models.NewOrder()
		order.UserID = &in.UserID
		order.OrderType = in.Type
		order.TableNumber = in.TableNumber
		order.AddressText = in.AddressText
		order.Lat = in.Lat
		order.Lng = in.Lng
		order.Subtotal = subtotal
		order.DeliveryFee = res.DeliveryFee
		order.DiscountAmount = res.Discount
		order.Total = total
		order.Items = items

		if v != nil {
			order.VoucherID = &v.ID
		}

		payment := models.NewPayment()
		payment.Method = in.PaymentMethod
		payment.Amount = total
		order.Payment = payment

		if in.Type.NeedsRider() {
			order.RiderAssignment = models.NewRiderAssignment()
		}

		return s.repo.Create(tx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// resolveCatalog checks linked menu items and food sets exist and fills in
// missing item names from them.
func resolveCatalog(tx *gorm.DB, items []models.OrderItem) error {
	for i := range items {
		it := &items[i]
		switch {
		case it.MenuItemID != nil:
			var m models.MenuItem
			if err := tx.Select("id", "name").First(&m, *it.MenuItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: menu item %d does not exist", ErrInvalidPayload, *it.MenuItemID)
				}
				return err
			}
			if it.Name == "" {
				it.Name = m.Name
			}
		case it.FoodSetID != nil:
			var f models.FoodSet
			if err := tx.Select("id", "name").First(&f, *it.FoodSetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: food set %d does not exist", ErrInvalidPayload, *it.FoodSetID)
				}
				return err
			}
			if it.Name == "" {
				it.Name = f.Name
			}
		}
	}
	return nil
}

func (s *Service) ListMine(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.repo.ListForUser(s.db.WithContext(ctx), userID, myOrdersLimit)
}

// Get returns an order with its details. Customers only see their own.
func (s *Service) Get(ctx context.Context, id uint, p *auth.Principal) (*models.Order, error) {
	o, err := s.repo.GetDetail(s.db.WithContext(ctx), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if !canView(o, p) {
		return nil, ErrForbidden
	}
	return o, nil
}

func canView(o *models.Order, p *auth.Principal) bool {
	switch p.Role {
	case models.RoleStaff, models.RoleChef, models.RoleAdmin:
		return true
	}
	if o.UserID != nil && *o.UserID == p.UserID {
		return true
	}
	if p.Role == models.RoleRider && o.RiderAssignment != nil && o.RiderAssignment.RiderID != nil {
		return *o.RiderAssignment.RiderID == p.UserID
	}
	return false
}

// Queue lists open orders for the kitchen, oldest first.
func (s *Service) Queue(ctx context.Context, status string) ([]models.Order, error) {
	var statuses []models.OrderStatus
	if status != "" {
		st := models.OrderStatus(status)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		statuses = append(statuses, st)
	}
	return s.repo.ListOpen(s.db.WithContext(ctx), statuses, queueLimit)
}

// Transition moves an order along the kitchen workflow. Entering
// preparing consumes the ingredients of the order.
func (s *Service) Transition(ctx context.Context, id uint, to models.OrderStatus) (*models.Order, error) {
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}

	var out *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.repo.Get(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if !CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
		}

		n, err := s.repo.UpdateStatusGuard(tx, o.ID, o.Status, to)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}

		if to == models.OrderStatusPreparing {
			if _, err := s.stock.DeductForOrder(tx, o.ID); err != nil {
				return fmt.Errorf("deduct stock: %w", err)
			}
		}

		out, err = s.repo.GetDetail(tx, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Pay records the payment. An order waiting for payment moves to paid.
func (s *Service) Pay(ctx context.Context, id uint, method string) (*models.Order, error) {
	var out *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		o, err := s.repo.GetDetail(tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return err
		}
		if o.Status == models.OrderStatusCancelled {
			return fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
		}

		pay := o.Payment
		if pay == nil {
			pay = models.NewPayment()
			pay.OrderID = o.ID
			pay.Amount = o.Total
		}
		if pay.Status == models.PaymentPaid {
			return ErrAlreadyPaid
		}
		if method != "" {
			pay.Method = models.ParsePaymentMethod(method)
		}
		now := s.now()
		pay.Status = models.PaymentPaid
		pay.PaidAt = &now
		if err := tx.Save(pay).Error; err != nil {
			return err
		}

		if o.Status == models.OrderStatusWaitingPayment {
			if _, err := s.repo.UpdateStatusGuard(tx, o.ID, o.Status, models.OrderStatusPaid); err != nil {
				return err
			}
		}

		out, err = s.repo.GetDetail(tx, o.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
