package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	UserID         *uint           `gorm:"index" json:"user_id"`
	User           *User           `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	OrderType      OrderType       `gorm:"size:16;not null;index" json:"order_type"`
	TableNumber    string          `gorm:"size:16" json:"table_number"`
	AddressText    string          `gorm:"size:255" json:"address_text"`
	Lat            *float64        `json:"lat"`
	Lng            *float64        `json:"lng"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DeliveryFee    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"delivery_fee"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status         OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	VoucherID      *uint           `gorm:"index" json:"voucher_id"`
	Voucher        *Voucher        `gorm:"constraint:OnDelete:SET NULL" json:"voucher,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Items           []OrderItem      `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payment         *Payment         `gorm:"constraint:OnDelete:CASCADE" json:"payment,omitempty"`
	RiderAssignment *RiderAssignment `gorm:"constraint:OnDelete:CASCADE" json:"rider_assignment,omitempty"`
}

func NewOrder() *Order {
	return &Order{OrderType: OrderTypeDelivery, Status: OrderStatusPending}
}

func (o *Order) Validate() error {
	if o.Subtotal.IsNegative() || o.DeliveryFee.IsNegative() || o.DiscountAmount.IsNegative() {
		return invalid("amounts must not be negative")
	}
	if !o.OrderType.Valid() {
		return invalid(fmt.Sprintf("unknown order_type %q", o.OrderType))
	}
	if !o.Status.Valid() {
		return invalid(fmt.Sprintf("unknown status %q", o.Status))
	}
	return nil
}

type OrderItem struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	OrderID    uint            `gorm:"not null;index" json:"order_id"`
	MenuItemID *uint           `gorm:"index" json:"menu_item_id"`
	MenuItem   *MenuItem       `gorm:"constraint:OnDelete:SET NULL" json:"menu_item,omitempty"`
	FoodSetID  *uint           `gorm:"index" json:"food_set_id"`
	FoodSet    *FoodSet        `gorm:"constraint:OnDelete:SET NULL" json:"food_set,omitempty"`
	Name       string          `gorm:"size:160" json:"name"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	Note       string          `gorm:"size:255" json:"note"`
}

func NewOrderItem() *OrderItem {
	return &OrderItem{Quantity: 1}
}

func (i *OrderItem) Validate() error {
	if i.OrderID == 0 {
		return invalid("order_id is required")
	}
	if i.Quantity < 1 {
		return invalid("quantity must be at least 1")
	}
	return nil
}

type Payment struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;uniqueIndex" json:"order_id"`
	Method    PaymentMethod   `gorm:"size:16;not null" json:"method"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaidAt    *time.Time      `json:"paid_at"`
	Status    PaymentStatus   `gorm:"size:20;not null" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewPayment() *Payment {
	return &Payment{Method: PaymentCash, Status: PaymentUnpaid}
}

func (p *Payment) Validate() error {
	if p.OrderID == 0 {
		return invalid("order_id is required")
	}
	if !p.Method.Valid() {
		return invalid(fmt.Sprintf("unknown method %q", p.Method))
	}
	return nil
}

// RiderAssignment is the claim-and-deliver record linking one rider to one order.
type RiderAssignment struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	OrderID     uint             `gorm:"not null;uniqueIndex" json:"order_id"`
	RiderID     *uint            `gorm:"index" json:"rider_id"`
	Rider       *User            `gorm:"constraint:OnDelete:SET NULL" json:"rider,omitempty"`
	AcceptedAt  *time.Time       `json:"accepted_at"`
	PickedAt    *time.Time       `json:"picked_at"`
	DeliveredAt *time.Time       `json:"delivered_at"`
	Status      AssignmentStatus `gorm:"size:20;not null;index" json:"status"`
}

func NewRiderAssignment() *RiderAssignment {
	return &RiderAssignment{Status: AssignmentAvailable}
}

func (r *RiderAssignment) Validate() error {
	if r.OrderID == 0 {
		return invalid("order_id is required")
	}
	if !r.Status.Valid() {
		return invalid(fmt.Sprintf("unknown status %q", r.Status))
	}
	return nil
}

// ValidateChange rejects edits that hand an accepted order to another rider
// or release it.
func (r *RiderAssignment) ValidateChange(before *RiderAssignment) error {
	if before.RiderID == nil {
		return nil
	}
	if r.RiderID == nil || *r.RiderID != *before.RiderID {
		return invalid("rider_id cannot change once a rider has accepted")
	}
	if r.OrderID != before.OrderID {
		return invalid("order_id cannot change once a rider has accepted")
	}
	return nil
}

// InventoryTransaction is one logged stock movement of an ingredient.
type InventoryTransaction struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	IngredientID uint            `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   *Ingredient     `gorm:"constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
	OrderID      *uint           `gorm:"index" json:"order_id"`
	Order        *Order          `gorm:"constraint:OnDelete:SET NULL" json:"order,omitempty"`
	ChangeQty    float64         `gorm:"not null" json:"change_qty"`
	Type         InventoryTxType `gorm:"size:8;not null" json:"type"`
	Reason       string          `gorm:"size:255" json:"reason"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
}

func (t *InventoryTransaction) Validate() error {
	if t.IngredientID == 0 {
		return invalid("ingredient_id is required")
	}
	if !t.Type.Valid() {
		return invalid(fmt.Sprintf("unknown type %q", t.Type))
	}
	return nil
}
