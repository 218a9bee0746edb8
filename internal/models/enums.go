package models

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleChef     Role = "chef"
	RoleRider    Role = "rider"
	RoleAdmin    Role = "admin"
)

var Roles = []Role{RoleCustomer, RoleStaff, RoleChef, RoleRider, RoleAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleStaff, RoleChef, RoleRider, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath is where a user with this role lands after login.
func (r Role) DashboardPath() string {
	if !r.Valid() {
		return "/" + string(RoleCustomer) + "/"
	}
	return "/" + string(r) + "/"
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeTakeaway OrderType = "takeaway"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeDineIn, OrderTypeDelivery, OrderTypeTakeaway:
		return true
	}
	return false
}

// NeedsRider reports whether orders of this type get a rider assignment.
func (t OrderType) NeedsRider() bool {
	return t == OrderTypeDelivery || t == OrderTypeTakeaway
}

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusWaitingPayment OrderStatus = "waiting_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusDelivering,
		OrderStatusWaitingPayment, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

type DiscountType string

const (
	DiscountPercent  DiscountType = "percent"
	DiscountFixed    DiscountType = "fixed"
	DiscountFreeShip DiscountType = "free_ship"
)

func (d DiscountType) Valid() bool {
	switch d {
	case DiscountPercent, DiscountFixed, DiscountFreeShip:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentQR   PaymentMethod = "qr"
	PaymentCard PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentQR, PaymentCard:
		return true
	}
	return false
}

// ParsePaymentMethod maps free-form client input onto a method; anything
// unrecognised is cash.
func ParsePaymentMethod(s string) PaymentMethod {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if m.Valid() {
		return m
	}
	return PaymentCash
}

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type AssignmentStatus string

const (
	AssignmentAvailable  AssignmentStatus = "available"
	AssignmentAccepted   AssignmentStatus = "accepted"
	AssignmentDelivering AssignmentStatus = "delivering"
	AssignmentCompleted  AssignmentStatus = "completed"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentAvailable, AssignmentAccepted, AssignmentDelivering, AssignmentCompleted:
		return true
	}
	return false
}

type InventoryTxType string

const (
	InventoryIn  InventoryTxType = "in"
	InventoryOut InventoryTxType = "out"
)

func (t InventoryTxType) Valid() bool {
	return t == InventoryIn || t == InventoryOut
}
