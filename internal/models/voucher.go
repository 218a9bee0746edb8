package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Voucher struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Code         string          `gorm:"size:32;not null;uniqueIndex" json:"code"`
	DiscountType DiscountType    `gorm:"size:16;not null" json:"discount_type"`
	Amount       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	MinSpend     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"min_spend"`
	MaxDiscount  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"max_discount"` // 0 = no cap
	StartAt      *time.Time      `json:"start_at"`
	EndAt        *time.Time      `json:"end_at"`
	UsageLimit   uint            `gorm:"not null" json:"usage_limit"` // 0 = unlimited
	UsedCount    uint            `gorm:"not null" json:"used_count"`
	Active       bool            `gorm:"not null;index" json:"active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func NewVoucher() *Voucher {
	return &Voucher{DiscountType: DiscountPercent, Active: true}
}

func (v *Voucher) Validate() error {
	v.Code = strings.TrimSpace(v.Code)
	if v.Code == "" {
		return invalid("code is required")
	}
	if !v.DiscountType.Valid() {
		return invalid(fmt.Sprintf("unknown discount_type %q", v.DiscountType))
	}
	if v.Amount.IsNegative() || v.MinSpend.IsNegative() || v.MaxDiscount.IsNegative() {
		return invalid("amounts cannot be negative")
	}
	if v.DiscountType == DiscountPercent && v.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return invalid("percent discount cannot exceed 100")
	}
	if v.StartAt != nil && v.EndAt != nil && v.EndAt.Before(*v.StartAt) {
		return invalid("end_at is before start_at")
	}
	return nil
}

// Exhausted reports whether the usage cap has been reached.
func (v *Voucher) Exhausted() bool {
	return v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit
}

type Address struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	UserID    uint     `gorm:"not null;index" json:"user_id"`
	Line1     string   `gorm:"size:200;not null" json:"line1"`
	Line2     string   `gorm:"size:200" json:"line2"`
	City      string   `gorm:"size:100" json:"city"`
	Postcode  string   `gorm:"size:20" json:"postcode"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	IsDefault bool     `gorm:"not null" json:"is_default"`
}

func (a *Address) Validate() error {
	a.Line1 = strings.TrimSpace(a.Line1)
	if a.UserID == 0 {
		return invalid("user_id is required")
	}
	if a.Line1 == "" {
		return invalid("line1 is required")
	}
	return nil
}
