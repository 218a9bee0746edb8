package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Ingredient struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:120;not null;uniqueIndex" json:"name"`
	Unit              string    `gorm:"size:32;not null" json:"unit"` // kg, L, pcs ...
	StockQuantity     float64   `gorm:"not null" json:"stock_quantity"`
	LowStockThreshold float64   `gorm:"not null" json:"low_stock_threshold"`
	Active            bool      `gorm:"not null;index" json:"active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewIngredient() *Ingredient {
	return &Ingredient{Unit: "kg", Active: true}
}

func (i *Ingredient) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return invalid("name is required")
	}
	if i.StockQuantity < 0 {
		return invalid("stock_quantity cannot be negative")
	}
	if i.LowStockThreshold < 0 {
		return invalid("low_stock_threshold cannot be negative")
	}
	return nil
}

func (i *Ingredient) LowStock() bool {
	return i.StockQuantity <= i.LowStockThreshold
}

type MenuCategory struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

func (c *MenuCategory) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return invalid("name is required")
	}
	return nil
}

type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:160;not null" json:"name"`
	CategoryID  *uint           `gorm:"index" json:"category_id"`
	Category    *MenuCategory   `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `gorm:"size:200" json:"image_url"`
	Available   bool            `gorm:"not null;index" json:"available"`
	Featured    bool            `gorm:"not null" json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	IngredientUsages []IngredientUsage `gorm:"constraint:OnDelete:CASCADE" json:"ingredient_usages,omitempty"`
}

func NewMenuItem() *MenuItem {
	return &MenuItem{Available: true}
}

func (m *MenuItem) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return invalid("name is required")
	}
	if m.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	return nil
}

// IngredientUsage is how much of an ingredient one unit of a menu item consumes.
type IngredientUsage struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	MenuItemID      uint        `gorm:"not null;uniqueIndex:idx_ingredient_usage_pair" json:"menu_item_id"`
	IngredientID    uint        `gorm:"not null;uniqueIndex:idx_ingredient_usage_pair" json:"ingredient_id"`
	Ingredient      *Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredient,omitempty"`
	QuantityPerUnit float64     `gorm:"not null" json:"quantity_per_unit"`
}

func (u *IngredientUsage) Validate() error {
	if u.MenuItemID == 0 || u.IngredientID == 0 {
		return invalid("menu_item_id and ingredient_id are required")
	}
	if u.QuantityPerUnit < 0 {
		return invalid("quantity_per_unit cannot be negative")
	}
	return nil
}

type FoodSet struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:160;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Active    bool            `gorm:"not null;index" json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	Items []SetItem `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func NewFoodSet() *FoodSet {
	return &FoodSet{Active: true}
}

func (f *FoodSet) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return invalid("name is required")
	}
	if f.Price.IsNegative() {
		return invalid("price cannot be negative")
	}
	return nil
}

type SetItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FoodSetID  uint      `gorm:"not null;uniqueIndex:idx_set_item_pair" json:"food_set_id"`
	MenuItemID uint      `gorm:"not null;uniqueIndex:idx_set_item_pair" json:"menu_item_id"`
	MenuItem   *MenuItem `gorm:"constraint:OnDelete:CASCADE" json:"menu_item,omitempty"`
	Quantity   int       `gorm:"not null" json:"quantity"`
}

func NewSetItem() *SetItem {
	return &SetItem{Quantity: 1}
}

func (s *SetItem) Validate() error {
	if s.FoodSetID == 0 || s.MenuItemID == 0 {
		return invalid("food_set_id and menu_item_id are required")
	}
	if s.Quantity < 1 {
		return invalid("quantity must be at least 1")
	}
	return nil
}
