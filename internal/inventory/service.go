package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"restoran-web/internal/audit"
	"restoran-web/internal/auth"
	"restoran-web/internal/models"

	"gorm.io/gorm"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidMovement    = errors.New("invalid stock movement")
)

type Service struct {
	db    *gorm.DB
	audit *audit.Recorder
}

func NewService(db *gorm.DB, rec *audit.Recorder) *Service {
	return &Service{db: db, audit: rec}
}

func (s *Service) ListIngredients(ctx context.Context, active *bool) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name")
	if active != nil {
		q = q.Where("active = ?", *active)
	}
	var out []models.Ingredient
	return out, q.Find(&out).Error
}

// LowStock lists active ingredients at or below their threshold.
func (s *Service) LowStock(ctx context.Context) ([]models.Ingredient, error) {
	var out []models.Ingredient
	err := s.db.WithContext(ctx).
		Where("active = ? AND stock_quantity <= low_stock_threshold", true).
		Order("stock_quantity, name").
		Find(&out).Error
	return out, err
}

type MovementInput struct {
	IngredientID uint
	Type         models.InventoryTxType
	Quantity     float64
	Reason       string
}

// RecordMovement adjusts stock and logs the transaction. An outgoing
// movement larger than the stock on hand fails with ErrInsufficientStock.
func (s *Service) RecordMovement(ctx context.Context, in MovementInput, actor *auth.Principal) (*models.InventoryTransaction, *models.Ingredient, error) {
	if !in.Type.Valid() {
		return nil, nil, fmt.Errorf("%w: type must be in or out", ErrInvalidMovement)
	}
	if in.Quantity <= 0 {
		return nil, nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidMovement)
	}

	var txRow models.InventoryTransaction
	var ing models.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ing, in.IngredientID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrIngredientNotFound
			}
			return err
		}
		before := ing

		q := tx.Model(&models.Ingredient{}).Where("id = ?", ing.ID)
		var res *gorm.DB
		if in.Type == models.InventoryIn {
			res = q.UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", in.Quantity))
		} else {
			res = q.Where("stock_quantity >= ?", in.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", in.Quantity))
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientStock
		}

		txRow = models.InventoryTransaction{
			IngredientID: ing.ID,
			ChangeQty:    in.Quantity,
			Type:         in.Type,
			Reason:       in.Reason,
		}
		if err := tx.Create(&txRow).Error; err != nil {
			return err
		}
		if err := tx.First(&ing, ing.ID).Error; err != nil {
			return err
		}

		if s.audit == nil || actor == nil {
			return nil
		}
		_, err := s.audit.Write(tx, audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Name,
			EntityType:  MovementEntity,
			EntityID:    txRow.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Stock %s %.3f %s of %s (%.3f -> %.3f)", in.Type, in.Quantity, ing.Unit, ing.Name, before.StockQuantity, ing.StockQuantity),
			After:       txRow,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return &txRow, &ing, nil
}

type MovementFilter struct {
	IngredientID uint
	OrderID      uint
	Limit        int
}

func (s *Service) ListMovements(ctx context.Context, f MovementFilter) ([]models.InventoryTransaction, error) {
	q := s.db.WithContext(ctx).Preload("Ingredient")
	if f.IngredientID > 0 {
		q = q.Where("ingredient_id = ?", f.IngredientID)
	}
	if f.OrderID > 0 {
		q = q.Where("order_id = ?", f.OrderID)
	}
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	var out []models.InventoryTransaction
	return out, q.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error
}

// DeductForOrder consumes the ingredients of every item in the order and
// writes one outgoing transaction per ingredient. Food sets expand through
// their set items. Stock never goes below zero. It must run inside the
// caller's transaction.
func (s *Service) DeductForOrder(tx *gorm.DB, orderID uint) ([]models.InventoryTransaction, error) {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return nil, err
	}

	units := map[uint]float64{} // menu item id -> units ordered
	var setIDs []uint
	setQty := map[uint]float64{}
	for _, it := range items {
		switch {
		case it.MenuItemID != nil:
			units[*it.MenuItemID] += float64(it.Quantity)
		case it.FoodSetID != nil:
			if _, seen := setQty[*it.FoodSetID]; !seen {
				setIDs = append(setIDs, *it.FoodSetID)
			}
			setQty[*it.FoodSetID] += float64(it.Quantity)
		}
	}

	if len(setIDs) > 0 {
		var setItems []models.SetItem
		if err := tx.Where("food_set_id IN ?", setIDs).Find(&setItems).Error; err != nil {
			return nil, err
		}
		for _, si := range setItems {
			units[si.MenuItemID] += setQty[si.FoodSetID] * float64(si.Quantity)
		}
	}
	if len(units) == 0 {
		return nil, nil
	}

	menuIDs := make([]uint, 0, len(units))
	for id := range units {
		menuIDs = append(menuIDs, id)
	}
	var usages []models.IngredientUsage
	if err := tx.Where("menu_item_id IN ?", menuIDs).Find(&usages).Error; err != nil {
		return nil, err
	}

	need := map[uint]float64{}
	for _, u := range usages {
		need[u.IngredientID] += u.QuantityPerUnit * units[u.MenuItemID]
	}

	ingIDs := make([]uint, 0, len(need))
	for id, qty := range need {
		if qty > 0 {
			ingIDs = append(ingIDs, id)
		}
	}
	sort.Slice(ingIDs, func(i, j int) bool { return ingIDs[i] < ingIDs[j] })

	out := make([]models.InventoryTransaction, 0, len(ingIDs))
	for _, id := range ingIDs {
		var ing models.Ingredient
		if err := tx.Select("id", "stock_quantity").First(&ing, id).Error; err != nil {
			return nil, fmt.Errorf("load ingredient %d: %w", id, err)
		}
		qty := need[id]
		taken := min(qty, max(ing.StockQuantity, 0))
		reason := fmt.Sprintf("order #%d", orderID)
		if taken < qty {
			reason = fmt.Sprintf("order #%d, short %.3f", orderID, qty-taken)
		}

		err := tx.Model(&models.Ingredient{}).Where("id = ?", id).
			UpdateColumn("stock_quantity", gorm.Expr(
				"CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", taken, taken)).Error
		if err != nil {
			return nil, fmt.Errorf("deduct ingredient %d: %w", id, err)
		}
		oid := orderID
		row := models.InventoryTransaction{
			IngredientID: id,
			OrderID:      &oid,
			ChangeQty:    taken,
			Type:         models.InventoryOut,
			Reason:       reason,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// MovementEntity is the audit entity type of stock movements recorded
// through RecordMovement.
const MovementEntity = "stock-movements"

// Reverter resolves the audit reverter for stock movements.
func (s *Service) Reverter(entityType string) (audit.Reverter, bool) {
	if entityType != MovementEntity {
		return nil, false
	}
	return movementReverter{}, true
}

// movementReverter undoes a recorded movement by reversing its effect on
// stock and removing it from the ledger.
type movementReverter struct{}

func (movementReverter) Delete(tx *gorm.DB, id uint) error {
	var mv models.InventoryTransaction
	if err := tx.First(&mv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("movement %d no longer exists", id)
		}
		return err
	}

	q := tx.Model(&models.Ingredient{}).Where("id = ?", mv.IngredientID)
	var res *gorm.DB
	if mv.Type == models.InventoryIn {
		res = q.Where("stock_quantity >= ?", mv.ChangeQty).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", mv.ChangeQty))
	} else {
		res = q.UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", mv.ChangeQty))
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return tx.Delete(&mv).Error
}

func (movementReverter) Restore(*gorm.DB, uint, []byte) error {
	return audit.ErrNotUndoable
}

func (movementReverter) Recreate(*gorm.DB, []byte) error {
	return audit.ErrNotUndoable
}
