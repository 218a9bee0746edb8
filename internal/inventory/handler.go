package inventory

import (
	"errors"
	"strconv"
	"strings"

	"restoran-web/internal/auth"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateMovementRequest struct {
	IngredientID uint    `json:"ingredient_id"`
	Type         string  `json:"type"` // in | out
	Quantity     float64 `json:"quantity"`
	Reason       string  `json:"reason"`
}

type MovementResponse struct {
	ID             uint    `json:"id"`
	IngredientID   uint    `json:"ingredient_id"`
	IngredientName string  `json:"ingredient_name,omitempty"`
	OrderID        *uint   `json:"order_id"`
	ChangeQty      float64 `json:"change_qty"`
	Type           string  `json:"type"`
	Reason         string  `json:"reason"`
	CreatedAt      string  `json:"created_at"`
}

func toMovementResponse(t models.InventoryTransaction) MovementResponse {
	r := MovementResponse{
		ID:           t.ID,
		IngredientID: t.IngredientID,
		OrderID:      t.OrderID,
		ChangeQty:    t.ChangeQty,
		Type:         string(t.Type),
		Reason:       t.Reason,
		CreatedAt:    t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if t.Ingredient != nil {
		r.IngredientName = t.Ingredient.Name
	}
	return r
}

// GET /api/inventory/ingredients?active=true
func ListIngredientsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var active *bool
		if v := c.Query("active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "active must be true or false")
			}
			active = &b
		}
		list, err := svc.ListIngredients(c.UserContext(), active)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ingredients": list})
	}
}

// GET /api/inventory/low-stock
func LowStockHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.LowStock(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"ingredients": list, "count": len(list)})
	}
}

// POST /api/inventory/movements
func CreateMovementHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMovementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.IngredientID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "ingredient_id is required")
		}

		row, ing, err := svc.RecordMovement(c.UserContext(), MovementInput{
			IngredientID: body.IngredientID,
			Type:         models.InventoryTxType(strings.ToLower(strings.TrimSpace(body.Type))),
			Quantity:     body.Quantity,
			Reason:       strings.TrimSpace(body.Reason),
		}, auth.CurrentPrincipal(c))
		switch {
		case errors.Is(err, ErrIngredientNotFound):
			return fiber.NewError(fiber.StatusNotFound, "Ingredient not found")
		case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrInvalidMovement):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		case err != nil:
			return err
		}

		row.Ingredient = ing
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"movement":       toMovementResponse(*row),
			"stock_quantity": ing.StockQuantity,
			"low_stock":      ing.LowStock(),
		})
	}
}

// GET /api/inventory/movements?ingredient_id=&order_id=
func ListMovementsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f := MovementFilter{
			IngredientID: queryID(c, "ingredient_id"),
			OrderID:      queryID(c, "order_id"),
			Limit:        c.QueryInt("limit", 200),
		}
		rows, err := svc.ListMovements(c.UserContext(), f)
		if err != nil {
			return err
		}
		resp := make([]MovementResponse, 0, len(rows))
		for _, r := range rows {
			resp = append(resp, toMovementResponse(r))
		}
		return c.JSON(fiber.Map{"movements": resp})
	}
}

// queryID reads an optional id parameter; anything but a positive integer
// means no filter.
func queryID(c *fiber.Ctx, key string) uint {
	n := c.QueryInt(key, 0)
	if n <= 0 {
		return 0
	}
	return uint(n)
}
