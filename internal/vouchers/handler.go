package vouchers

import (
	"time"

	"restoran-web/internal/payload"
	"restoran-web/internal/pricing"

	"github.com/gofiber/fiber/v2"
)

type ValidateResponse struct {
	Valid       bool   `json:"valid"`
	Discount    string `json:"discount"`
	DeliveryFee string `json:"delivery_fee"`
	FreeShip    bool   `json:"free_ship"`
}

// POST /api/vouchers/validate/
//
// valid only says whether the code exists; an expired or under-spend
// voucher is still valid but yields no discount.
func ValidateHandler(repo *Repository, now func() time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := payload.Parse(c.Body())

		subtotal, _, err := body.Decimal("subtotal")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		fee, _, err := body.Decimal("delivery_fee", "deliveryFee")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		v, err := repo.FindByCode(repo.DB.WithContext(c.UserContext()), body.String("code"))
		if err != nil {
			return err
		}

		res := pricing.ApplyVoucher(v, subtotal, fee, now())
		return c.JSON(ValidateResponse{
			Valid:       v != nil,
			Discount:    pricing.Money(res.Discount),
			DeliveryFee: pricing.Money(res.DeliveryFee),
			FreeShip:    res.FreeShip,
		})
	}
}
