package addresses

import (
	"errors"

	"restoran-web/internal/auth"
	"restoran-web/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateAddressRequest struct {
	Line1     string   `json:"line1"`
	Line2     string   `json:"line2"`
	City      string   `json:"city"`
	Postcode  string   `json:"postcode"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	IsDefault bool     `json:"is_default"`
}

// GET /api/addresses
func ListHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		list, err := svc.List(c.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"addresses": list})
	}
}

// POST /api/addresses
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateAddressRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		p := auth.CurrentPrincipal(c)
		a := &models.Address{
			UserID:    p.UserID,
			Line1:     body.Line1,
			Line2:     body.Line2,
			City:      body.City,
			Postcode:  body.Postcode,
			Lat:       body.Lat,
			Lng:       body.Lng,
			IsDefault: body.IsDefault,
		}
		if err := svc.Create(c.UserContext(), a); err != nil {
			if errors.Is(err, models.ErrValidation) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	}
}

// DELETE /api/addresses/:id
func DeleteHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid address id")
		}
		p := auth.CurrentPrincipal(c)
		if err := svc.Delete(c.UserContext(), p.UserID, uint(id)); err != nil {
			if errors.Is(err, ErrAddressNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Address not found")
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
