package rider

import (
	"context"
	"errors"

	"restoran-web/internal/auth"
	"restoran-web/internal/models"
	"restoran-web/internal/pricing"

	"github.com/gofiber/fiber/v2"
)

type JobResponse struct {
	ID        uint             `json:"id"`
	OrderType models.OrderType `json:"order_type"`
	Total     string           `json:"total"`
	Address   string           `json:"address"`
}

type MyJobResponse struct {
	JobResponse
	OrderStatus      models.OrderStatus      `json:"order_status"`
	AssignmentStatus models.AssignmentStatus `json:"assignment_status"`
}

func toJob(o models.Order) JobResponse {
	return JobResponse{ID: o.ID, OrderType: o.OrderType, Total: pricing.Money(o.Total), Address: o.AddressText}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusBadRequest, "Order not found")
	case errors.Is(err, ErrAlreadyClaimed):
		return fiber.NewError(fiber.StatusForbidden, "Already accepted by another rider")
	case errors.Is(err, ErrNotAssigned):
		return fiber.NewError(fiber.StatusForbidden, "Not your assignment")
	case errors.Is(err, ErrOrderClosed):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}

// GET /api/rider/jobs/available
func AvailableHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.Available(c.UserContext())
		if err != nil {
			return err
		}
		jobs := make([]JobResponse, 0, len(list))
		for _, o := range list {
			jobs = append(jobs, toJob(o))
		}
		return c.JSON(fiber.Map{"jobs": jobs})
	}
}

// GET /api/rider/jobs/mine
func MineHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		list, err := svc.Mine(c.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		jobs := make([]MyJobResponse, 0, len(list))
		for _, o := range list {
			j := MyJobResponse{JobResponse: toJob(o), OrderStatus: o.Status}
			if o.RiderAssignment != nil {
				j.AssignmentStatus = o.RiderAssignment.Status
			}
			jobs = append(jobs, j)
		}
		return c.JSON(fiber.Map{"jobs": jobs})
	}
}

func jobAction(do func(ctx context.Context, orderID, riderID uint) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Order not found")
		}
		p := auth.CurrentPrincipal(c)
		if err := do(c.UserContext(), uint(id), p.UserID); err != nil {
			return mapError(err)
		}
		return c.JSON(fiber.Map{"ok": true})
	}
}

// POST /api/rider/jobs/:id/accept
func AcceptHandler(svc *Service) fiber.Handler {
	return jobAction(svc.Accept)
}

// POST /api/rider/jobs/:id/picked
func PickedHandler(svc *Service) fiber.Handler {
	return jobAction(svc.Picked)
}

// POST /api/rider/jobs/:id/complete
func CompleteHandler(svc *Service) fiber.Handler {
	return jobAction(svc.Complete)
}
