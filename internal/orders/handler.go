package orders

import (
	"errors"
	"time"

	"restoran-web/internal/auth"
	"restoran-web/internal/models"
	"restoran-web/internal/payload"
	"restoran-web/internal/pricing"

	"github.com/gofiber/fiber/v2"
)

type CreateResponse struct {
	ID     uint               `json:"id"`
	Status models.OrderStatus `json:"status"`
	Total  string             `json:"total"`
}

type SummaryResponse struct {
	ID             uint               `json:"id"`
	OrderType      models.OrderType   `json:"order_type"`
	Status         models.OrderStatus `json:"status"`
	Subtotal       string             `json:"subtotal"`
	DeliveryFee    string             `json:"delivery_fee"`
	DiscountAmount string             `json:"discount_amount"`
	Total          string             `json:"total"`
	CreatedAt      string             `json:"created_at"`
}

type ItemResponse struct {
	ID         uint   `json:"id"`
	MenuItemID *uint  `json:"menu_item_id"`
	FoodSetID  *uint  `json:"food_set_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
	Note       string `json:"note"`
}

type PaymentResponse struct {
	Method models.PaymentMethod `json:"method"`
	Amount string               `json:"amount"`
	Status models.PaymentStatus `json:"status"`
	PaidAt *string              `json:"paid_at"`
}

type AssignmentResponse struct {
	RiderID     *uint                   `json:"rider_id"`
	Status      models.AssignmentStatus `json:"status"`
	AcceptedAt  *string                 `json:"accepted_at"`
	PickedAt    *string                 `json:"picked_at"`
	DeliveredAt *string                 `json:"delivered_at"`
}

type DetailResponse struct {
	SummaryResponse
	UserID          *uint                `json:"user_id"`
	TableNumber     string               `json:"table_number"`
	AddressText     string               `json:"address_text"`
	Lat             *float64             `json:"lat"`
	Lng             *float64             `json:"lng"`
	VoucherID       *uint                `json:"voucher_id"`
	Items           []ItemResponse       `json:"items"`
	Payment         *PaymentResponse     `json:"payment"`
	RiderAssignment *AssignmentResponse  `json:"rider_assignment"`
	NextStatuses    []models.OrderStatus `json:"next_statuses"`
}

func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toSummary(o models.Order) SummaryResponse {
	return SummaryResponse{
		ID:             o.ID,
		OrderType:      o.OrderType,
		Status:         o.Status,
		Subtotal:       pricing.Money(o.Subtotal),
		DeliveryFee:    pricing.Money(o.DeliveryFee),
		DiscountAmount: pricing.Money(o.DiscountAmount),
		Total:          pricing.Money(o.Total),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
	}
}

func toDetail(o *models.Order) DetailResponse {
	d := DetailResponse{
		SummaryResponse: toSummary(*o),
		UserID:          o.UserID,
		TableNumber:     o.TableNumber,
		AddressText:     o.AddressText,
		Lat:             o.Lat,
		Lng:             o.Lng,
		VoucherID:       o.VoucherID,
		Items:           make([]ItemResponse, 0, len(o.Items)),
		NextStatuses:    NextStatuses(o.Status),
	}
	for _, it := range o.Items {
		d.Items = append(d.Items, ItemResponse{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			FoodSetID:  it.FoodSetID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  pricing.Money(it.UnitPrice),
			TotalPrice: pricing.Money(it.TotalPrice),
			Note:       it.Note,
		})
	}
	if p := o.Payment; p != nil {
		d.Payment = &PaymentResponse{
			Method: p.Method,
			Amount: pricing.Money(p.Amount),
			Status: p.Status,
			PaidAt: isoTime(p.PaidAt),
		}
	}
	if ra := o.RiderAssignment; ra != nil {
		d.RiderAssignment = &AssignmentResponse{
			RiderID:     ra.RiderID,
			Status:      ra.Status,
			AcceptedAt:  isoTime(ra.AcceptedAt),
			PickedAt:    isoTime(ra.PickedAt),
			DeliveredAt: isoTime(ra.DeliveredAt),
		}
	}
	return d
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidStatus):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrOrderNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Order not found")
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAlreadyPaid):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}

func orderID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid order id")
	}
	return uint(id), nil
}

// POST /api/orders/
func CreateHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		if p == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}

		in, err := ParseCreate(c.Body())
		if err != nil {
			return mapError(err)
		}
		in.UserID = p.UserID

		o, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return mapError(err)
		}
		return c.JSON(CreateResponse{ID: o.ID, Status: o.Status, Total: pricing.Money(o.Total)})
	}
}

// GET /api/orders/my
func MyOrdersHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := auth.CurrentPrincipal(c)
		if p == nil {
			return fiber.NewError(fiber.StatusForbidden, "Authentication required")
		}
		list, err := svc.ListMine(c.UserContext(), p.UserID)
		if err != nil {
			return err
		}
		resp := make([]SummaryResponse, 0, len(list))
		for _, o := range list {
			resp = append(resp, toSummary(o))
		}
		return c.JSON(fiber.Map{"orders": resp})
	}
}

// GET /api/orders/:id
func GetHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := orderID(c)
		if err != nil {
			return err
		}
		o, err := svc.Get(c.UserContext(), id, auth.CurrentPrincipal(c))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(toDetail(o))
	}
}

// GET /api/orders/queue?status=preparing
func QueueHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.Queue(c.UserContext(), c.Query("status"))
		if err != nil {
			return mapError(err)
		}
		resp := make([]DetailResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toDetail(&list[i]))
		}
		return c.JSON(fiber.Map{"orders": resp})
	}
}

// POST /api/orders/:id/status {"status": "preparing"}
func UpdateStatusHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := orderID(c)
		if err != nil {
			return err
		}
		body := payload.Parse(c.Body())
		to := body.String("status")
		if to == "" {
			return fiber.NewError(fiber.StatusBadRequest, "status is required")
		}
		o, err := svc.Transition(c.UserContext(), id, models.OrderStatus(to))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(toDetail(o))
	}
}

// POST /api/orders/:id/pay {"method": "qr"}
func PayHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := orderID(c)
		if err != nil {
			return err
		}
		body := payload.Parse(c.Body())
		o, err := svc.Pay(c.UserContext(), id, body.String("method", "paymentMethod", "payment_method"))
		if err != nil {
			return mapError(err)
		}
		return c.JSON(toDetail(o))
	}
}
