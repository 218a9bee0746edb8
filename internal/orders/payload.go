package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"restoran-web/internal/models"
	"restoran-web/internal/payload"

	"github.com/shopspring/decimal"
)

// ErrInvalidPayload marks input the order API cannot accept.
var ErrInvalidPayload = errors.New("invalid order payload")

const maxNoteLen = 255

type ItemInput struct {
	Name       string
	Quantity   int
	Price      decimal.Decimal
	Note       string
	MenuItemID *uint
	FoodSetID  *uint
}

type CreateInput struct {
	UserID        uint
	Type          models.OrderType
	AddressText   string
	TableNumber   string
	Lat           *float64
	Lng           *float64
	VoucherCode   string
	Items         []ItemInput
	Subtotal      decimal.Decimal
	HasSubtotal   bool
	DeliveryFee   decimal.Decimal
	PaymentMethod models.PaymentMethod
}

// ParseCreate reads an order from the request body. The body may be the
// order itself, {"order": {...}} or {"data": "<json string>"}; malformed
// JSON counts as an empty order.
func ParseCreate(body []byte) (CreateInput, error) {
	root, ok := payload.ParseObject(body)
	if !ok {
		return CreateInput{}, ErrInvalidPayload
	}
	obj, err := unwrap(root)
	if err != nil {
		return CreateInput{}, err
	}

	in := CreateInput{
		Type:          models.OrderType(strings.ToLower(obj.String("type", "order_type"))),
		AddressText:   obj.String("address", "address_text"),
		TableNumber:   obj.String("tableNumber", "table_number"),
		Lat:           obj.Number("lat"),
		Lng:           obj.Number("lng"),
		VoucherCode:   obj.String("voucherCode", "voucher_code"),
		PaymentMethod: models.ParsePaymentMethod(obj.String("paymentMethod", "payment_method")),
	}
	if in.Type == "" {
		in.Type = models.OrderTypeDelivery
	}
	if !in.Type.Valid() {
		return CreateInput{}, fmt.Errorf("%w: unknown order type %q", ErrInvalidPayload, in.Type)
	}

	if in.Subtotal, in.HasSubtotal, err = obj.Decimal("subtotal"); err != nil {
		return CreateInput{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if in.DeliveryFee, _, err = obj.Decimal("deliveryFee", "delivery_fee"); err != nil {
		return CreateInput{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if in.Subtotal.IsNegative() || in.DeliveryFee.IsNegative() {
		return CreateInput{}, fmt.Errorf("%w: amounts cannot be negative", ErrInvalidPayload)
	}

	for i, it := range obj.Objects("items") {
		item, err := parseItem(it)
		if err != nil {
			return CreateInput{}, fmt.Errorf("%w: item %d: %v", ErrInvalidPayload, i, err)
		}
		in.Items = append(in.Items, item)
	}
	return in, nil
}

func unwrap(root payload.Object) (payload.Object, error) {
	var inner any
	if v := root["order"]; payload.Truthy(v) {
		inner = v
	} else if raw, ok := root["data"].(string); ok {
		var parsed any
		if json.Unmarshal([]byte(raw), &parsed) == nil && payload.Truthy(parsed) {
			inner = parsed
		}
	}
	if inner == nil {
		return root, nil
	}
	m, ok := inner.(map[string]any)
	if !ok {
		return nil, ErrInvalidPayload
	}
	return payload.Object(m), nil
}

func parseItem(it payload.Object) (ItemInput, error) {
	qty, err := it.Int(1, "quantity", "qty")
	if err != nil {
		return ItemInput{}, err
	}
	if qty < 1 {
		return ItemInput{}, errors.New("quantity must be at least 1")
	}
	price, _, err := it.Decimal("price", "unit_price")
	if err != nil {
		return ItemInput{}, err
	}
	if price.IsNegative() {
		return ItemInput{}, errors.New("price cannot be negative")
	}

	note := it.String("note")
	if r := []rune(note); len(r) > maxNoteLen {
		note = string(r[:maxNoteLen])
	}
	return ItemInput{
		Name:       it.String("name"),
		Quantity:   qty,
		Price:      price,
		Note:       note,
		MenuItemID: it.ID("menuItemId", "menu_item_id"),
		FoodSetID:  it.ID("foodSetId", "food_set_id"),
	}, nil
}
