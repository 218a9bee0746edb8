package admin

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"restoran-web/internal/models"
	"restoran-web/internal/pricing"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidBody = errors.New("invalid request body")
)

type filterKind int

const (
	filterString filterKind = iota
	filterInt
	filterBool
)

// Filter is an exact-match query parameter mapped onto a column of the
// same name.
type Filter struct {
	Column string
	kind   filterKind
}

func strF(col string) Filter  { return Filter{Column: col, kind: filterString} }
func intF(col string) Filter  { return Filter{Column: col, kind: filterInt} }
func boolF(col string) Filter { return Filter{Column: col, kind: filterBool} }

func (f Filter) value(raw string) (any, error) {
	switch f.kind {
	case filterInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be an integer", f.Column)
		}
		return n, nil
	case filterBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", f.Column)
		}
		return b, nil
	}
	return raw, nil
}

// ListQuery carries the parsed list parameters of one request.
type ListQuery struct {
	Filters map[string]string
	Search  string
	Limit   int
	Offset  int
}

// Resource is one table exposed through the admin console.
type Resource interface {
	Slug() string
	List(db *gorm.DB, q ListQuery) ([]any, int64, error)
	Get(db *gorm.DB, id uint) (any, error)
	Create(tx *gorm.DB, body []byte) (any, uint, error)
	Update(tx *gorm.DB, id uint, body []byte) (before, after any, err error)
	Remove(tx *gorm.DB, id uint) (any, error)
	Export(db *gorm.DB, q ListQuery) (*excelize.File, error)

	// undo support, see audit.Reverter
	Delete(tx *gorm.DB, id uint) error
	Restore(tx *gorm.DB, id uint, image []byte) error
	Recreate(tx *gorm.DB, image []byte) error
}

type validator interface {
	Validate() error
}

// Table is the Resource for model T, backed by GORM.
type Table[T any] struct {
	slug    string
	newFn   func() *T
	filters []Filter
	search  []string
	preload []string
	order   string
	prepare func(obj *T)
	guard   func(before, after *T) error
}

func NewTable[T any](slug string, newFn func() *T) *Table[T] {
	if newFn == nil {
		newFn = func() *T { return new(T) }
	}
	return &Table[T]{slug: slug, newFn: newFn, order: "id DESC"}
}

func (t *Table[T]) Filters(f ...Filter) *Table[T] {
	t.filters = append(t.filters, f...)
	return t
}

func (t *Table[T]) Search(cols ...string) *Table[T] {
	t.search = append(t.search, cols...)
	return t
}

func (t *Table[T]) Preload(assoc ...string) *Table[T] {
	t.preload = append(t.preload, assoc...)
	return t
}

func (t *Table[T]) OrderBy(order string) *Table[T] {
	t.order = order
	return t
}

// Prepare derives computed fields before every write.
func (t *Table[T]) Prepare(fn func(obj *T)) *Table[T] {
	t.prepare = fn
	return t
}

// Guard checks an edit of an existing row against its stored state. It
// runs on updates and on undo restores.
func (t *Table[T]) Guard(fn func(before, after *T) error) *Table[T] {
	t.guard = fn
	return t
}

func (t *Table[T]) Slug() string { return t.slug }

// check runs the write hooks and the model's own validation.
func (t *Table[T]) check(before, obj *T) error {
	if t.prepare != nil {
		t.prepare(obj)
	}
	if err := validate(obj); err != nil {
		return err
	}
	if before != nil && t.guard != nil {
		return t.guard(before, obj)
	}
	return nil
}

// scoped applies the request's filters and search to a query on T.
func (t *Table[T]) scoped(db *gorm.DB, q ListQuery) (*gorm.DB, error) {
	tx := db.Model(new(T))
	for _, f := range t.filters {
		raw, ok := q.Filters[f.Column]
		if !ok || raw == "" {
			continue
		}
		v, err := f.value(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: f.Column}, Value: v})
	}
	if s := strings.TrimSpace(q.Search); s != "" && len(t.search) > 0 {
		like := "%" + strings.ToLower(s) + "%"
		conds := make([]clause.Expression, 0, len(t.search))
		for _, col := range t.search {
			conds = append(conds, clause.Expr{SQL: "LOWER(?) LIKE ?", Vars: []any{clause.Column{Name: col}, like}})
		}
		tx = tx.Where(clause.Or(conds...))
	}
	return tx, nil
}

func (t *Table[T]) List(db *gorm.DB, q ListQuery) ([]any, int64, error) {
	tx, err := t.scoped(db, q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	for _, p := range t.preload {
		tx = tx.Preload(p)
	}
	var rows []T
	if err := tx.Order(t.order).Limit(limit).Offset(q.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]any, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, total, nil
}

func (t *Table[T]) load(db *gorm.DB, id uint) (*T, error) {
	obj := new(T)
	if err := db.First(obj, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return obj, nil
}

func (t *Table[T]) Get(db *gorm.DB, id uint) (any, error) {
	for _, p := range t.preload {
		db = db.Preload(p)
	}
	return t.load(db, id)
}

func validate(obj any) error {
	if v, ok := obj.(validator); ok {
		return v.Validate()
	}
	return nil
}

func idOf(obj any) uint {
	v := reflect.Indirect(reflect.ValueOf(obj)).FieldByName("ID")
	if !v.IsValid() {
		return 0
	}
	return uint(v.Uint())
}

func setID(obj any, id uint) {
	v := reflect.Indirect(reflect.ValueOf(obj)).FieldByName("ID")
	if v.IsValid() && v.CanSet() {
		v.SetUint(uint64(id))
	}
}

// Create decodes the body over the model's defaults, so omitted fields
// keep the values newFn sets.
func (t *Table[T]) Create(tx *gorm.DB, body []byte) (any, uint, error) {
	obj := t.newFn()
	if err := json.Unmarshal(body, obj); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	setID(obj, 0)
	if err := t.check(nil, obj); err != nil {
		return nil, 0, err
	}
	if err := tx.Omit(clause.Associations).Create(obj).Error; err != nil {
		return nil, 0, err
	}
	return obj, idOf(obj), nil
}

// Update applies the body as a patch: fields absent from the JSON keep
// their stored values.
func (t *Table[T]) Update(tx *gorm.DB, id uint, body []byte) (any, any, error) {
	before, err := t.load(tx, id)
	if err != nil {
		return nil, nil, err
	}
	after := new(T)
	*after = *before
	if err := json.Unmarshal(body, after); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	setID(after, id)
	if err := t.check(before, after); err != nil {
		return nil, nil, err
	}
	if err := tx.Omit(clause.Associations).Save(after).Error; err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Remove deletes the row and returns its last state.
func (t *Table[T]) Remove(tx *gorm.DB, id uint) (any, error) {
	obj, err := t.load(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Delete(obj).Error; err != nil {
		return nil, err
	}
	return obj, nil
}

func (t *Table[T]) Delete(tx *gorm.DB, id uint) error {
	res := tx.Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore writes a logged image back over the current row. Fields missing
// from the image, such as password hashes, keep their current values.
func (t *Table[T]) Restore(tx *gorm.DB, id uint, image []byte) error {
	current, err := t.load(tx, id)
	if err != nil {
		return err
	}
	obj := new(T)
	*obj = *current
	if err := json.Unmarshal(image, obj); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	setID(obj, id)
	if err := t.check(current, obj); err != nil {
		return err
	}
	return tx.Omit(clause.Associations).Save(obj).Error
}

// Recreate inserts a deleted row again under its original id.
func (t *Table[T]) Recreate(tx *gorm.DB, image []byte) error {
	obj := new(T)
	if err := json.Unmarshal(image, obj); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if idOf(obj) == 0 {
		return errors.New("image has no id")
	}
	return tx.Omit(clause.Associations).Create(obj).Error
}

// Resources is the explicit table of everything the console manages.
func Resources() []Resource {
	return []Resource{
		NewTable[models.Profile]("profiles", models.NewProfile).
			Filters(intF("user_id"), strF("role"), strF("phone")).
			Search("phone"),
		NewTable[models.User]("users", nil).
			Filters(strF("username"), strF("email"), boolF("is_superuser")).
			Search("username", "email", "first_name", "last_name").
			Preload("Profile"),
		NewTable[models.Ingredient]("ingredients", models.NewIngredient).
			Filters(boolF("active"), strF("unit")).
			Search("name").
			OrderBy("name"),
		NewTable[models.MenuCategory]("menu-categories", nil).
			Search("name").
			OrderBy("name"),
		NewTable[models.MenuItem]("menu-items", models.NewMenuItem).
			Filters(intF("category_id"), boolF("available"), boolF("featured")).
			Search("name", "description").
			Preload("Category"),
		NewTable[models.IngredientUsage]("ingredient-usages", nil).
			Filters(intF("menu_item_id"), intF("ingredient_id")).
			Preload("Ingredient"),
		NewTable[models.FoodSet]("food-sets", models.NewFoodSet).
			Filters(boolF("active")).
			Search("name").
			Preload("Items"),
		NewTable[models.SetItem]("set-items", models.NewSetItem).
			Filters(intF("food_set_id"), intF("menu_item_id")).
			Preload("MenuItem"),
		NewTable[models.Voucher]("vouchers", models.NewVoucher).
			Filters(strF("discount_type"), boolF("active")).
			Search("code"),
		NewTable[models.Address]("addresses", nil).
			Filters(intF("user_id"), boolF("is_default")).
			Search("line1", "line2", "city", "postcode"),
		NewTable[models.Order]("orders", models.NewOrder).
			Filters(intF("user_id"), strF("order_type"), strF("status"), intF("voucher_id")).
			Search("address_text", "table_number").
			Preload("Items", "Payment", "RiderAssignment").
			Prepare(func(o *models.Order) {
				o.Total = pricing.OrderTotal(o.Subtotal, o.DiscountAmount, o.DeliveryFee)
			}),
		NewTable[models.OrderItem]("order-items", models.NewOrderItem).
			Filters(intF("order_id"), intF("menu_item_id"), intF("food_set_id")).
			Search("name", "note"),
		NewTable[models.Payment]("payments", models.NewPayment).
			Filters(intF("order_id"), strF("method"), strF("status")),
		NewTable[models.RiderAssignment]("rider-assignments", models.NewRiderAssignment).
			Filters(intF("order_id"), intF("rider_id"), strF("status")).
			Guard(func(before, after *models.RiderAssignment) error {
				return after.ValidateChange(before)
			}),
		NewTable[models.InventoryTransaction]("inventory-transactions", nil).
			Filters(intF("ingredient_id"), intF("order_id"), strF("type")).
			Search("reason").
			Preload("Ingredient"),
	}
}
