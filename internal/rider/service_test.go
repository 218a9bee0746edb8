package rider

import (
	"context"
	"errors"
	"testing"
	"time"

	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createOrder(t *testing.T, db *gorm.DB, typ models.OrderType, status models.OrderStatus, withAssignment bool) *models.Order {
	t.Helper()
	o := models.NewOrder()
	o.OrderType = typ
	o.Status = status
	o.AddressText = "99 Soi Rider"
	o.Subtotal = decimal.NewFromInt(100)
	o.Total = decimal.NewFromInt(100)
	if withAssignment {
		o.RiderAssignment = models.NewRiderAssignment()
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewDB(t)
	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	return NewService(db, func() time.Time { return now }), db
}

func TestAvailable(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)

	ready := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusReady, true)
	takeaway := createOrder(t, db, models.OrderTypeTakeaway, models.OrderStatusReady, false)
	createOrder(t, db, models.OrderTypeDineIn, models.OrderStatusReady, false)
	createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusPending, true)
	claimed := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusReady, true)
	require.NoError(t, svc.Accept(context.Background(), claimed.ID, r.ID))

	jobs, err := svc.Available(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, ready.ID, jobs[0].ID)
	assert.Equal(t, takeaway.ID, jobs[1].ID)
}

func TestAcceptClaimsOnce(t *testing.T) {
	svc, db := newService(t)
	r1 := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	r2 := testutil.CreateUser(t, db, "rider2", "pw", models.RoleRider)
	o := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusReady, true)

	require.NoError(t, svc.Accept(context.Background(), o.ID, r1.ID))
	require.NoError(t, svc.Accept(context.Background(), o.ID, r1.ID), "re-accept is idempotent")

	err := svc.Accept(context.Background(), o.ID, r2.ID)
	assert.True(t, errors.Is(err, ErrAlreadyClaimed))

	var ra models.RiderAssignment
	require.NoError(t, db.Where("order_id = ?", o.ID).First(&ra).Error)
	require.NotNil(t, ra.RiderID)
	assert.Equal(t, r1.ID, *ra.RiderID)
	assert.Equal(t, models.AssignmentAccepted, ra.Status)
	assert.NotNil(t, ra.AcceptedAt)
}

func TestAcceptCreatesMissingAssignment(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	o := createOrder(t, db, models.OrderTypeTakeaway, models.OrderStatusReady, false)

	require.NoError(t, svc.Accept(context.Background(), o.ID, r.ID))

	var count int64
	require.NoError(t, db.Model(&models.RiderAssignment{}).Where("order_id = ? AND rider_id = ?", o.ID, r.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAcceptErrors(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)

	err := svc.Accept(context.Background(), 404, r.ID)
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	cancelled := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusCancelled, true)
	err = svc.Accept(context.Background(), cancelled.ID, r.ID)
	assert.True(t, errors.Is(err, ErrOrderClosed))
}

func TestPickedAndComplete(t *testing.T) {
	svc, db := newService(t)
	r1 := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	r2 := testutil.CreateUser(t, db, "rider2", "pw", models.RoleRider)
	o := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusReady, true)

	err := svc.Picked(context.Background(), o.ID, r1.ID)
	assert.True(t, errors.Is(err, ErrNotAssigned), "nobody has accepted yet")

	require.NoError(t, svc.Accept(context.Background(), o.ID, r1.ID))

	err = svc.Picked(context.Background(), o.ID, r2.ID)
	assert.True(t, errors.Is(err, ErrNotAssigned))

	require.NoError(t, svc.Picked(context.Background(), o.ID, r1.ID))
	var got models.Order
	require.NoError(t, db.Preload("RiderAssignment").First(&got, o.ID).Error)
	assert.Equal(t, models.OrderStatusDelivering, got.Status)
	assert.Equal(t, models.AssignmentDelivering, got.RiderAssignment.Status)
	assert.NotNil(t, got.RiderAssignment.PickedAt)

	mine, err := svc.Mine(context.Background(), r1.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, svc.Complete(context.Background(), o.ID, r1.ID))
	require.NoError(t, db.Preload("RiderAssignment").First(&got, o.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Equal(t, models.AssignmentCompleted, got.RiderAssignment.Status)
	assert.NotNil(t, got.RiderAssignment.DeliveredAt)

	mine, err = svc.Mine(context.Background(), r1.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCompletedOrderStaysCompleted(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	o := createOrder(t, db, models.OrderTypeDelivery, models.OrderStatusReady, true)
	ctx := context.Background()

	require.NoError(t, svc.Accept(ctx, o.ID, r.ID))
	require.NoError(t, svc.Picked(ctx, o.ID, r.ID))
	require.NoError(t, svc.Picked(ctx, o.ID, r.ID), "picking twice is a no-op")
	require.NoError(t, svc.Complete(ctx, o.ID, r.ID))

	err := svc.Picked(ctx, o.ID, r.ID)
	assert.True(t, errors.Is(err, ErrOrderClosed))
	err = svc.Complete(ctx, o.ID, r.ID)
	assert.True(t, errors.Is(err, ErrOrderClosed))

	var got models.Order
	require.NoError(t, db.Preload("RiderAssignment").First(&got, o.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
	assert.Equal(t, models.AssignmentCompleted, got.RiderAssignment.Status)
}

func TestPickedRequiresReadyOrder(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	ctx := context.Background()

	for _, status := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusPreparing} {
		o := createOrder(t, db, models.OrderTypeDelivery, status, true)
		require.NoError(t, svc.Accept(ctx, o.ID, r.ID))

		err := svc.Picked(ctx, o.ID, r.ID)
		assert.True(t, errors.Is(err, ErrOrderClosed), status)
		err = svc.Complete(ctx, o.ID, r.ID)
		assert.True(t, errors.Is(err, ErrOrderClosed), status)

		var got models.Order
		require.NoError(t, db.Preload("RiderAssignment").First(&got, o.ID).Error)
		assert.Equal(t, status, got.Status)
		assert.Equal(t, models.AssignmentAccepted, got.RiderAssignment.Status)
	}
}

func TestCompleteWithoutPickup(t *testing.T) {
	svc, db := newService(t)
	r := testutil.CreateUser(t, db, "rider1", "pw", models.RoleRider)
	o := createOrder(t, db, models.OrderTypeTakeaway, models.OrderStatusReady, true)
	ctx := context.Background()

	require.NoError(t, svc.Accept(ctx, o.ID, r.ID))
	require.NoError(t, svc.Complete(ctx, o.ID, r.ID))

	var got models.Order
	require.NoError(t, db.First(&got, o.ID).Error)
	assert.Equal(t, models.OrderStatusCompleted, got.Status)
}
