package inventory

import (
	"context"
	"errors"
	"testing"

	"restoran-web/internal/audit"
	"restoran-web/internal/auth"
	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordMovement(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, audit.NewRecorder(db))
	rice := testutil.CreateIngredient(t, db, "Rice", 5, 2)
	actor := &auth.Principal{UserID: 7, Name: "Kim", Role: models.RoleChef}
	ctx := context.Background()

	mv, ing, err := svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: models.InventoryIn, Quantity: 2.5, Reason: "delivery"}, actor)
	require.NoError(t, err)
	assert.Equal(t, 7.5, ing.StockQuantity)
	assert.Equal(t, models.InventoryIn, mv.Type)

	_, ing, err = svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: models.InventoryOut, Quantity: 6}, actor)
	require.NoError(t, err)
	assert.Equal(t, 1.5, ing.StockQuantity)
	assert.True(t, ing.LowStock())

	_, _, err = svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: models.InventoryOut, Quantity: 2}, actor)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	_, _, err = svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: "sideways", Quantity: 1}, actor)
	assert.True(t, errors.Is(err, ErrInvalidMovement))

	_, _, err = svc.RecordMovement(ctx, MovementInput{IngredientID: 999, Type: models.InventoryIn, Quantity: 1}, actor)
	assert.True(t, errors.Is(err, ErrIngredientNotFound))

	moves, err := svc.ListMovements(ctx, MovementFilter{IngredientID: rice.ID})
	require.NoError(t, err)
	assert.Len(t, moves, 2, "failed movements leave no rows")

	logs, total, err := audit.NewRecorder(db).List(ctx, audit.ListFilter{EntityType: MovementEntity})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Kim", logs[0].UserName)
	assert.Equal(t, moves[0].ID, logs[0].EntityID)
}

func TestLowStockSkipsInactive(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, nil)
	testutil.CreateIngredient(t, db, "Rice", 1, 2)
	testutil.CreateIngredient(t, db, "Tea", 8, 2)
	old := testutil.CreateIngredient(t, db, "Old Spice", 0, 1)
	require.NoError(t, db.Model(old).Update("active", false).Error)

	low, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Rice", low[0].Name)

	inactive := false
	list, err := svc.ListIngredients(context.Background(), &inactive)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Old Spice", list[0].Name)
}

func TestUndoMovementReversesStockAndLedger(t *testing.T) {
	db := testutil.NewDB(t)
	rec := audit.NewRecorder(db)
	svc := NewService(db, rec)
	rice := testutil.CreateIngredient(t, db, "Rice", 10, 2)
	actor := &auth.Principal{UserID: 7, Name: "Kim", Role: models.RoleChef}
	ctx := context.Background()

	in, _, err := svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: models.InventoryIn, Quantity: 5}, actor)
	require.NoError(t, err)
	out, ing, err := svc.RecordMovement(ctx, MovementInput{IngredientID: rice.ID, Type: models.InventoryOut, Quantity: 3}, actor)
	require.NoError(t, err)
	assert.Equal(t, 12.0, ing.StockQuantity)

	logFor := func(movementID uint) models.AuditLog {
		logs, _, err := rec.List(ctx, audit.ListFilter{EntityType: MovementEntity, EntityID: movementID})
		require.NoError(t, err)
		require.Len(t, logs, 1)
		return logs[0]
	}

	_, err = rec.Undo(ctx, logFor(in.ID).ID, 1, "root", svc.Reverter)
	require.NoError(t, err)
	require.NoError(t, db.First(rice, rice.ID).Error)
	assert.Equal(t, 7.0, rice.StockQuantity)

	_, err = rec.Undo(ctx, logFor(out.ID).ID, 1, "root", svc.Reverter)
	require.NoError(t, err)
	require.NoError(t, db.First(rice, rice.ID).Error)
	assert.Equal(t, 10.0, rice.StockQuantity)

	moves, err := svc.ListMovements(ctx, MovementFilter{IngredientID: rice.ID})
	require.NoError(t, err)
	assert.Empty(t, moves, "undone movements leave the ledger")
}

func TestUndoIncomingMovementAfterStockWasUsed(t *testing.T) {
	db := testutil.NewDB(t)
	rec := audit.NewRecorder(db)
	svc := NewService(db, rec)
	tea := testutil.CreateIngredient(t, db, "Tea", 0, 1)
	actor := &auth.Principal{UserID: 7, Name: "Kim", Role: models.RoleChef}
	ctx := context.Background()

	in, _, err := svc.RecordMovement(ctx, MovementInput{IngredientID: tea.ID, Type: models.InventoryIn, Quantity: 4}, actor)
	require.NoError(t, err)
	_, _, err = svc.RecordMovement(ctx, MovementInput{IngredientID: tea.ID, Type: models.InventoryOut, Quantity: 3}, actor)
	require.NoError(t, err)

	logs, _, err := rec.List(ctx, audit.ListFilter{EntityType: MovementEntity, EntityID: in.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)

	_, err = rec.Undo(ctx, logs[0].ID, 1, "root", svc.Reverter)
	assert.True(t, errors.Is(err, ErrInsufficientStock))

	require.NoError(t, db.First(tea, tea.ID).Error)
	assert.Equal(t, 1.0, tea.StockQuantity)
	moves, err := svc.ListMovements(ctx, MovementFilter{IngredientID: tea.ID})
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}
