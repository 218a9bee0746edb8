package inventory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMovementsIgnoresBadIDs(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, nil)
	rice := testutil.CreateIngredient(t, db, "Rice", 5, 1)
	tea := testutil.CreateIngredient(t, db, "Tea", 5, 1)
	for _, id := range []uint{rice.ID, tea.ID} {
		_, _, err := svc.RecordMovement(context.Background(), MovementInput{IngredientID: id, Type: models.InventoryIn, Quantity: 1}, nil)
		require.NoError(t, err)
	}

	app := fiber.New()
	app.Get("/api/inventory/movements", ListMovementsHandler(svc))

	list := func(query string) []MovementResponse {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/inventory/movements"+query, nil), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var body struct {
			Movements []MovementResponse `json:"movements"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		return body.Movements
	}

	assert.Len(t, list("?ingredient_id=-1"), 2)
	assert.Len(t, list("?ingredient_id=-1&order_id=-5"), 2)
	got := list("?ingredient_id=" + strconv.FormatUint(uint64(tea.ID), 10))
	require.Len(t, got, 1)
	assert.Equal(t, tea.ID, got[0].IngredientID)
}
