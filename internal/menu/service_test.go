package menu

import (
	"context"
	"testing"

	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	db := testutil.NewDB(t)
	food := models.MenuCategory{Name: "Food"}
	require.NoError(t, db.Create(&food).Error)

	plain := testutil.CreateMenuItem(t, db, "Fried Rice", "50", nil)
	star := testutil.CreateMenuItem(t, db, "Tom Yum", "80", nil)
	hidden := testutil.CreateMenuItem(t, db, "Seasonal Soup", "70", nil)
	loose := testutil.CreateMenuItem(t, db, "Water", "10", nil)
	require.NoError(t, db.Model(plain).Update("category_id", food.ID).Error)
	require.NoError(t, db.Model(star).Updates(map[string]any{"category_id": food.ID, "featured": true}).Error)
	require.NoError(t, db.Model(hidden).Updates(map[string]any{"category_id": food.ID, "available": false}).Error)

	set := models.NewFoodSet()
	set.Name = "Lunch Set"
	set.Price = decimal.NewFromInt(89)
	require.NoError(t, db.Create(set).Error)
	require.NoError(t, db.Create(&models.SetItem{FoodSetID: set.ID, MenuItemID: plain.ID, Quantity: 1}).Error)
	retired := models.NewFoodSet()
	retired.Name = "Old Set"
	require.NoError(t, db.Create(retired).Error)
	require.NoError(t, db.Model(retired).Update("active", false).Error)

	cat, err := NewService(db).Catalog(context.Background())
	require.NoError(t, err)

	require.Len(t, cat.Categories, 1)
	items := cat.ItemsByCat[food.ID]
	require.Len(t, items, 2)
	assert.Equal(t, "Tom Yum", items[0].Name, "featured first")
	assert.Equal(t, "Fried Rice", items[1].Name)

	require.Len(t, cat.Uncategorized, 1)
	assert.Equal(t, loose.ID, cat.Uncategorized[0].ID)

	require.Len(t, cat.Sets, 1)
	require.Len(t, cat.Sets[0].Items, 1)
	assert.Equal(t, "Fried Rice", cat.Sets[0].Items[0].MenuItem.Name)
}
