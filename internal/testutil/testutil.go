// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"testing"
	"time"

	"restoran-web/internal/config"
	"restoran-web/internal/database"
	"restoran-web/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenDSN("sqlite", "file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Config() *config.Config {
	return &config.Config{
		AppEnv:            "test",
		HTTPPort:          "0",
		DBDriver:          "sqlite",
		JWTSecret:         "test-secret-test-secret-test-secret!",
		SessionTTL:        time.Hour,
		CookieName:        "restoran_session",
		CORSOrigins:       "http://localhost:5173",
		LogLevel:          "error",
		DemoLogin:         true,
		SelfRegisterRoles: []string{"customer", "staff", "chef", "rider"},
		AdminUsername:     "Admin",
		AdminPassword:     "admin123",
		AdminEmail:        "admin@example.com",
	}
}

// CreateUser inserts a user with the given role and password.
func CreateUser(t testing.TB, db *gorm.DB, username, password string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: password}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&models.Profile{UserID: u.ID, Role: role}).Error)
	return u
}

func CreateIngredient(t testing.TB, db *gorm.DB, name string, stock, threshold float64) *models.Ingredient {
	t.Helper()
	ing := models.NewIngredient()
	ing.Name = name
	ing.StockQuantity = stock
	ing.LowStockThreshold = threshold
	require.NoError(t, db.Create(ing).Error)
	return ing
}

// CreateMenuItem inserts an available item consuming the given ingredients per unit.
func CreateMenuItem(t testing.TB, db *gorm.DB, name, price string, usages map[uint]float64) *models.MenuItem {
	t.Helper()
	item := models.NewMenuItem()
	item.Name = name
	item.Price = decimal.RequireFromString(price)
	require.NoError(t, db.Create(item).Error)
	for ingID, qty := range usages {
		require.NoError(t, db.Create(&models.IngredientUsage{
			MenuItemID:      item.ID,
			IngredientID:    ingID,
			QuantityPerUnit: qty,
		}).Error)
	}
	return item
}

func CreateVoucher(t testing.TB, db *gorm.DB, code string, typ models.DiscountType, amount, minSpend, maxDiscount string) *models.Voucher {
	t.Helper()
	v := models.NewVoucher()
	v.Code = code
	v.DiscountType = typ
	v.Amount = decimal.RequireFromString(amount)
	v.MinSpend = decimal.RequireFromString(minSpend)
	v.MaxDiscount = decimal.RequireFromString(maxDiscount)
	require.NoError(t, db.Create(v).Error)
	return v
}
