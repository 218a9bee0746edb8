package seed

import (
	"context"
	"testing"
	"time"

	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func rows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	res, err := Run(context.Background(), db, now)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Created)

	assert.Equal(t, int64(5), rows(t, db, &models.User{}))
	assert.Equal(t, int64(5), rows(t, db, &models.Profile{}))
	assert.Equal(t, int64(3), rows(t, db, &models.MenuCategory{}))
	assert.Equal(t, int64(3), rows(t, db, &models.Ingredient{}))
	assert.Equal(t, int64(2), rows(t, db, &models.MenuItem{}))
	assert.Equal(t, int64(3), rows(t, db, &models.IngredientUsage{}))
	assert.Equal(t, int64(1), rows(t, db, &models.FoodSet{}))
	assert.Equal(t, int64(1), rows(t, db, &models.SetItem{}))

	var v models.Voucher
	require.NoError(t, db.Where("code = ?", "WELCOME10").First(&v).Error)
	assert.Equal(t, "10", v.Amount.String())
	assert.True(t, v.Active)

	var rider models.Profile
	require.NoError(t, db.Joins("JOIN users ON users.id = profiles.user_id").
		Where("users.username = ?", "demo_rider").First(&rider).Error)
	assert.Equal(t, models.RoleRider, rider.Role)

	again, err := Run(context.Background(), db, now)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.NotEmpty(t, again.Skipped)
	assert.Equal(t, int64(5), rows(t, db, &models.User{}))
	assert.Equal(t, int64(2), rows(t, db, &models.MenuItem{}))
}

func TestEnsureAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := testutil.Config()

	u, err := EnsureAdmin(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)

	var got models.User
	require.NoError(t, db.Preload("Profile").First(&got, u.ID).Error)
	assert.True(t, got.CheckPassword("admin123"))
	require.NotNil(t, got.Profile)
	assert.Equal(t, models.RoleAdmin, got.Profile.Role)

	// a demoted admin with a changed password is repaired
	require.NoError(t, db.Model(got.Profile).Update("role", models.RoleCustomer).Error)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("password_hash", "stale").Error)

	_, err = EnsureAdmin(context.Background(), db, cfg)
	require.NoError(t, err)
	require.NoError(t, db.Preload("Profile").First(&got, u.ID).Error)
	assert.True(t, got.CheckPassword("admin123"))
	assert.Equal(t, models.RoleAdmin, got.Profile.Role)
	assert.Equal(t, int64(1), rows(t, db, &models.User{}))
}
