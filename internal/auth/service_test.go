package auth

import (
	"context"
	"errors"
	"testing"

	"restoran-web/internal/models"
	"restoran-web/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindByIdentifier(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testutil.Config())
	u := testutil.CreateUser(t, db, "Somchai", "secret", models.RoleStaff)
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", u.ID).Update("phone", "0812345678").Error)
	ctx := context.Background()

	for _, id := range []string{"somchai", "SOMCHAI", "Somchai@Example.com", "0812345678"} {
		got, err := svc.FindByIdentifier(ctx, id)
		require.NoError(t, err, id)
		assert.Equal(t, u.ID, got.ID, id)
	}

	_, err := svc.FindByIdentifier(ctx, "nobody")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = svc.FindByIdentifier(ctx, "   ")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testutil.Config())
	testutil.CreateUser(t, db, "nok", "right", models.RoleCustomer)

	_, err := svc.Authenticate(context.Background(), "nok", "right")
	assert.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "nok", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}

func TestEnsureProfileKeepsExistingRole(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testutil.Config())
	u := testutil.CreateUser(t, db, "chef1", "pw", models.RoleChef)

	p, created, err := svc.EnsureProfile(context.Background(), u.ID, models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, models.RoleChef, p.Role)

	bare := &models.User{Username: "bare", Password: "pw"}
	require.NoError(t, db.Create(bare).Error)
	p, created, err = svc.EnsureProfile(context.Background(), bare.ID, models.RoleRider)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleRider, p.Role)
}

func TestRegister(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testutil.Config())
	ctx := context.Background()

	u, p, err := svc.Register(ctx, RegisterInput{
		Username: "newbie", Email: "n@example.com", Phone: "0899999999",
		Password: "pw1", ConfirmPassword: "pw1", Role: "rider",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleRider, p.Role)
	assert.True(t, u.CheckPassword("pw1"))

	_, _, err = svc.Register(ctx, RegisterInput{Username: "NEWBIE", Password: "x", ConfirmPassword: "x"})
	assert.True(t, errors.Is(err, ErrUsernameTaken))

	_, _, err = svc.Register(ctx, RegisterInput{Username: "other", Password: "a", ConfirmPassword: "b"})
	assert.True(t, errors.Is(err, ErrPasswordMismatch))

	_, p, err = svc.Register(ctx, RegisterInput{Username: "sneaky", Password: "a", ConfirmPassword: "a", Role: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, p.Role, "admin cannot be self-granted")
}

func TestDemoUser(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(db, testutil.Config())
	ctx := context.Background()

	u, err := svc.DemoUser(ctx, models.RoleChef)
	require.NoError(t, err)
	assert.Equal(t, "demo_chef", u.Username)
	assert.False(t, u.CheckPassword(""), "demo users have no usable password")

	again, err := svc.DemoUser(ctx, models.RoleChef)
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)

	// a drifted role is forced back
	require.NoError(t, db.Model(&models.Profile{}).Where("user_id = ?", u.ID).Update("role", models.RoleCustomer).Error)
	_, err = svc.DemoUser(ctx, models.RoleChef)
	require.NoError(t, err)
	p, err := svc.LoadPrincipal(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleChef, p.Role)

	_, err = svc.DemoUser(ctx, models.Role("wizard"))
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testutil.Config()
	u := &models.User{ID: 7, Username: "tok"}

	token, err := GenerateToken(cfg.JWTSecret, cfg.SessionTTL, u, models.RoleStaff)
	require.NoError(t, err)

	claims, err := ParseToken(cfg.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, models.RoleStaff, claims.Role)

	_, err = ParseToken("another-secret-another-secret-xx", token)
	assert.Error(t, err)
}
