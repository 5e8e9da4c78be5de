package services

import (
	"context"
	"testing"
	"time"

	"seikatsu-backend/models"
	"seikatsu-backend/testutil"
	"seikatsu-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestUsers(t *testing.T) *UserService {
	t.Helper()
	db := testutil.OpenTestDB(t)
	svc := NewUserService(db, NewXPLedger(db, testutil.Logger()), "test-secret", time.Minute, testutil.Logger())
	svc.BcryptCost = bcrypt.MinCost
	return svc
}

func TestUserService_RegisterCreatesStats(t *testing.T) {
	svc := newTestUsers(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: " akira ", Email: "Akira@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "akira", u.Username)
	assert.Equal(t, "akira@example.com", u.Email)

	var stats models.UserStats
	require.NoError(t, svc.DB.Where("user_id = ?", u.ID).First(&stats).Error)
	assert.Equal(t, 1, stats.Level)

	_, err = svc.Register(ctx, RegisterInput{Username: "akira", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUserService_RegisterValidation(t *testing.T) {
	svc := newTestUsers(t)
	ctx := context.Background()

	cases := []RegisterInput{
		{Username: "ab", Email: "a@b.co", Password: "password1"},
		{Username: "abc", Email: "nope", Password: "password1"},
		{Username: "abc", Email: "a@b.co", Password: "short"},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestUserService_LoginAndProfile(t *testing.T) {
	svc := newTestUsers(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "misaki", Email: "misaki@example.com", Password: "password1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "MISAKI@example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "bearer", res.TokenType)
	id, err := utils.ParseAccessToken("test-secret", res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)

	_, err = svc.Login(ctx, "misaki", "wrong-password")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Login(ctx, "ghost", "password1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Ledger.AddXP(ctx, u.ID, 1, 175, "seed")
	require.NoError(t, err)

	p, err := svc.Profile(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, p.Stats)
	assert.Equal(t, int64(175), p.Stats.TotalXP)
	assert.Equal(t, 2, p.Progress.CurrentLevel)
	assert.Equal(t, 50.0, p.Progress.ProgressPercentage)

	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
