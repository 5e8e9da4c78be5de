package services

import (
	"context"
	"testing"
	"time"

	"seikatsu-backend/models"
	"seikatsu-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RecalculateLevelsJob(t *testing.T) {
	ledger, db := newTestLedger(t)
	u := testutil.CreateUser(t, db, "jun")
	ctx := context.Background()

	_, err := ledger.AddXP(ctx, u.ID, 1, 500, "seed")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.UserStats{}).Where("user_id = ?", u.ID).Update("level", 1).Error)

	s := NewScheduler(ledger, time.Hour, testutil.Logger())
	s.RecalculateLevels(ctx)

	var stats models.UserStats
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&stats).Error)
	assert.Equal(t, LevelFor(500), stats.Level)
}

func TestScheduler_StartAndShutdown(t *testing.T) {
	ledger, _ := newTestLedger(t)
	s := NewScheduler(ledger, time.Hour, testutil.Logger())

	assert.NoError(t, s.Shutdown(), "shutdown before start is a no-op")
	require.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Shutdown())
}
