package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkcopilot/config"
	"inkcopilot/internal/database"
	"inkcopilot/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{DSN: "sqlite://:memory:", ConnMaxLifetime: time.Hour})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestAttemptSaveUpserts(t *testing.T) {
	repo := NewAttemptRepository(newTestDB(t))

	a := &models.CheckoutAttempt{SessionID: "s1", Owner: "u1", PlanName: "Pro", AmountCents: 899, State: "idle", Version: 1}
	require.NoError(t, repo.Save(a))

	b := &models.CheckoutAttempt{SessionID: "s1", Owner: "u1", PlanName: "Pro", AmountCents: 899, State: "polling", Reference: "R1", Version: 3}
	require.NoError(t, repo.Save(b))

	stale := &models.CheckoutAttempt{SessionID: "s1", Owner: "u1", PlanName: "Pro", AmountCents: 899, State: "submitting", Version: 2}
	require.NoError(t, repo.Save(stale))

	got, err := repo.GetByReference("u1", "R1")
	require.NoError(t, err)
	assert.Equal(t, "polling", got.State)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, a.ID, got.ID)

	var n int64
	require.NoError(t, repo.db.Model(&models.CheckoutAttempt{}).Where("session_id = ?", "s1").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestAttemptGetByReferenceIsOwnerScoped(t *testing.T) {
	repo := NewAttemptRepository(newTestDB(t))
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "s1", Owner: "u1", PlanName: "Pro", State: "verified", Reference: "R1"}))

	_, err := repo.GetByReference("u2", "R1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.GetByReference("u1", "R9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttemptListByOwnerSkipsUnsubmitted(t *testing.T) {
	repo := NewAttemptRepository(newTestDB(t))
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "s1", Owner: "u1", PlanName: "Pro", State: "idle"}))
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "s2", Owner: "u1", PlanName: "Pro", State: "verified", Reference: "R2"}))
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "s3", Owner: "u2", PlanName: "Pro", State: "verified", Reference: "R3"}))

	list, err := repo.ListByOwner("u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "R2", list[0].Reference)

	counts, err := repo.CountByState(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["verified"])
	assert.Equal(t, int64(1), counts["idle"])
}

func TestAttemptPurgeBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewAttemptRepository(db)
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "old", Owner: "u1", PlanName: "Pro", State: "verified"}))
	require.NoError(t, repo.Save(&models.CheckoutAttempt{SessionID: "new", Owner: "u1", PlanName: "Pro", State: "verified"}))
	require.NoError(t, db.Model(&models.CheckoutAttempt{}).Where("session_id = ?", "old").
		UpdateColumn("updated_at", time.Now().Add(-100*24*time.Hour)).Error)

	n, err := repo.PurgeBefore(time.Now().Add(-90 * 24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left []string
	require.NoError(t, db.Unscoped().Model(&models.CheckoutAttempt{}).Pluck("session_id", &left).Error)
	assert.Equal(t, []string{"new"}, left)
}

func TestReceiptSent(t *testing.T) {
	repo := NewReceiptRepository(newTestDB(t))

	sent, err := repo.Sent("R1")
	require.NoError(t, err)
	assert.False(t, sent)

	rc := &models.Receipt{Reference: "R1", Email: "a@b.co", Status: "failed"}
	require.NoError(t, repo.Create(rc))
	sent, err = repo.Sent("R1")
	require.NoError(t, err)
	assert.False(t, sent)

	rc.Status = "sent"
	require.NoError(t, repo.Update(rc))
	sent, err = repo.Sent("R1")
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Error(t, repo.Create(&models.Receipt{Reference: "R1", Email: "a@b.co", Status: "sent"}), "one receipt per reference")
}
