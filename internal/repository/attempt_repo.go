package repository

import (
	"time"

	"gorm.io/gorm"

	"inkcopilot/internal/models"
)

type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// Save inserts the attempt or overwrites the row with the same session id.
// A write carrying an older version than the stored row is ignored.
func (r *AttemptRepository) Save(a *models.CheckoutAttempt) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.CheckoutAttempt
		res := tx.Where("session_id = ?", a.SessionID).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return tx.Create(a).Error
		}
		if a.Version < existing.Version {
			return nil
		}
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
		return tx.Save(a).Error
	})
}

// GetByReference returns the owner's attempt for a payment reference.
// Another owner's row is reported as gorm.ErrRecordNotFound.
func (r *AttemptRepository) GetByReference(owner, ref string) (*models.CheckoutAttempt, error) {
	var a models.CheckoutAttempt
	err := r.db.Where("owner = ? AND reference = ?", owner, ref).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByOwner returns the owner's attempts that reached the payment provider, newest first.
func (r *AttemptRepository) ListByOwner(owner string, limit, offset int) ([]models.CheckoutAttempt, error) {
	var list []models.CheckoutAttempt
	err := r.db.Where("owner = ? AND reference <> ''", owner).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// CountByState counts attempts per state created since the given time.
func (r *AttemptRepository) CountByState(since time.Time) (map[string]int64, error) {
	var rows []struct {
		State string
		N     int64
	}
	err := r.db.Model(&models.CheckoutAttempt{}).
		Select("state, COUNT(*) AS n").
		Where("created_at >= ?", since).
		Group("state").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.State] = row.N
	}
	return out, nil
}

// PurgeBefore hard-deletes attempts last updated before t.
func (r *AttemptRepository) PurgeBefore(t time.Time) (int64, error) {
	res := r.db.Unscoped().Where("updated_at < ?", t).Delete(&models.CheckoutAttempt{})
	return res.RowsAffected, res.Error
}
