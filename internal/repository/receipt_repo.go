package repository

import (
	"errors"

	"gorm.io/gorm"

	"inkcopilot/internal/models"
)

type ReceiptRepository struct {
	db *gorm.DB
}

func NewReceiptRepository(db *gorm.DB) *ReceiptRepository {
	return &ReceiptRepository{db: db}
}

func (r *ReceiptRepository) Create(rc *models.Receipt) error {
	return r.db.Create(rc).Error
}

func (r *ReceiptRepository) Update(rc *models.Receipt) error {
	return r.db.Save(rc).Error
}

func (r *ReceiptRepository) GetByReference(ref string) (*models.Receipt, error) {
	var rc models.Receipt
	err := r.db.Where("reference = ?", ref).First(&rc).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// Sent reports whether a receipt already went out for ref.
func (r *ReceiptRepository) Sent(ref string) (bool, error) {
	rc, err := r.GetByReference(ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rc.Status == "sent", nil
}
