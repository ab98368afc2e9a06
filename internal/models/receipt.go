package models

import "time"

// Receipt records the confirmation email for a verified payment; one per reference.
type Receipt struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Reference  string    `gorm:"size:255;not null;uniqueIndex" json:"reference"`
	SessionID  string    `gorm:"size:36;index" json:"session_id"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	ProviderID string    `gorm:"size:255" json:"provider_id"`
	Status     string    `gorm:"size:20;not null" json:"status"` // sent, failed
	Error      string    `gorm:"type:text" json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Receipt) TableName() string {
	return "receipts"
}
