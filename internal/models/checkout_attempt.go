package models

import (
	"time"

	"gorm.io/gorm"
)

// CheckoutAttempt is the audit row for one checkout session. It is rewritten
// on every state change of the flow.
type CheckoutAttempt struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SessionID     string         `gorm:"size:36;not null;uniqueIndex" json:"session_id"`
	Owner         string         `gorm:"size:255;not null;index" json:"-"`
	Email         string         `gorm:"size:255" json:"email"`
	CustomerName  string         `gorm:"size:255" json:"customer_name"`
	PlanName      string         `gorm:"size:20;not null" json:"plan_name"`
	PostsLimit    int            `json:"posts_limit,omitempty"`
	AmountCents   int64          `gorm:"not null" json:"amount_cents"`
	Currency      string         `gorm:"size:3;default:'USD'" json:"currency"`
	Method        string         `gorm:"size:20" json:"payment_method"`
	Reference     string         `gorm:"size:255;index" json:"reference"`
	State         string         `gorm:"size:20;not null;index" json:"state"` // idle, submitting, polling, verified, timed_out, errored
	CancelOutcome string         `gorm:"size:20" json:"cancel_outcome,omitempty"`
	Polls         int            `json:"polls"`
	Message       string         `gorm:"type:text" json:"message,omitempty"`
	Version       uint64         `json:"-"`
	StartedAt     *time.Time     `json:"started_at"`
	FinishedAt    *time.Time     `json:"finished_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (CheckoutAttempt) TableName() string {
	return "checkout_attempts"
}
