package checkout

import (
	"time"

	"inkcopilot/internal/apiclient"
	"inkcopilot/pkg/pricing"
)

// Snapshot is a consistent copy of one flow, safe to hand to other goroutines.
// Version grows by one on every change so stale copies can be dropped.
type Snapshot struct {
	ID         string                      `json:"id"`
	Owner      string                      `json:"-"`
	Version    uint64                      `json:"version"`
	State      State                       `json:"state"`
	Plan       pricing.Selection           `json:"plan"`
	Amount     float64                     `json:"amount"`
	Method     apiclient.PaymentMethodType `json:"paymentMethod,omitempty"`
	Email      string                      `json:"-"`
	Customer   string                      `json:"-"`
	Reference  string                      `json:"reference,omitempty"`
	StartedAt  *time.Time                  `json:"startedAt,omitempty"`
	FinishedAt *time.Time                  `json:"finishedAt,omitempty"`
	Polls      int                         `json:"polls"`
	Message    string                      `json:"message,omitempty"`
	Cancel     CancelOutcome               `json:"cancel,omitempty"`
	RedirectTo string                      `json:"redirectTo,omitempty"`
	Closed     bool                        `json:"closed"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

func (m *Machine) fill(s *Snapshot, redirectTo string) {
	s.State = m.state
	s.Reference = m.reference
	s.Polls = m.polls
	s.Message = m.message
	s.Cancel = m.cancel
	if !m.startedAt.IsZero() {
		t := m.startedAt
		s.StartedAt = &t
	}
	if !m.finishedAt.IsZero() {
		t := m.finishedAt
		s.FinishedAt = &t
	}
	if m.redirect {
		s.RedirectTo = redirectTo
	}
}

// Observer is told about every change to a flow. Calls for one flow are
// serialized and arrive in Version order.
type Observer interface {
	CheckoutChanged(s Snapshot)
}

type ObserverFunc func(Snapshot)

func (f ObserverFunc) CheckoutChanged(s Snapshot) { f(s) }

// Observers fans a change out to each observer in turn.
type Observers []Observer

func (o Observers) CheckoutChanged(s Snapshot) {
	for _, obs := range o {
		if obs != nil {
			obs.CheckoutChanged(s)
		}
	}
}
