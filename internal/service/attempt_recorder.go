package service

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"inkcopilot/internal/checkout"
	"inkcopilot/internal/models"
	"inkcopilot/internal/repository"
)

// AttemptRecorder writes checkout changes to the audit table off the polling
// goroutine. Only the newest pending snapshot per checkout is kept.
type AttemptRecorder struct {
	repo   *repository.AttemptRepository
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[string]checkout.Snapshot
	wake    chan struct{}
}

func NewAttemptRecorder(repo *repository.AttemptRepository, logger zerolog.Logger) *AttemptRecorder {
	return &AttemptRecorder{
		repo:    repo,
		logger:  logger.With().Str("component", "attempts").Logger(),
		pending: make(map[string]checkout.Snapshot),
		wake:    make(chan struct{}, 1),
	}
}

// CheckoutChanged queues the snapshot and never touches the database.
func (r *AttemptRecorder) CheckoutChanged(s checkout.Snapshot) {
	r.mu.Lock()
	if prev, ok := r.pending[s.ID]; !ok || s.Version >= prev.Version {
		r.pending[s.ID] = s
	}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Run writes queued snapshots until ctx is done, then flushes what is left.
func (r *AttemptRecorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.Flush()
			return
		case <-r.wake:
			r.Flush()
		}
	}
}

// Flush writes every pending snapshot now.
func (r *AttemptRecorder) Flush() {
	r.mu.Lock()
	batch := r.pending
	r.pending = make(map[string]checkout.Snapshot, len(batch))
	r.mu.Unlock()

	for _, s := range batch {
		if err := r.repo.Save(AttemptFromSnapshot(s)); err != nil {
			r.logger.Error().Err(err).Str("checkout_id", s.ID).Str("state", s.State.String()).Msg("[attempts] save failed")
		}
	}
}

func (r *AttemptRecorder) pendingLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// AttemptFromSnapshot maps a flow snapshot onto its audit row.
func AttemptFromSnapshot(s checkout.Snapshot) *models.CheckoutAttempt {
	return &models.CheckoutAttempt{
		SessionID:     s.ID,
		Owner:         s.Owner,
		Email:         s.Email,
		CustomerName:  s.Customer,
		PlanName:      string(s.Plan.Name),
		PostsLimit:    s.Plan.PostsLimit(),
		AmountCents:   int64(math.Round(s.Amount * 100)),
		Currency:      "USD",
		Method:        string(s.Method),
		Reference:     s.Reference,
		State:         s.State.String(),
		CancelOutcome: string(s.Cancel),
		Polls:         s.Polls,
		Message:       s.Message,
		Version:       s.Version,
		StartedAt:     s.StartedAt,
		FinishedAt:    s.FinishedAt,
	}
}
