package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"inkcopilot/pkg/pricing"
)

var (
	ErrNotFound = errors.New("checkout session not found")
	// ErrInvalidPlan rejects selections that cannot be bought.
	ErrInvalidPlan = errors.New("plan cannot be purchased")
)

// Registry holds the live checkout flows keyed by session id.
type Registry struct {
	opts Options
	ttl  time.Duration

	mu    sync.Mutex
	flows map[string]*Flow
}

func NewRegistry(opts Options, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Registry{
		opts:  opts.withDefaults(),
		ttl:   ttl,
		flows: make(map[string]*Flow),
	}
}

// Open validates the selection and starts an idle flow for owner.
func (r *Registry) Open(owner string, plan pricing.Selection) (*Flow, error) {
	plan.Name = pricing.ParsePlanName(string(plan.Name))
	switch plan.Name {
	case pricing.PlanFree:
		return nil, ErrInvalidPlan
	case pricing.PlanCustom:
		if err := r.opts.Tier.ValidatePosts(plan.PostsPerMonth); err != nil {
			return nil, err
		}
	default:
		plan.PostsPerMonth = 0
	}
	if plan.BillingPeriod == "" {
		plan.BillingPeriod = "month"
	}

	f := NewFlow(uuid.NewString(), owner, plan, r.opts)
	r.mu.Lock()
	r.flows[f.ID()] = f
	r.mu.Unlock()
	opened.Inc()
	f.logger.Info().Str("plan", string(plan.Name)).Float64("amount", f.amount).Msg("[checkout] session opened")
	f.notify()
	return f, nil
}

// Get returns the flow with id if it belongs to owner.
func (r *Registry) Get(owner, id string) (*Flow, error) {
	r.mu.Lock()
	f, ok := r.flows[id]
	r.mu.Unlock()
	if !ok || f.Owner() != owner {
		return nil, ErrNotFound
	}
	return f, nil
}

// Close detaches the page from a flow and forgets it.
func (r *Registry) Close(owner, id string) error {
	f, err := r.Get(owner, id)
	if err != nil {
		return err
	}
	f.Close()
	r.mu.Lock()
	delete(r.flows, id)
	r.mu.Unlock()
	return nil
}

// Len is the number of flows held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// Sweep closes and drops flows that have nothing left to do and have not
// changed for the configured TTL. It returns how many were dropped.
func (r *Registry) Sweep() int {
	now := r.opts.Clock.Now()
	var stale []*Flow
	r.mu.Lock()
	for id, f := range r.flows {
		updated, evictable := f.idleSince()
		if evictable && now.Sub(updated) >= r.ttl {
			stale = append(stale, f)
			delete(r.flows, id)
		}
	}
	r.mu.Unlock()

	for _, f := range stale {
		f.Close()
	}
	if len(stale) > 0 {
		r.opts.Logger.Debug().Int("evicted", len(stale)).Msg("[checkout] swept stale sessions")
	}
	return len(stale)
}

// Shutdown closes every flow and waits for their goroutines, up to ctx.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	flows := make([]*Flow, 0, len(r.flows))
	for id, f := range r.flows {
		flows = append(flows, f)
		delete(r.flows, id)
	}
	r.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}
	for _, f := range flows {
		if err := f.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
