package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inkcopilot/pkg/pricing"
)

func newTestRegistry(clock clockwork.Clock) *Registry {
	return NewRegistry(Options{Clock: clock, Logger: zerolog.Nop()}, 30*time.Minute)
}

func TestRegistryOpenValidatesPlan(t *testing.T) {
	r := newTestRegistry(clockwork.NewFakeClock())

	_, err := r.Open("u1", pricing.Selection{Name: pricing.PlanFree})
	assert.ErrorIs(t, err, ErrInvalidPlan)

	_, err = r.Open("u1", pricing.Selection{Name: pricing.PlanCustom, PostsPerMonth: 100})
	assert.ErrorIs(t, err, pricing.ErrInvalidPosts)

	f, err := r.Open("u1", pricing.Selection{Name: "Custom Plan", PostsPerMonth: 150})
	require.NoError(t, err)
	assert.Equal(t, pricing.PlanCustom, f.Plan().Name)
	assert.Equal(t, 21.14, f.Snapshot().Amount)
	assert.Equal(t, "month", f.Plan().BillingPeriod)

	f, err = r.Open("u1", pricing.Selection{Name: "Pro Plan", PostsPerMonth: 999})
	require.NoError(t, err)
	assert.Zero(t, f.Plan().PostsPerMonth, "only Custom carries a quota")
	assert.Equal(t, 2, r.Len())
}

func TestRegistryGetChecksOwner(t *testing.T) {
	r := newTestRegistry(clockwork.NewFakeClock())
	f, err := r.Open("u1", pricing.Selection{Name: pricing.PlanStarter})
	require.NoError(t, err)

	got, err := r.Get("u1", f.ID())
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = r.Get("u2", f.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Close("u1", f.ID()))
	assert.Zero(t, r.Len())
	assert.True(t, f.Snapshot().Closed)
}

func TestRegistrySweepKeepsPollingFlows(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	r := newTestRegistry(clock)

	idle, err := r.Open("u1", pricing.Selection{Name: pricing.PlanStarter})
	require.NoError(t, err)
	busy, err := r.Open("u2", pricing.Selection{Name: pricing.PlanPro})
	require.NoError(t, err)
	api := &stubAPI{block: true}
	require.NoError(t, busy.Submit(context.Background(), api, validForm()))

	assert.Zero(t, r.Sweep(), "nothing is old enough yet")

	r.ttl = 0
	assert.Equal(t, 1, r.Sweep())
	_, err = r.Get("u1", idle.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("u2", busy.ID())
	assert.NoError(t, err)

	require.NoError(t, r.Shutdown(context.Background()))
	assert.Zero(t, r.Len())
	waitDone(t, busy)
}
