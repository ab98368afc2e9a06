package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inkcopilot/internal/apiclient"
	"inkcopilot/pkg/pricing"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type statusReply struct {
	paid bool
	err  error
}

// stubAPI plays the remote payment endpoints.
type stubAPI struct {
	mu          sync.Mutex
	initiateErr error
	reference   string
	replies     []statusReply
	block       bool
	cancelErr   error

	initiated   []apiclient.DirectPaymentRequest
	statusCalls int
	cancelled   []string
}

func (s *stubAPI) InitiateDirectPayment(_ context.Context, req apiclient.DirectPaymentRequest) (*apiclient.DirectPaymentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initiated = append(s.initiated, req)
	if s.initiateErr != nil {
		return nil, s.initiateErr
	}
	ref := s.reference
	if ref == "" {
		ref = "R1"
	}
	return &apiclient.DirectPaymentResponse{Success: true, ReferenceNumber: ref}, nil
}

func (s *stubAPI) PaymentStatus(ctx context.Context, _ string) (*apiclient.PaymentStatus, error) {
	s.mu.Lock()
	s.statusCalls++
	n := s.statusCalls
	block := s.block
	var reply statusReply
	if len(s.replies) > 0 {
		idx := n - 1
		if idx >= len(s.replies) {
			idx = len(s.replies) - 1
		}
		reply = s.replies[idx]
	}
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if reply.err != nil {
		return nil, reply.err
	}
	return &apiclient.PaymentStatus{Paid: reply.paid}, nil
}

func (s *stubAPI) CancelPayment(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, ref)
	return s.cancelErr
}

func (s *stubAPI) calls() (status int, cancelled []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusCalls, append([]string(nil), s.cancelled...)
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) CheckoutChanged(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) versions() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.Version
	}
	return out
}

func newTestFlow(clock clockwork.Clock, obs Observer) *Flow {
	return NewFlow("c1", "user-1", pricing.Selection{Name: pricing.PlanPro, Price: "$8.99", BillingPeriod: "month"}, Options{
		Clock:    clock,
		Logger:   zerolog.Nop(),
		Observer: obs,
	})
}

func waitState(t *testing.T, f *Flow, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return f.Snapshot().State == want }, waitFor, tick, "want %s", want)
}

func waitDone(t *testing.T, f *Flow) {
	t.Helper()
	select {
	case <-f.Done():
	case <-time.After(waitFor):
		t.Fatal("polling goroutine did not exit")
	}
}

func TestFlowVerifiedThenRedirects(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{paid: false}, {paid: true}}}
	rec := &recorder{}
	f := newTestFlow(clock, rec)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	assert.Equal(t, StatePolling, f.Snapshot().State)
	assert.Equal(t, LabelVerifying, f.View().ButtonLabel)

	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool { return f.Snapshot().Polls == 1 }, waitFor, tick)
	assert.Equal(t, StatePolling, f.Snapshot().State)

	clock.Advance(3 * time.Second)
	waitState(t, f, StateVerified)
	assert.Empty(t, f.Snapshot().RedirectTo, "redirect waits for the delay")

	require.Eventually(t, func() bool {
		clock.Advance(500 * time.Millisecond)
		return f.Snapshot().RedirectTo == "/dashboard"
	}, waitFor, tick)
	waitDone(t, f)

	status, cancelled := api.calls()
	assert.Equal(t, 2, status)
	assert.Empty(t, cancelled)

	versions := rec.versions()
	require.NotEmpty(t, versions)
	for i := 1; i < len(versions); i++ {
		assert.GreaterOrEqual(t, versions[i], versions[i-1])
	}
}

func TestFlowTimesOutAndCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{paid: false}}}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	clock.Advance(15 * time.Second)

	waitDone(t, f)
	s := f.Snapshot()
	assert.Equal(t, StateTimedOut, s.State)
	assert.Equal(t, CancelSucceeded, s.Cancel)
	_, cancelled := api.calls()
	assert.Equal(t, []string{"R1"}, cancelled)
	assert.Equal(t, "Payment verification timed out. The payment has been cancelled. Please try again.", f.View().Detail)
}

func TestFlowTimeoutWithFailedCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{paid: false}}, cancelErr: errors.New("gateway down")}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	clock.Advance(15 * time.Second)

	waitDone(t, f)
	assert.Equal(t, CancelFailed, f.Snapshot().Cancel)
	assert.Equal(t, "Payment verification timed out and we couldn't cancel the pending transaction. Please contact support.", f.View().Detail)
}

func TestFlowDeadlineIgnoresSlowQueries(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{block: true}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	clock.Advance(3 * time.Second)
	require.Eventually(t, func() bool { n, _ := api.calls(); return n == 1 }, waitFor, tick)

	clock.Advance(12 * time.Second)
	waitDone(t, f)

	status, cancelled := api.calls()
	assert.Equal(t, 1, status, "ticks are skipped while a query is in flight")
	assert.Equal(t, []string{"R1"}, cancelled)
	assert.Equal(t, StateTimedOut, f.Snapshot().State)
	assert.Zero(t, f.Snapshot().Polls)
}

func TestFlowQueryErrorStopsPolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{err: errors.New("502 bad gateway")}}}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	clock.Advance(3 * time.Second)
	waitDone(t, f)
	assert.Equal(t, StateErrored, f.Snapshot().State)

	clock.Advance(20 * time.Second)
	status, cancelled := api.calls()
	assert.Equal(t, 1, status)
	assert.Empty(t, cancelled, "errors are not cancelled")
	assert.Equal(t, "We couldn't verify your payment. Please contact support.", f.View().Detail)
	assert.ErrorIs(t, f.Submit(context.Background(), api, validForm()), ErrFinished)
}

func TestFlowInitiationFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	api := &stubAPI{initiateErr: &apiclient.APIError{Op: "initiate payment", StatusCode: 402, Code: "Insufficient balance"}}
	f := newTestFlow(clock, nil)

	err := f.Submit(context.Background(), api, validForm())
	require.Error(t, err)
	assert.Equal(t, 402, apiclient.StatusCode(err))

	s := f.Snapshot()
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.Reference)
	v := f.View()
	assert.Equal(t, PanelError, v.Panel)
	assert.Equal(t, "Insufficient balance", v.Detail)
	assert.False(t, v.ButtonDisabled)

	api.mu.Lock()
	api.initiateErr = errors.New("connection reset")
	api.mu.Unlock()
	require.Error(t, f.Submit(context.Background(), api, validForm()))
	assert.Equal(t, msgInitiateFailed, f.Snapshot().Message)
}

func TestFlowValidationMakesNoCall(t *testing.T) {
	api := &stubAPI{}
	f := newTestFlow(clockwork.NewFakeClock(), nil)

	form := validForm()
	form.Phone = "12345"
	var verr *ValidationError
	require.ErrorAs(t, f.Submit(context.Background(), api, form), &verr)

	form = validForm()
	form.PaymentMethod = apiclient.MethodCard
	require.ErrorAs(t, f.Submit(context.Background(), api, form), &verr)
	assert.Equal(t, "paymentMethod", verr.Field)

	assert.Empty(t, api.initiated)
	assert.Equal(t, StateIdle, f.Snapshot().State)
}

func TestFlowRejectsSecondSubmit(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{paid: false}}}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	assert.ErrorIs(t, f.Submit(context.Background(), api, validForm()), ErrBusy)
	assert.Len(t, api.initiated, 1)

	f.Close()
	waitDone(t, f)
}

func TestFlowRefusesBeforeValidating(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{err: errors.New("boom")}}}
	f := newTestFlow(clock, nil)

	bad := validForm()
	bad.Phone = "12345"

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	assert.ErrorIs(t, f.Submit(context.Background(), api, bad), ErrBusy, "polling wins over a bad form")

	clock.Advance(3 * time.Second)
	waitDone(t, f)
	assert.ErrorIs(t, f.Submit(context.Background(), api, bad), ErrFinished)

	f.Close()
	assert.ErrorIs(t, f.Submit(context.Background(), api, bad), ErrClosed)
	assert.Len(t, api.initiated, 1)
}

func TestFlowCloseLeavesStateAlone(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := clockwork.NewFakeClock()
	api := &stubAPI{replies: []statusReply{{paid: false}}}
	f := newTestFlow(clock, nil)

	require.NoError(t, f.Submit(context.Background(), api, validForm()))
	f.Close()
	require.NoError(t, f.Wait(context.Background()))

	clock.Advance(time.Minute)
	status, cancelled := api.calls()
	assert.Zero(t, status)
	assert.Empty(t, cancelled)
	s := f.Snapshot()
	assert.Equal(t, StatePolling, s.State)
	assert.True(t, s.Closed)
	assert.ErrorIs(t, f.Submit(context.Background(), api, validForm()), ErrClosed)
}
