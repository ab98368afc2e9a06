package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"inkcopilot/internal/apiclient"
	"inkcopilot/pkg/pricing"
)

const msgInitiateFailed = "Payment failed. Please try again."

var (
	// ErrClosed is returned by Submit after the page went away.
	ErrClosed = errors.New("checkout session closed")
	// ErrMethodUnavailable rejects payment methods the site does not accept yet.
	ErrMethodUnavailable = errors.New("payment method not available")
)

// PaymentAPI is the part of the remote API a checkout flow drives.
type PaymentAPI interface {
	InitiateDirectPayment(ctx context.Context, req apiclient.DirectPaymentRequest) (*apiclient.DirectPaymentResponse, error)
	PaymentStatus(ctx context.Context, reference string) (*apiclient.PaymentStatus, error)
	CancelPayment(ctx context.Context, reference string) error
}

// Options tunes a flow. Zero durations take the production defaults.
type Options struct {
	PollInterval  time.Duration
	Deadline      time.Duration
	RedirectDelay time.Duration
	RedirectTo    string
	CancelTimeout time.Duration
	Methods       []apiclient.PaymentMethodType
	Tier          pricing.Tier
	Clock         clockwork.Clock
	Logger        zerolog.Logger
	Observer      Observer
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
	if o.Deadline <= 0 {
		o.Deadline = 15 * time.Second
	}
	if o.RedirectDelay <= 0 {
		o.RedirectDelay = 2 * time.Second
	}
	if o.RedirectTo == "" {
		o.RedirectTo = "/dashboard"
	}
	if o.CancelTimeout <= 0 {
		o.CancelTimeout = 10 * time.Second
	}
	if len(o.Methods) == 0 {
		o.Methods = []apiclient.PaymentMethodType{apiclient.MethodMobileMoney}
	}
	if o.Tier.BasePosts == 0 {
		o.Tier = pricing.DefaultTier
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

type statusResult struct {
	status *apiclient.PaymentStatus
	err    error
}

// Flow drives one checkout attempt: initiation, polling, timeout and the
// redirect after verification. One goroutine runs per polling flow.
type Flow struct {
	id     string
	owner  string
	plan   pricing.Selection
	amount float64
	opts   Options
	clock  clockwork.Clock
	logger zerolog.Logger

	ctx  context.Context
	stop context.CancelFunc
	done chan struct{}

	notifyMu sync.Mutex

	mu       sync.Mutex
	m        Machine
	version  uint64
	method   apiclient.PaymentMethodType
	email    string
	customer string
	api      PaymentAPI
	running  bool
	closed   bool
	updated  time.Time
}

// NewFlow opens an idle checkout for plan on behalf of owner.
func NewFlow(id, owner string, plan pricing.Selection, opts Options) *Flow {
	opts = opts.withDefaults()
	ctx, stop := context.WithCancel(context.Background())
	f := &Flow{
		id:     id,
		owner:  owner,
		plan:   plan,
		amount: plan.MonthlyPrice(opts.Tier),
		opts:   opts,
		clock:  opts.Clock,
		logger: opts.Logger.With().Str("checkout_id", id).Logger(),
		ctx:    ctx,
		stop:   stop,
		done:   make(chan struct{}),
		m:      NewMachine(opts.Deadline),
	}
	f.updated = f.clock.Now()
	return f
}

func (f *Flow) ID() string { return f.id }

func (f *Flow) Owner() string { return f.owner }

func (f *Flow) Plan() pricing.Selection { return f.plan }

// Done is closed when the polling goroutine has exited. It stays open for a
// flow that never started polling.
func (f *Flow) Done() <-chan struct{} { return f.done }

func (f *Flow) methodAllowed(m apiclient.PaymentMethodType) bool {
	for _, allowed := range f.opts.Methods {
		if allowed == m {
			return true
		}
	}
	return false
}

// Submit validates the form, initiates the payment and, on success, starts
// polling. It returns once the initiation call has completed. A flow that is
// closed or already submitted refuses before the form is looked at.
func (f *Flow) Submit(ctx context.Context, api PaymentAPI, form Form) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if err := f.m.CanSubmit(); err != nil {
		f.mu.Unlock()
		return err
	}
	req, err := form.Request(f.plan)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	if !f.methodAllowed(form.PaymentMethod) {
		f.mu.Unlock()
		return &ValidationError{Field: "paymentMethod", Message: "This payment method is not available yet"}
	}
	if err := f.m.Submit(); err != nil {
		f.mu.Unlock()
		return err
	}
	f.method = req.PaymentMethod
	f.email = req.Email
	f.customer = req.CustomerName
	f.changedLocked()
	f.mu.Unlock()
	f.notify()

	f.logger.Info().Str("plan", req.PlanName).Str("method", string(req.PaymentMethod)).Msg("[checkout] initiating payment")
	resp, err := api.InitiateDirectPayment(ctx, req)
	if err == nil && (resp == nil || !resp.Success || resp.ReferenceNumber == "") {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		err = &apiclient.APIError{Op: "initiate payment", StatusCode: 200, Message: msg}
	}
	if err != nil {
		f.mu.Lock()
		f.m.InitiateFailed(apiclient.UserMessage(err, msgInitiateFailed))
		f.changedLocked()
		f.mu.Unlock()
		f.notify()
		outcomes.WithLabelValues("initiate_failed").Inc()
		f.logger.Warn().Err(err).Msg("[checkout] initiation failed")
		return fmt.Errorf("initiate payment: %w", err)
	}

	f.mu.Lock()
	f.m.Initiated(resp.ReferenceNumber, f.clock.Now())
	f.changedLocked()
	if f.closed {
		// The page left while the request was in flight; nobody is watching.
		f.mu.Unlock()
		f.notify()
		f.logger.Warn().Str("reference", resp.ReferenceNumber).Msg("[checkout] initiated after close, not polling")
		return nil
	}
	f.api = api
	f.running = true
	ticker := f.clock.NewTicker(f.opts.PollInterval)
	deadline := f.clock.NewTimer(f.opts.Deadline)
	f.mu.Unlock()
	f.notify()

	f.logger.Info().Str("reference", resp.ReferenceNumber).Msg("[checkout] payment initiated, polling for completion")
	initiated.WithLabelValues(string(req.PaymentMethod)).Inc()
	go f.run(resp.ReferenceNumber, ticker, deadline)
	return nil
}

func (f *Flow) run(ref string, ticker clockwork.Ticker, deadline clockwork.Timer) {
	active.Inc()
	defer active.Dec()
	defer close(f.done)
	defer ticker.Stop()
	defer deadline.Stop()

	results := make(chan statusResult, 1)
	var inflight context.CancelFunc
	abandon := func() {
		if inflight != nil {
			inflight()
			inflight = nil
		}
	}

	for {
		select {
		case <-f.ctx.Done():
			abandon()
			f.logger.Debug().Msg("[checkout] closed while polling")
			return

		case <-ticker.Chan():
			if inflight != nil {
				f.logger.Debug().Msg("[checkout] status query still in flight, skipping tick")
				continue
			}
			qctx, cancel := context.WithCancel(f.ctx)
			inflight = cancel
			polls.Inc()
			go func() {
				st, err := f.api.PaymentStatus(qctx, ref)
				results <- statusResult{status: st, err: err}
			}()

		case res := <-results:
			abandon()
			switch f.observe(res) {
			case StateVerified:
				ticker.Stop()
				deadline.Stop()
				f.awaitRedirect()
				return
			case StateTimedOut:
				ticker.Stop()
				deadline.Stop()
				f.cancelPayment(ref)
				return
			case StateErrored:
				return
			}

		case <-deadline.Chan():
			f.mu.Lock()
			remaining := f.m.Remaining(f.clock.Now())
			f.mu.Unlock()
			if remaining > 0 {
				deadline.Reset(remaining)
				continue
			}
			abandon()
			ticker.Stop()
			if f.timeout() {
				f.cancelPayment(ref)
			}
			return
		}
	}
}

func (f *Flow) observe(res statusResult) State {
	paid := res.err == nil && res.status != nil && res.status.Paid

	f.mu.Lock()
	state := f.m.ObserveStatus(f.clock.Now(), paid, res.err)
	f.changedLocked()
	elapsed := f.m.finishedAt.Sub(f.m.startedAt)
	f.mu.Unlock()
	f.notify()

	if state.Terminal() {
		outcomes.WithLabelValues(state.String()).Inc()
	}
	switch state {
	case StateVerified:
		timeToVerify.Observe(elapsed.Seconds())
		f.logger.Info().Dur("elapsed", elapsed).Msg("[checkout] payment verified")
	case StateTimedOut:
		f.logger.Warn().Msg("[checkout] status arrived after deadline")
	case StateErrored:
		f.logger.Error().Err(res.err).Msg("[checkout] status query failed")
	}
	return state
}

func (f *Flow) timeout() bool {
	f.mu.Lock()
	ok := f.m.Timeout(f.clock.Now())
	if ok {
		f.changedLocked()
	}
	f.mu.Unlock()
	if ok {
		outcomes.WithLabelValues(StateTimedOut.String()).Inc()
		f.logger.Warn().Msg("[checkout] verification timed out")
		f.notify()
	}
	return ok
}

// cancelPayment runs even after Close; it is the only cleanup for a pending charge.
func (f *Flow) cancelPayment(ref string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(f.ctx), f.opts.CancelTimeout)
	defer cancel()
	err := f.api.CancelPayment(ctx, ref)
	if err != nil {
		cancels.WithLabelValues(string(CancelFailed)).Inc()
		f.logger.Error().Err(err).Str("reference", ref).Msg("[checkout] cancel after timeout failed")
	} else {
		cancels.WithLabelValues(string(CancelSucceeded)).Inc()
		f.logger.Info().Str("reference", ref).Msg("[checkout] pending payment cancelled")
	}

	f.mu.Lock()
	f.m.CancelFinished(err)
	f.changedLocked()
	f.mu.Unlock()
	f.notify()
}

func (f *Flow) awaitRedirect() {
	select {
	case <-f.clock.After(f.opts.RedirectDelay):
		f.mu.Lock()
		f.m.MarkRedirect()
		f.changedLocked()
		f.mu.Unlock()
		f.notify()
	case <-f.ctx.Done():
	}
}

// Close stops timers and abandons any in-flight query. The state is left as is.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.changedLocked()
	f.mu.Unlock()
	f.stop()
	f.notify()
}

// Wait blocks until the polling goroutine exits or ctx is done.
func (f *Flow) Wait(ctx context.Context) error {
	f.mu.Lock()
	running := f.running
	f.mu.Unlock()
	if !running {
		return nil
	}
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current state of the flow.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// View renders the current state.
func (f *Flow) View() View {
	return Render(f.Snapshot())
}

func (f *Flow) snapshotLocked() Snapshot {
	s := Snapshot{
		ID:        f.id,
		Owner:     f.owner,
		Version:   f.version,
		Plan:      f.plan,
		Amount:    f.amount,
		Method:    f.method,
		Email:     f.email,
		Customer:  f.customer,
		Closed:    f.closed,
		UpdatedAt: f.updated,
	}
	f.m.fill(&s, f.opts.RedirectTo)
	return s
}

func (f *Flow) changedLocked() {
	f.version++
	f.updated = f.clock.Now()
}

// notify hands the latest snapshot to the observer. Deliveries are serialized
// and a snapshot older than one already delivered is never sent.
func (f *Flow) notify() {
	if f.opts.Observer == nil {
		return
	}
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
	f.opts.Observer.CheckoutChanged(f.Snapshot())
}

// idleSince reports when the flow last changed and whether nothing is left
// for it to do, so the registry may drop it.
func (f *Flow) idleSince() (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return f.updated, true
	}
	switch f.m.State() {
	case StateIdle, StateErrored:
		return f.updated, true
	case StateVerified:
		return f.updated, f.m.redirect
	case StateTimedOut:
		return f.updated, f.m.cancel != CancelPending
	}
	return f.updated, false
}
