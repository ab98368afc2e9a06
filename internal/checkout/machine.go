package checkout

import (
	"errors"
	"time"
)

var (
	// ErrBusy is returned when a submission is already outstanding.
	ErrBusy = errors.New("a payment is already in progress")
	// ErrFinished is returned once the attempt reached a terminal state.
	ErrFinished = errors.New("checkout already finished; start a new checkout")
)

// Machine is the payment confirmation state machine. It holds no timers and
// does no I/O; the caller feeds it observations stamped with the flow clock.
// It is not safe for concurrent use.
type Machine struct {
	state      State
	deadline   time.Duration
	reference  string
	startedAt  time.Time
	finishedAt time.Time
	polls      int
	message    string
	cancel     CancelOutcome
	redirect   bool
}

func NewMachine(deadline time.Duration) Machine {
	return Machine{deadline: deadline}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) Reference() string { return m.reference }

// Submit moves Idle to Submitting.
func (m *Machine) Submit() error {
	if err := m.CanSubmit(); err != nil {
		return err
	}
	m.state = StateSubmitting
	m.message = ""
	return nil
}

// CanSubmit reports why a submission would be refused, without changing state.
func (m *Machine) CanSubmit() error {
	switch {
	case m.state == StateIdle:
		return nil
	case m.state.Terminal():
		return ErrFinished
	default:
		return ErrBusy
	}
}

// InitiateFailed returns a Submitting attempt to Idle with a message for the user.
func (m *Machine) InitiateFailed(message string) {
	if m.state != StateSubmitting {
		return
	}
	m.state = StateIdle
	m.message = message
}

// Initiated records the reference and the timeout baseline and starts polling.
func (m *Machine) Initiated(reference string, at time.Time) {
	if m.state != StateSubmitting {
		return
	}
	m.state = StatePolling
	m.reference = reference
	m.startedAt = at
}

// Remaining is the time left before the deadline; zero or negative once expired.
func (m *Machine) Remaining(now time.Time) time.Duration {
	return m.deadline - now.Sub(m.startedAt)
}

// Expired reports whether a polling attempt has used up its deadline.
func (m *Machine) Expired(now time.Time) bool {
	return m.state == StatePolling && m.Remaining(now) <= 0
}

// ObserveStatus applies one status query result. A result that arrives after
// the deadline counts as a timeout, whatever it says.
func (m *Machine) ObserveStatus(now time.Time, paid bool, err error) State {
	if m.state != StatePolling {
		return m.state
	}
	m.polls++
	switch {
	case m.Expired(now):
		m.finish(StateTimedOut, now)
	case err != nil:
		m.finish(StateErrored, now)
	case paid:
		m.finish(StateVerified, now)
	}
	return m.state
}

// Timeout ends a polling attempt whose deadline has passed.
func (m *Machine) Timeout(now time.Time) bool {
	if !m.Expired(now) {
		return false
	}
	return m.finish(StateTimedOut, now)
}

// finish is the single terminal transition. Only the first call from Polling wins.
func (m *Machine) finish(s State, now time.Time) bool {
	if m.state != StatePolling || !s.Terminal() {
		return false
	}
	m.state = s
	m.finishedAt = now
	if s == StateTimedOut {
		m.cancel = CancelPending
	}
	return true
}

// CancelFinished records how the timeout cancellation went.
func (m *Machine) CancelFinished(err error) {
	if m.state != StateTimedOut || m.cancel != CancelPending {
		return
	}
	if err != nil {
		m.cancel = CancelFailed
		return
	}
	m.cancel = CancelSucceeded
}

// MarkRedirect flags a verified attempt as ready to leave the checkout page.
func (m *Machine) MarkRedirect() {
	if m.state == StateVerified {
		m.redirect = true
	}
}
