package checkout

import "fmt"

// State is the position of one checkout attempt in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StatePolling
	StateVerified
	StateTimedOut
	StateErrored
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateSubmitting: "submitting",
	StatePolling:    "polling",
	StateVerified:   "verified",
	StateTimedOut:   "timed_out",
	StateErrored:    "errored",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further automatic transition can happen.
func (s State) Terminal() bool {
	return s == StateVerified || s == StateTimedOut || s == StateErrored
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown checkout state %q", b)
}

// CancelOutcome records the best-effort cancellation issued on timeout.
type CancelOutcome string

const (
	CancelNone      CancelOutcome = ""
	CancelPending   CancelOutcome = "pending"
	CancelSucceeded CancelOutcome = "succeeded"
	CancelFailed    CancelOutcome = "failed"
)
