package checkout

import "inkcopilot/internal/apiclient"

type Panel string

const (
	PanelNone       Panel = ""
	PanelSubmitting Panel = "submitting"
	PanelVerifying  Panel = "verifying"
	PanelVerified   Panel = "verified"
	PanelError      Panel = "error"
)

const (
	LabelSubmit     = "Complete Purchase"
	LabelSubmitting = "Processing..."
	LabelVerifying  = "Verifying Payment..."
	LabelVerified   = "Payment Verified"
)

// View is what the checkout page shows for a snapshot.
// Restart tells the page that the next submit needs a new checkout session.
type View struct {
	State          State  `json:"state"`
	ButtonLabel    string `json:"buttonLabel"`
	ButtonDisabled bool   `json:"buttonDisabled"`
	Panel          Panel  `json:"panel,omitempty"`
	Title          string `json:"title,omitempty"`
	Detail         string `json:"detail,omitempty"`
	Reference      string `json:"reference,omitempty"`
	RedirectTo     string `json:"redirectTo,omitempty"`
	Restart        bool   `json:"restart,omitempty"`
}

// Render maps a snapshot onto the page. At most one panel is ever visible.
func Render(s Snapshot) View {
	v := View{State: s.State, ButtonLabel: LabelSubmit}
	switch s.State {
	case StateIdle:
		if s.Message != "" {
			v.Panel = PanelError
			v.Title = "Payment Failed"
			v.Detail = s.Message
		}
	case StateSubmitting:
		v.ButtonLabel = LabelSubmitting
		v.ButtonDisabled = true
		v.Panel = PanelSubmitting
		v.Title = "Processing Payment"
		v.Detail = "Please wait while we process your payment"
	case StatePolling:
		v.ButtonLabel = LabelVerifying
		v.ButtonDisabled = true
		v.Panel = PanelVerifying
		v.Title = "Verifying Payment"
		v.Detail = "Please wait while we verify your payment"
		if s.Method == apiclient.MethodMobileMoney {
			v.Detail = "Please confirm the payment on your mobile device"
		}
		v.Reference = s.Reference
	case StateVerified:
		v.ButtonLabel = LabelVerified
		v.ButtonDisabled = true
		v.Panel = PanelVerified
		v.Title = "Payment Successful!"
		v.Detail = "Your subscription has been activated. Redirecting to dashboard..."
		v.Reference = s.Reference
		v.RedirectTo = s.RedirectTo
	case StateErrored:
		v.Panel = PanelError
		v.Title = "Payment Verification Failed"
		v.Detail = "We couldn't verify your payment. Please contact support."
		v.Reference = s.Reference
		v.Restart = true
	case StateTimedOut:
		v.Panel = PanelError
		v.Reference = s.Reference
		v.Restart = true
		switch s.Cancel {
		case CancelFailed:
			v.Title = "Payment Verification Failed"
			v.Detail = "Payment verification timed out and we couldn't cancel the pending transaction. Please contact support."
		case CancelSucceeded:
			v.Title = "Payment Verification Timeout"
			v.Detail = "Payment verification timed out. The payment has been cancelled. Please try again."
		default:
			v.Title = "Payment Verification Timeout"
			v.Detail = "Payment verification timed out. Cancelling the pending payment..."
			v.ButtonDisabled = true
		}
	}
	return v
}
