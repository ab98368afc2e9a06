package apiclient

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"
)

type PaymentMethodType string

const (
	MethodMobileMoney PaymentMethodType = "mobile_money"
	MethodCard        PaymentMethodType = "card"
)

// DirectPaymentRequest starts a payment. Card fields are only set for MethodCard.
type DirectPaymentRequest struct {
	CustomerName             string            `json:"customerName"`
	Email                    string            `json:"email"`
	PaymentMethod            PaymentMethodType `json:"paymentMethod"`
	CustomerPhoneNumber      string            `json:"customerPhoneNumber,omitempty"`
	PlanName                 string            `json:"planName"`
	PostsLimit               int               `json:"postsLimit,omitempty"`
	CreditCardNumber         string            `json:"creditCardNumber,omitempty"`
	CreditCardExpiryDate     string            `json:"creditCardExpiryDate,omitempty"`
	CreditCardSecurityNumber string            `json:"creditCardSecurityNumber,omitempty"`
}

type DirectPaymentResponse struct {
	Success         bool   `json:"success"`
	ReferenceNumber string `json:"referenceNumber"`
	Message         string `json:"message,omitempty"`
}

type PaymentStatus struct {
	Paid   bool   `json:"paid"`
	Status string `json:"status,omitempty"`
}

type BillingPlan struct {
	Plan        string   `json:"plan"`
	Price       string   `json:"price"`
	Interval    string   `json:"interval"`
	NextBilling string   `json:"nextBilling"`
	Status      string   `json:"status"`
	PostsLimit  int      `json:"postsLimit,omitempty"`
	Features    []string `json:"features,omitempty"`
}

type PaymentMethod struct {
	Type   string `json:"type"`
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

type Transaction struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

type UpdateCardData struct {
	CardName   string `json:"cardName"`
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

type ChangePlanData struct {
	PlanName   string `json:"planName"`
	PostsLimit int    `json:"postsLimit,omitempty"`
}

type BillingDetails struct {
	CurrentPlan   BillingPlan   `json:"currentPlan"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Transactions  []Transaction `json:"transactions"`
}

// InitiateDirectPayment starts a payment and returns its reference.
func (a *API) InitiateDirectPayment(ctx context.Context, req DirectPaymentRequest) (*DirectPaymentResponse, error) {
	var out DirectPaymentResponse
	if err := a.post(ctx, "/api/billing/payment/direct", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) PaymentStatus(ctx context.Context, reference string) (*PaymentStatus, error) {
	var out PaymentStatus
	if err := a.get(ctx, "/api/billing/payment/status/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CancelPayment(ctx context.Context, reference string) error {
	return a.delete(ctx, "/api/billing/payment/cancel/"+url.PathEscape(reference), nil)
}

func (a *API) CurrentPlan(ctx context.Context) (*BillingPlan, error) {
	var out BillingPlan
	if err := a.get(ctx, "/api/billing/plan", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) PaymentMethod(ctx context.Context) (*PaymentMethod, error) {
	var out PaymentMethod
	if err := a.get(ctx, "/api/billing/payment-method", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Transactions(ctx context.Context) ([]Transaction, error) {
	var out []Transaction
	if err := a.get(ctx, "/api/billing/transactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *API) UpdatePaymentMethod(ctx context.Context, data UpdateCardData) error {
	return a.post(ctx, "/api/billing/payment-method", data, nil)
}

// ChangePlan switches plans. A refusal comes back as *APIError, with
// NextBillingDate set when the change is only allowed after the current period.
func (a *API) ChangePlan(ctx context.Context, data ChangePlanData) (*MessageResponse, error) {
	var out MessageResponse
	if err := a.post(ctx, "/api/billing/change-plan", data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BillingDetails fetches plan, payment method and transactions concurrently.
func (a *API) BillingDetails(ctx context.Context) (*BillingDetails, error) {
	var (
		plan   *BillingPlan
		method *PaymentMethod
		txs    []Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		plan, err = a.CurrentPlan(gctx)
		return err
	})
	g.Go(func() (err error) {
		method, err = a.PaymentMethod(gctx)
		return err
	})
	g.Go(func() (err error) {
		txs, err = a.Transactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &BillingDetails{CurrentPlan: *plan, PaymentMethod: *method, Transactions: txs}, nil
}

type UsagePeriod struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SubscriptionUsage struct {
	PostsUsed  int         `json:"postsUsed"`
	TokensUsed int         `json:"tokensUsed"`
	Period     UsagePeriod `json:"period"`
}

type SubscriptionWithUsage struct {
	Subscription Subscription      `json:"subscription"`
	Usage        SubscriptionUsage `json:"usage"`
}

func (a *API) SubscriptionWithUsage(ctx context.Context) (*SubscriptionWithUsage, error) {
	var out SubscriptionWithUsage
	if err := a.get(ctx, "/api/profile/subscription", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
