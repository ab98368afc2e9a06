package checkout

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"inkcopilot/internal/apiclient"
	"inkcopilot/pkg/format"
	"inkcopilot/pkg/pricing"
)

const msgPhone = "Please enter exactly 9 digits for a valid mobile number"

// ValidationError is a client-side input problem; it never reaches the network.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Form is the payment form as typed by the customer. Phone and card values may
// still carry display separators.
type Form struct {
	FirstName     string                      `json:"firstName" validate:"required"`
	LastName      string                      `json:"lastName" validate:"required"`
	Email         string                      `json:"email" validate:"required,email"`
	PaymentMethod apiclient.PaymentMethodType `json:"paymentMethod" validate:"required,oneof=mobile_money card"`
	Phone         string                      `json:"customerPhoneNumber"`
	CardNumber    string                      `json:"creditCardNumber"`
	CardExpiry    string                      `json:"creditCardExpiryDate"`
	CardCVV       string                      `json:"creditCardSecurityNumber"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var fieldLabels = map[string]string{
	"firstName":     "First name",
	"lastName":      "Last name",
	"email":         "Email",
	"paymentMethod": "Payment method",
}

// Request validates the form and builds a fresh payment request for plan.
func (f Form) Request(plan pricing.Selection) (apiclient.DirectPaymentRequest, error) {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)

	if err := validate.Struct(f); err != nil {
		return apiclient.DirectPaymentRequest{}, translate(err)
	}

	req := apiclient.DirectPaymentRequest{
		CustomerName:  strings.TrimSpace(f.FirstName + " " + f.LastName),
		Email:         f.Email,
		PaymentMethod: f.PaymentMethod,
		PlanName:      string(plan.Name),
		PostsLimit:    plan.PostsLimit(),
	}

	switch f.PaymentMethod {
	case apiclient.MethodMobileMoney:
		phone := format.PhoneSubmission(f.Phone)
		if phone == "" {
			return apiclient.DirectPaymentRequest{}, &ValidationError{Field: "customerPhoneNumber", Message: msgPhone}
		}
		req.CustomerPhoneNumber = phone
	case apiclient.MethodCard:
		number := format.CardSubmission(f.CardNumber)
		if len(number) != format.CardDigits {
			return apiclient.DirectPaymentRequest{}, &ValidationError{Field: "creditCardNumber", Message: "Please enter a valid card number"}
		}
		expiry := format.Expiry(f.CardExpiry)
		if len(format.Digits(expiry)) != format.ExpiryDigits {
			return apiclient.DirectPaymentRequest{}, &ValidationError{Field: "creditCardExpiryDate", Message: "Please enter the expiry date as MM/YY"}
		}
		cvv := format.Digits(f.CardCVV)
		if len(cvv) < 3 || len(cvv) > 4 {
			return apiclient.DirectPaymentRequest{}, &ValidationError{Field: "creditCardSecurityNumber", Message: "Please enter a valid security code"}
		}
		req.CreditCardNumber = number
		req.CreditCardExpiryDate = expiry
		req.CreditCardSecurityNumber = cvv
	}
	return req, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: "form", Message: "Please check the form and try again"}
	}
	fe := verrs[0]
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: label + " is required"}
	case "email":
		return &ValidationError{Field: fe.Field(), Message: "Please enter a valid email address"}
	case "oneof":
		return &ValidationError{Field: fe.Field(), Message: "Please choose a supported payment method"}
	}
	return &ValidationError{Field: fe.Field(), Message: label + " is invalid"}
}
