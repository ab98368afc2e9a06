package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnauthorized matches any APIError carrying a 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is the one shape every remote failure is decoded into.
// A transport failure has StatusCode 0 and Err set.
type APIError struct {
	Op              string
	StatusCode      int
	Code            string // body "error"
	Message         string // body "message"
	NextBillingDate *time.Time
	Err             error
}

type errorBody struct {
	Error           string `json:"error"`
	Message         string `json:"message"`
	NextBillingDate string `json:"nextBillingDate"`
}

func decodeError(op string, status int, raw []byte) *APIError {
	e := &APIError{Op: op, StatusCode: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		e.Code = strings.TrimSpace(body.Error)
		e.Message = strings.TrimSpace(body.Message)
		if body.NextBillingDate != "" {
			if t, err := time.Parse(time.RFC3339, body.NextBillingDate); err == nil {
				e.NextBillingDate = &t
			}
		}
	}
	return e
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %d %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
	case e.Code != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Code)
	case e.Message != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// UserMessage picks the text to show a user: the body's error, then its message, then fallback.
func (e *APIError) UserMessage(fallback string) string {
	if e.Code != "" {
		return e.Code
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// UserMessage is APIError.UserMessage for any error.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage(fallback)
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
