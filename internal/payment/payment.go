// Package payment captures and refunds booking payments.
package payment

import (
	"context"
	"errors"
	"fmt"
)

// ErrDeclined is returned when the gateway refuses a capture.
var ErrDeclined = errors.New("payment declined")

// DeclinedError carries the gateway's decline code.
type DeclinedError struct {
	Code    string
	Message string
}

func (e *DeclinedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment declined: %s", e.Code)
	}
	return fmt.Sprintf("payment declined: %s: %s", e.Code, e.Message)
}

func (e *DeclinedError) Unwrap() error {
	return ErrDeclined
}

// CaptureRequest describes a one-shot charge for a booking. Amount is in the
// currency's minor unit.
type CaptureRequest struct {
	Amount      int64
	Currency    string
	Reference   string
	Description string
	Token       string
}

func (r CaptureRequest) validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", r.Amount)
	}
	if r.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

type CaptureResult struct {
	PaymentID string
}

// Gateway is the payment collaborator used by the booking lifecycle.
type Gateway interface {
	Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error)
	Refund(ctx context.Context, paymentID string, amount int64) error
}
