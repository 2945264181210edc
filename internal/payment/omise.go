package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
	"github.com/rs/zerolog/log"
)

// OmiseGateway captures card tokens through the Omise API.
type OmiseGateway struct {
	client *omise.Client
}

func NewOmiseGateway(publicKey, secretKey string) (*OmiseGateway, error) {
	if publicKey == "" || secretKey == "" {
		return nil, fmt.Errorf("omise public and secret keys are required")
	}
	client, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("create omise client: %w", err)
	}
	client.SetDebug(false)
	return &OmiseGateway{client: client}, nil
}

func (g *OmiseGateway) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if err := req.validate(); err != nil {
		return CaptureResult{}, err
	}
	if req.Token == "" {
		return CaptureResult{}, &DeclinedError{Code: "missing_token", Message: "card token is required"}
	}

	charge := &omise.Charge{}
	op := &operations.CreateCharge{
		Amount:      req.Amount,
		Currency:    strings.ToLower(req.Currency),
		Card:        req.Token,
		Description: req.Description,
		Metadata:    map[string]interface{}{"reference": req.Reference},
	}
	if err := g.do(ctx, func() error { return g.client.Do(charge, op) }); err != nil {
		return CaptureResult{}, fmt.Errorf("create charge: %w", err)
	}

	switch string(charge.Status) {
	case "successful":
		return CaptureResult{PaymentID: charge.ID}, nil
	case "failed":
		declined := &DeclinedError{Code: "failed"}
		if charge.FailureCode != nil {
			declined.Code = *charge.FailureCode
		}
		if charge.FailureMessage != nil {
			declined.Message = *charge.FailureMessage
		}
		return CaptureResult{}, declined
	default:
		// Pending and 3-D Secure charges cannot confirm a booking synchronously.
		log.Ctx(ctx).Warn().
			Str("charge_id", charge.ID).
			Str("status", string(charge.Status)).
			Msg("Omise charge not settled")
		return CaptureResult{}, &DeclinedError{Code: string(charge.Status), Message: "charge requires further authorization"}
	}
}

func (g *OmiseGateway) Refund(ctx context.Context, paymentID string, amount int64) error {
	refund := &omise.Refund{}
	op := &operations.CreateRefund{
		ChargeID: paymentID,
		Amount:   amount,
	}
	if err := g.do(ctx, func() error { return g.client.Do(refund, op) }); err != nil {
		return fmt.Errorf("refund charge %s: %w", paymentID, err)
	}
	return nil
}

// do runs a blocking SDK call and gives up when ctx is done. The SDK call
// itself keeps running in the background until the HTTP client returns.
func (g *OmiseGateway) do(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
