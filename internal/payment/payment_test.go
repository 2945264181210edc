package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSimulatedGatewayCapture(t *testing.T) {
	g := NewSimulatedGateway()
	ctx := context.Background()

	tests := []struct {
		name     string
		req      CaptureRequest
		declined bool
		invalid  bool
	}{
		{name: "captures", req: CaptureRequest{Amount: 1200, Currency: "INR", Token: "tok_ok"}},
		{name: "declined token", req: CaptureRequest{Amount: 1200, Currency: "INR", Token: DeclineToken}, declined: true},
		{name: "zero amount", req: CaptureRequest{Amount: 0, Currency: "INR"}, invalid: true},
		{name: "missing currency", req: CaptureRequest{Amount: 100}, invalid: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Capture(ctx, tc.req)
			switch {
			case tc.declined:
				var declined *DeclinedError
				if !errors.As(err, &declined) || !errors.Is(err, ErrDeclined) {
					t.Fatalf("expected decline, got %v", err)
				}
			case tc.invalid:
				if err == nil || errors.Is(err, ErrDeclined) {
					t.Fatalf("expected validation error, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("capture: %v", err)
				}
				if !strings.HasPrefix(res.PaymentID, "pay_") {
					t.Fatalf("unexpected payment id %q", res.PaymentID)
				}
			}
		})
	}
}

func TestSimulatedGatewayRefund(t *testing.T) {
	g := NewSimulatedGateway()
	ctx := context.Background()

	res, err := g.Capture(ctx, CaptureRequest{Amount: 1000, Currency: "INR"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := g.Refund(ctx, res.PaymentID, 600); err != nil {
		t.Fatalf("partial refund: %v", err)
	}
	if err := g.Refund(ctx, res.PaymentID, 500); err == nil {
		t.Fatalf("expected over-refund to fail")
	}
	if got := g.Refunded(res.PaymentID); got != 600 {
		t.Fatalf("refunded: got %d, want 600", got)
	}
	if err := g.Refund(ctx, "pay_unknown", 1); err == nil {
		t.Fatalf("expected unknown payment to fail")
	}
}

func TestSimulatedGatewayHonoursContext(t *testing.T) {
	g := NewSimulatedGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Capture(ctx, CaptureRequest{Amount: 1, Currency: "INR"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}

func TestNewOmiseGatewayRequiresKeys(t *testing.T) {
	if _, err := NewOmiseGateway("", "skey_test"); err == nil {
		t.Fatalf("expected missing public key error")
	}
	if _, err := NewOmiseGateway("pkey_test", ""); err == nil {
		t.Fatalf("expected missing secret key error")
	}
}
