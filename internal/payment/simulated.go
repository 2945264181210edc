package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DeclineToken makes SimulatedGateway refuse a capture.
const DeclineToken = "tok_declined"

// SimulatedGateway accepts every capture except DeclineToken and issues
// pay_<uuid> identifiers. It is used in demo mode and in tests.
type SimulatedGateway struct {
	mu       sync.Mutex
	captured map[string]int64
	refunded map[string]int64
}

func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		captured: make(map[string]int64),
		refunded: make(map[string]int64),
	}
}

func (g *SimulatedGateway) Capture(ctx context.Context, req CaptureRequest) (CaptureResult, error) {
	if err := req.validate(); err != nil {
		return CaptureResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return CaptureResult{}, err
	}
	if req.Token == DeclineToken {
		return CaptureResult{}, &DeclinedError{Code: "insufficient_fund", Message: "simulated decline"}
	}

	id := "pay_" + uuid.NewString()
	g.mu.Lock()
	g.captured[id] = req.Amount
	g.mu.Unlock()

	log.Ctx(ctx).Debug().
		Str("payment_id", id).
		Str("reference", req.Reference).
		Int64("amount", req.Amount).
		Msg("Simulated payment captured")
	return CaptureResult{PaymentID: id}, nil
}

func (g *SimulatedGateway) Refund(ctx context.Context, paymentID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	captured, ok := g.captured[paymentID]
	if !ok {
		return fmt.Errorf("unknown payment %q", paymentID)
	}
	if g.refunded[paymentID]+amount > captured {
		return fmt.Errorf("refund of %d exceeds captured amount %d for %s", amount, captured, paymentID)
	}
	g.refunded[paymentID] += amount
	return nil
}

// Refunded reports the total refunded against paymentID.
func (g *SimulatedGateway) Refunded(paymentID string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunded[paymentID]
}
