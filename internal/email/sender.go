package email

import "context"

// Sender delivers a rendered booking message to one recipient.
type Sender interface {
	Send(ctx context.Context, recipient string, msg Message) error
}
