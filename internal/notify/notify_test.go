package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/codr1/quickcourt/internal/email"
)

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMail
	sendErr error
}

type sentMail struct {
	recipient, event, subject, body string
}

func (f *fakeSender) Send(ctx context.Context, recipient string, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentMail{recipient: recipient, event: msg.Event, subject: msg.Subject, body: msg.Body})
	return nil
}

func samplePayload() Payload {
	return Payload{
		BookingID:    42,
		CustomerID:   7,
		ContactEmail: "player@example.com",
		VenueName:    "Riverside Sports",
		CourtName:    "Court 2",
		Date:         "2030-03-08",
		Start:        "19:00",
		End:          "21:00",
		Timezone:     "UTC",
		Amount:       120000,
		Currency:     "INR",
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	m := Multi{
		NotifierFunc(func(context.Context, Event, Payload) error { calls++; return boom }),
		nil,
		NotifierFunc(func(context.Context, Event, Payload) error { calls++; return nil }),
	}

	err := m.Notify(context.Background(), EventBookingCreated, samplePayload())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected both notifiers to run, got %d", calls)
	}
}

func TestDispatchSurvivesCanceledParent(t *testing.T) {
	delivered := make(chan Payload, 1)
	n := NotifierFunc(func(ctx context.Context, _ Event, p Payload) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		delivered <- p
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	Dispatch(ctx, n, EventBookingCancelled, samplePayload())

	select {
	case p := <-delivered:
		if p.BookingID != 42 || p.OccurredAt.IsZero() {
			t.Fatalf("unexpected payload %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("expected notification to be delivered")
	}

	Dispatch(context.Background(), nil, EventBookingCreated, samplePayload())
}

func TestEmailNotifier(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		payload     func() Payload
		wantSubject string
	}{
		{name: "created", event: EventBookingCreated, payload: samplePayload, wantSubject: "Booking Confirmed - Riverside Sports"},
		{name: "cancelled", event: EventBookingCancelled, payload: samplePayload, wantSubject: "Booking Cancelled - Riverside Sports"},
		{name: "reminder", event: EventBookingReminder, payload: samplePayload, wantSubject: "Upcoming Booking Reminder - Riverside Sports"},
		{name: "completed is not mailed", event: EventBookingCompleted, payload: samplePayload},
		{name: "no contact address", event: EventBookingCreated, payload: func() Payload {
			p := samplePayload()
			p.ContactEmail = ""
			return p
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			n := NewEmailNotifier(sender, 2*time.Hour)
			if err := n.Notify(context.Background(), tc.event, tc.payload()); err != nil {
				t.Fatalf("notify: %v", err)
			}
			if tc.wantSubject == "" {
				if len(sender.sent) != 0 {
					t.Fatalf("expected no mail, got %+v", sender.sent)
				}
				return
			}
			if len(sender.sent) != 1 {
				t.Fatalf("expected one mail, got %d", len(sender.sent))
			}
			mail := sender.sent[0]
			if mail.recipient != "player@example.com" || mail.subject != tc.wantSubject || mail.event != string(tc.event) {
				t.Fatalf("unexpected mail %+v", mail)
			}
			if !strings.Contains(mail.body, "7:00 PM - 9:00 PM UTC") {
				t.Fatalf("expected venue-local time range in body:\n%s", mail.body)
			}
		})
	}
}

func TestEmailNotifierWrapsSendError(t *testing.T) {
	sender := &fakeSender{sendErr: errors.New("ses down")}
	err := NewEmailNotifier(sender, time.Hour).Notify(context.Background(), EventBookingCreated, samplePayload())
	if err == nil || !strings.Contains(err.Error(), "booking 42") {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestEncodeEvent(t *testing.T) {
	body, err := encodeEvent(EventBookingCreated, samplePayload())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var decoded struct {
		Event   string         `json:"event"`
		Payload map[string]any `json:"payload"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Event != "booking.created" || decoded.Payload["court_name"] != "Court 2" {
		t.Fatalf("unexpected envelope %s", body)
	}
}
