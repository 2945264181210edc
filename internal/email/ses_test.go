package email

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESClientSend(t *testing.T) {
	api := &fakeSES{}
	c := &SESClient{api: api, opts: SESOptions{
		From:             "bookings@quickcourt.local",
		ReplyTo:          "support@quickcourt.local",
		ConfigurationSet: "bookings",
	}}

	msg := Message{Event: "booking.created", Subject: "Booking Confirmed - Riverside", Body: "Your court booking is confirmed."}
	if err := c.Send(context.Background(), " player@example.com ", msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	in := api.in
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "player@example.com" {
		t.Fatalf("unexpected recipients %v", got)
	}
	if aws.ToString(in.FromEmailAddress) != "bookings@quickcourt.local" {
		t.Fatalf("unexpected sender %q", aws.ToString(in.FromEmailAddress))
	}
	if len(in.ReplyToAddresses) != 1 || in.ReplyToAddresses[0] != "support@quickcourt.local" {
		t.Fatalf("unexpected reply-to %v", in.ReplyToAddresses)
	}
	if aws.ToString(in.ConfigurationSetName) != "bookings" {
		t.Fatalf("unexpected configuration set %q", aws.ToString(in.ConfigurationSetName))
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != "booking_created" {
		t.Fatalf("unexpected tags %+v", in.EmailTags)
	}
	if aws.ToString(in.Content.Simple.Subject.Data) != msg.Subject {
		t.Fatalf("unexpected subject %q", aws.ToString(in.Content.Simple.Subject.Data))
	}
}

func TestSESClientSendErrors(t *testing.T) {
	api := &fakeSES{err: errors.New("throttled")}
	c := &SESClient{api: api, opts: SESOptions{From: "bookings@quickcourt.local"}}

	if err := c.Send(context.Background(), "  ", Message{}); err == nil {
		t.Fatal("expected a blank recipient to fail")
	}
	if api.in != nil {
		t.Fatal("blank recipient must not reach SES")
	}
	if err := c.Send(context.Background(), "player@example.com", Message{Subject: "x"}); err == nil {
		t.Fatal("expected the SES error to surface")
	}
	if api.in.ReplyToAddresses != nil || api.in.EmailTags != nil {
		t.Fatalf("optional fields should be unset: %+v", api.in)
	}
}

func TestNewSESClientValidation(t *testing.T) {
	if _, err := NewSESClient(context.Background(), SESOptions{From: "a@b.c"}); err == nil {
		t.Fatal("expected missing region to fail")
	}
	if _, err := NewSESClient(context.Background(), SESOptions{Region: "ap-south-1"}); err == nil {
		t.Fatal("expected missing sender to fail")
	}
}
