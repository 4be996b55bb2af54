package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/wneessen/go-mail"
)

// TwilioSMS sends SMS through the Twilio REST API.
type TwilioSMS struct {
	client *twilio.RestClient
	from   string
	to     string
}

func NewTwilioSMS(accountSID, authToken, from, to string) *TwilioSMS {
	return &TwilioSMS{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
		to:   to,
	}
}

func (s *TwilioSMS) SendSMS(ctx context.Context, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(s.to)
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	if msg.Sid != nil {
		slog.Info("sms sent", "sid", *msg.Sid)
	}
	return nil
}

// SMTPMailer sends plain-text mail over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	host       string
	port       int
	sender     string
	password   string
	recipients []string
}

func NewSMTPMailer(host string, port int, sender, password string, recipients []string) *SMTPMailer {
	return &SMTPMailer{
		host:       host,
		port:       port,
		sender:     sender,
		password:   password,
		recipients: recipients,
	}
}

func (m *SMTPMailer) SendEmail(ctx context.Context, subject, body string) (int, error) {
	if len(m.recipients) == 0 {
		return 0, errors.New("no recipients configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return 0, fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(m.recipients...); err != nil {
		return 0, fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.sender),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return 0, fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return 0, fmt.Errorf("send mail: %w", err)
	}
	return len(m.recipients), nil
}
