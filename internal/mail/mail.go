// Package mail delivers one-time verification codes to new users, over SMTP
// or, for users who registered a phone number, over SMS.
package mail

import (
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
	gomail "gopkg.in/gomail.v2"

	"github.com/emilythestrangee/community-forum/backend/internal/config"
	"github.com/emilythestrangee/community-forum/backend/internal/models"
)

// Sender delivers a verification code to a user. Implementations are
// fire-and-forget; a failure surfaces to the caller as a dependency error.
type Sender interface {
	SendOTP(user *models.User, code string) error
}

// SMTPSender sends the verification mail through a plain SMTP account.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) SendOTP(user *models.User, code string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", "Verify your Email")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Your verification code is <b>%s</b>.</p><p>This code expires in <b>1 hour</b></p>", code,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("%w: failed to send verification code", models.ErrDependency)
	}
	return nil
}

// SMSSender delivers the code by text message through Twilio.
type SMSSender struct {
	client *twilio.RestClient
	from   string
}

func NewSMSSender(cfg config.Twilio) *SMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &SMSSender{client: client, from: cfg.FromNumber}
}

func (s *SMSSender) SendOTP(user *models.User, code string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(user.PhoneNumber)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("Your verification code is %s. It expires in 1 hour.", code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: failed to send verification code", models.ErrDependency)
	}
	return nil
}

// Dispatcher picks the delivery channel per user: SMS when a phone number was
// registered, email otherwise.
type Dispatcher struct {
	email Sender
	sms   Sender
}

func NewDispatcher(email, sms Sender) *Dispatcher {
	return &Dispatcher{email: email, sms: sms}
}

func (d *Dispatcher) SendOTP(user *models.User, code string) error {
	if user.PhoneNumber != "" && d.sms != nil {
		return d.sms.SendOTP(user, code)
	}
	return d.email.SendOTP(user, code)
}
