package email

import (
	"context"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/consult-api/internal/config"
)

type Service interface {
	Send(ctx context.Context, to, subject, body string) error
}

// dialer is the part of *gomail.Dialer we use.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	dialer dialer
	from   string
}

func NewSMTPService(cfg config.EmailConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	return s.dialer.DialAndSend(m)
}

// noopService drops every message. Used when email is disabled.
type noopService struct{}

func NewNoopService() Service { return noopService{} }

func (noopService) Send(context.Context, string, string, string) error { return nil }
