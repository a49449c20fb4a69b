//go:generate go run go.uber.org/mock/mockgen -source=mailer.go -destination=mock_mailer_test.go -package=contact

package contact

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"
	"golang.org/x/time/rate"
)

var ErrMailerDisabled = errors.New("mailer disabled: no SMTP credentials configured")

// Message is what the relay hands to a Sender. ReplyTo may be empty.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// DisabledSender accepts nothing; used when no credentials are configured.
type DisabledSender struct{}

func (DisabledSender) Send(context.Context, Message) error {
	return ErrMailerDisabled
}

// SMTPSender delivers through an SMTP server with PLAIN auth, over implicit
// TLS when SSL is set and plain/STARTTLS otherwise. Sends are paced by a
// token bucket shared by every request.
type SMTPSender struct {
	addr    string
	auth    smtp.Auth
	tls     *tls.Config
	ssl     bool
	limiter *rate.Limiter
	deliver func(e *email.Email) error
}

// NewSender returns an SMTPSender, or DisabledSender when cfg lacks credentials.
func NewSender(cfg SmtpCfg, perMinute int) Sender {
	if !cfg.Enabled() {
		return DisabledSender{}
	}
	return NewSMTPSender(cfg, perMinute)
}

func NewSMTPSender(cfg SmtpCfg, perMinute int) *SMTPSender {
	if perMinute <= 0 {
		perMinute = 30
	}
	s := &SMTPSender{
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth:    smtp.PlainAuth("", cfg.User, cfg.Password(), cfg.Host),
		tls:     &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
		ssl:     cfg.SSL,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
	s.deliver = s.smtpDeliver
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail pacing: %w", err)
	}

	e := newEmail(msg)

	// net/smtp has no context support; the buffered channel lets the
	// delivery goroutine finish on its own after the caller gave up.
	done := make(chan error, 1)
	go func() { done <- s.deliver(e) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", msg.To, ctx.Err())
	}
}

func (s *SMTPSender) smtpDeliver(e *email.Email) error {
	if s.ssl {
		return e.SendWithTLS(s.addr, s.auth, s.tls)
	}
	return e.Send(s.addr, s.auth)
}

func newEmail(msg Message) *email.Email {
	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	if msg.ReplyTo != "" {
		e.ReplyTo = []string{msg.ReplyTo}
	}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = []byte(msg.HTML)
	return e
}
