package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var ErrRateLimited = errors.New("too many submissions")

const (
	MessageDelivered = "Contact form submitted successfully!"
	MessageReceived  = "Thank you for your message. We have received your contact form submission."

	autoReplySubject = "Thank you for contacting me!"
	previewLen       = 100
)

// Result is reported to the caller once a submission passed validation and
// rate limiting. Delivered is false when the notification could not be sent;
// callers must not reveal that to the submitter.
type Result struct {
	Delivered bool
	Message   string
}

type RelayConfig struct {
	From          string
	To            string
	SubjectPrefix string
	Owner         OwnerCfg
}

// Relay runs one submission through validate, admit, send and auto-reply.
type Relay struct {
	cfg    RelayConfig
	store  RateLimitStore
	sender Sender
	logger *slog.Logger
}

func NewRelay(cfg RelayConfig, store RateLimitStore, sender Sender, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{cfg: cfg, store: store, sender: sender, logger: logger}
}

// Submit returns *ValidationError for malformed input and ErrRateLimited when
// clientID used up its window. Every other outcome, including a failed
// delivery, is a success.
func (r *Relay) Submit(ctx context.Context, clientID string, raw Submission) (Result, error) {
	sub, err := ValidateSubmission(raw)
	if err != nil {
		return Result{}, err
	}

	ok, err := r.store.Admit(ctx, clientID)
	if err != nil {
		// fail open
		r.log(ctx).Warn("rate limiter unavailable, admitting", "client", clientID, "err", err)
		ok = true
	}
	if !ok {
		return Result{}, ErrRateLimited
	}

	if err := r.notify(ctx, sub); err != nil {
		r.log(ctx).Error("contact notification not delivered",
			"err", err,
			"client", clientID,
			"name", sub.Name,
			"email", sub.Email,
			"subject", sub.Subject,
			"preview", preview(sub.Message),
			"received_at", time.Now().UTC().Format(time.RFC3339),
		)
		return Result{Delivered: false, Message: MessageReceived}, nil
	}

	if err := r.autoReply(ctx, sub); err != nil {
		r.log(ctx).Warn("auto-reply failed", "err", err, "client", clientID)
	}
	return Result{Delivered: true, Message: MessageDelivered}, nil
}

func (r *Relay) notify(ctx context.Context, sub Submission) error {
	html, text, err := renderNotification(sub)
	if err != nil {
		return fmt.Errorf("render notification: %w", err)
	}
	msg := Message{
		From:    r.cfg.From,
		To:      r.cfg.To,
		ReplyTo: sub.Email,
		Subject: strings.TrimSpace(r.cfg.SubjectPrefix + " " + sub.Subject),
		HTML:    html,
		Text:    text,
	}
	if err := r.sender.Send(ctx, msg); err != nil {
		return err
	}
	r.log(ctx).Info("contact notification sent", "to", r.cfg.To)
	return nil
}

func (r *Relay) autoReply(ctx context.Context, sub Submission) error {
	html, text, err := renderAutoReply(sub.Name, r.cfg.Owner)
	if err != nil {
		return fmt.Errorf("render auto-reply: %w", err)
	}
	return r.sender.Send(ctx, Message{
		From:    r.cfg.From,
		To:      sub.Email,
		Subject: autoReplySubject,
		HTML:    html,
		Text:    text,
	})
}

func (r *Relay) log(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return r.logger
}

func preview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewLen {
		return s
	}
	return string(runes[:previewLen]) + "..."
}
