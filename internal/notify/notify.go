// Package notify delivers one-time codes to users out of band.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/ErlanBelekov/storefront/internal/domain"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var ErrUnsupportedChannel = errors.New("notify: unsupported channel")

type Message struct {
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, user *domain.User, channel Channel, msg Message) error
}

// LogNotifier writes messages to the log instead of delivering them. Used in ENV=local.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

func (n *LogNotifier) Send(ctx context.Context, user *domain.User, channel Channel, msg Message) error {
	n.logger.InfoContext(ctx, "notification (local dev)",
		"user_id", user.ID,
		"channel", channel,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// emailSender is the slice of the Resend client EmailNotifier uses.
type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// EmailNotifier delivers over Resend. SMS is not wired to a provider.
type EmailNotifier struct {
	emails emailSender
	from   string
}

func NewEmailNotifier(apiKey, from string) *EmailNotifier {
	return &EmailNotifier{emails: resend.NewClient(apiKey).Emails, from: from}
}

func (n *EmailNotifier) Send(ctx context.Context, user *domain.User, channel Channel, msg Message) error {
	if channel != ChannelEmail {
		return fmt.Errorf("%w: %s", ErrUnsupportedChannel, channel)
	}
	_, err := n.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{user.Email},
		Subject: msg.Subject,
		Text:    msg.Body,
	})
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewNotifier returns a LogNotifier for ENV=local, EmailNotifier otherwise.
func NewNotifier(env, apiKey, from string, logger *slog.Logger) Notifier {
	if env == "local" {
		return NewLogNotifier(logger)
	}
	return NewEmailNotifier(apiKey, from)
}
