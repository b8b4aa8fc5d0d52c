package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

// Mailer delivers a message to an email address.
type Mailer interface {
	Send(ctx context.Context, to, message string) error
}

// LogMailer is a basic provider that only logs outgoing mail.
type LogMailer struct {
	logger zerolog.Logger
}

// NewLogMailer constructs a logging mailer.
func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With().Str("component", "log_mailer").Logger()}
}

// Send logs the message and reports success without contacting any delivery channel.
func (l *LogMailer) Send(_ context.Context, to, message string) error {
	l.logger.Info().Str("to", maskEmail(to)).Int("length", len(message)).Msg("email accepted for mock delivery")
	return nil
}

// maskEmail keeps the first and last rune of the local part for log lines.
func maskEmail(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}

	runes := []rune(local)
	if len(runes) <= 2 {
		return string(runes[0]) + "***@" + domain
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1]) + "@" + domain
}
