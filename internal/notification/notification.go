package notification

import (
	"context"
	"log/slog"
)

const (
	// KindEmailVerification indicates an OTP verification email.
	KindEmailVerification = "email_verification"
)

// Message describes a notification payload. For verification messages Code
// carries the raw one-time code and the transport renders it.
type Message struct {
	Kind        string
	Destination string
	Name        string
	Code        string
}

// Notifier delivers notifications to downstream systems. Delivery is
// fire-and-forget; senders log failures instead of propagating them.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. Used in development and as the fallback when no mail provider is
// configured.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger. The raw code is logged
// here on purpose so local development works without a mail provider.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "code", message.Code)
	return nil
}
