package logsender

import (
	"context"
	"log/slog"

	"github.com/utafrali/puros/internal/sender"
)

// Sender logs messages instead of delivering them. It is used when no email
// provider is configured and always reports delivery.
type Sender struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Name() string { return "log" }

func (s *Sender) Send(ctx context.Context, msg *sender.Message) (bool, error) {
	s.logger.InfoContext(ctx, "email not sent, no provider configured",
		slog.String("message_id", msg.ID),
		slog.String("kind", msg.Kind),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return true, nil
}
