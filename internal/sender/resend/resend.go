// Package resend delivers email through the Resend HTTP API.
package resend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/puros/internal/sender"
	apperrors "github.com/utafrali/puros/pkg/errors"
	"github.com/utafrali/puros/pkg/httpclient"
)

// DefaultAPIURL is Resend's send endpoint.
const DefaultAPIURL = "https://api.resend.com/emails"

// Config holds Resend credentials.
type Config struct {
	APIURL string
	APIKey string
	From   string
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Sender implements sender.Sender against the Resend API. Requests carry an
// idempotency key so the HTTP client may retry them.
type Sender struct {
	client httpclient.Doer
	cfg    Config
	logger *slog.Logger
}

// New creates a Resend sender that sends through client, normally a
// circuit-breaking httpclient.
func New(cfg Config, client httpclient.Doer, logger *slog.Logger) *Sender {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return &Sender{client: client, cfg: cfg, logger: logger}
}

func (s *Sender) Name() string { return "resend" }

// Send posts msg to Resend. Provider and transport failures are returned
// wrapped in ErrNotificationFailed with delivered=false.
func (s *Sender) Send(ctx context.Context, msg *sender.Message) (bool, error) {
	body, err := json.Marshal(sendRequest{
		From:    s.cfg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
	})
	if err != nil {
		return false, fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build email request: %w", err)
	}
	id := msg.ID
	if id == "" {
		id = uuid.New().String()
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set(httpclient.IdempotencyKeyHeader, id)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", apperrors.ErrNotificationFailed, msg.Kind, err)
	}

	if resp.StatusCode >= 300 {
		err := httpclient.ParseResponseError(resp, "resend")
		return false, fmt.Errorf("%w: %s: %w", apperrors.ErrNotificationFailed, msg.Kind, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	s.logger.DebugContext(ctx, "email sent",
		slog.String("message_id", id),
		slog.String("kind", msg.Kind),
	)
	return true, nil
}
