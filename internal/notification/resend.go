package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// ResendMailer delivers verification emails through the Resend HTTP API.
type ResendMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewResendMailer constructs a Resend-backed notifier.
func NewResendMailer(apiKey, from string, logger *slog.Logger) *ResendMailer {
	return &ResendMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: resendEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Send posts the rendered email. Failures are logged and swallowed: OTP
// delivery is best-effort and the pending record keeps its TTL regardless.
func (m *ResendMailer) Send(ctx context.Context, message Message) error {
	payload, err := json.Marshal(resendRequest{
		From:    fmt.Sprintf("Cracked <%s>", m.from),
		To:      message.Destination,
		Subject: "Verify your email",
		HTML:    renderVerificationHTML(message.Name, message.Code),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("send verification email", "destination", message.Destination, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		m.logger.Warn("send verification email", "destination", message.Destination, "status", resp.StatusCode)
	}
	return nil
}

func renderVerificationHTML(name, code string) string {
	safeName := "User"
	if name != "" {
		safeName = strings.ToUpper(name[:1]) + name[1:]
	}
	return fmt.Sprintf(`<div style="font-family: sans-serif;">
  <h2>Hello %s</h2>
  <h2>Email Verification</h2>
  <p>Your OTP is:</p>
  <h1>%s</h1>
  <p>This OTP expires in 15 minutes.</p>
</div>`, safeName, code)
}
