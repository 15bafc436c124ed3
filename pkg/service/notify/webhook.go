package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/specbot/kickbot/pkg/service"
)

const DefaultTimeout = 10 * time.Second

// Webhook posts announcements to a chat webhook URL.
type Webhook struct {
	url         string
	mentionRole string
	http        *http.Client
}

// NewWebhook creates a webhook sink.
func NewWebhook(url, mentionRole string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Webhook{
		url:         url,
		mentionRole: mentionRole,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Announce posts every message of the event in order. The first failure
// is logged and the rest are skipped.
func (w *Webhook) Announce(ctx context.Context, e service.Event) {
	for _, msg := range Render(e, w.mentionRole) {
		if err := w.Post(ctx, msg); err != nil {
			logrus.Errorf("failed to announce %s: %v", e.Kind, err)
			return
		}
	}
}

// Post executes the webhook with msg.
func (w *Webhook) Post(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
