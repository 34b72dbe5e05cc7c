// internal/notify/webhook.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/dip-monitor/internal/monitor"
)

const (
	webhookTimeout    = 10 * time.Second
	webhookMaxElapsed = 15 * time.Second
)

// WebhookSink POSTs each alert as JSON to an HTTPS endpoint.
// Server errors are retried with exponential backoff; 4xx responses
// are treated as permanent and not retried.
type WebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

var _ monitor.Sink = (*WebhookSink)(nil)

func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: webhookTimeout},
		logger: logger.Named("webhook"),
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

type webhookPayload struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	CurrentPrice    float64   `json:"current_price"`
	RunningMax      float64   `json:"running_max"`
	DrawdownPercent float64   `json:"drawdown_percent"`
	SecondsSinceMax int64     `json:"seconds_since_max"`
	UpdateCount     uint64    `json:"update_count"`
	EmittedAt       time.Time `json:"emitted_at"`
}

func (s *WebhookSink) Deliver(ctx context.Context, alert monitor.AlertEvent) error {
	body, err := json.Marshal(webhookPayload{
		ID:              alert.ID,
		Symbol:          alert.Symbol,
		CurrentPrice:    alert.CurrentPrice,
		RunningMax:      alert.RunningMax,
		DrawdownPercent: alert.DrawdownPercent,
		SecondsSinceMax: alert.SecondsSinceMax,
		UpdateCount:     alert.UpdateCount,
		EmittedAt:       alert.EmittedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	operation := func() (struct{}, error) {
		return struct{}{}, s.post(ctx, body)
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(webhookMaxElapsed))
	if err != nil {
		return fmt.Errorf("deliver alert %s: %w", alert.ID, err)
	}
	return nil
}

func (s *WebhookSink) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	err = fmt.Errorf("webhook returned status %d", resp.StatusCode)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return backoff.Permanent(err)
	}

	s.logger.Debug("Webhook delivery will be retried",
		zap.Int("status", resp.StatusCode))
	return err
}
