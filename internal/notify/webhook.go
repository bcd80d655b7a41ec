package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/schedule"
)

const (
	webhookTimeout = 10 * time.Second
	actionPin      = "progress_adjustment"
)

type webhookPayload struct {
	Timestamp      time.Time    `json:"timestamp"`
	Action         string       `json:"action"`
	Subject        string       `json:"subject"`
	AdjustmentDate schedule.Day `json:"adjustmentDate"`
	Course         string       `json:"course"`
	Anchor         schedule.Day `json:"anchor"`
}

// HTTPDoer is the subset of *http.Client the webhook needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook POSTs each pin event as JSON to a fixed URL.
type Webhook struct {
	URL    string
	Client HTTPDoer
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: webhookTimeout},
	}
}

func (w *Webhook) Notify(ctx context.Context, ev model.PinEvent) error {
	body, err := json.Marshal(webhookPayload{
		Timestamp:      ev.Timestamp.UTC(),
		Action:         actionPin,
		Subject:        ev.Subject,
		AdjustmentDate: ev.Date,
		Course:         ev.CourseID,
		Anchor:         ev.Anchor,
	})
	if err != nil {
		return fmt.Errorf("webhook: encode: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook: unexpected status %s", resp.Status)
	}
	appLog.Info("webhook delivered", "course", ev.CourseID, "subject", ev.Subject, "status", resp.StatusCode)
	return nil
}
