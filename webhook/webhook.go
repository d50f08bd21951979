// Package webhook delivers signed batch lifecycle notifications to
// caller-supplied endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/use-agent/harvest/models"
)

// EventBatchCompleted fires once when a batch job reaches a terminal
// status (completed, partial or failed).
const EventBatchCompleted = "batch.completed"

// Event is the payload POSTed to webhook endpoints. DeliveryID is
// unique per delivery attempt set, so receivers can deduplicate
// retries.
type Event struct {
	Type       string                      `json:"type"`
	JobID      string                      `json:"job_id"`
	DeliveryID string                      `json:"delivery_id"`
	Timestamp  int64                       `json:"timestamp"`
	Batch      *models.BatchStatusResponse `json:"batch,omitempty"`
}

// BatchCompleted builds the terminal-status event for a batch job.
func BatchCompleted(status models.BatchStatusResponse) *Event {
	return &Event{
		Type:       EventBatchCompleted,
		JobID:      status.ID,
		DeliveryID: uuid.NewString(),
		Timestamp:  time.Now().Unix(),
		Batch:      &status,
	}
}

// Notifier signs and delivers events. The zero value is not usable;
// construct with NewNotifier.
type Notifier struct {
	secret      string
	client      *http.Client
	retryDelays []time.Duration
}

// NewNotifier returns a Notifier that signs payloads with secret.
// An empty secret disables signing.
func NewNotifier(secret string) *Notifier {
	return &Notifier{
		secret:      secret,
		client:      &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Deliver POSTs the event synchronously.
//
// The body is signed with HMAC-SHA256 when a secret is configured
// (header X-Harvest-Signature: sha256=<hex>); the event type and
// delivery ID ride in X-Harvest-Event and X-Harvest-Delivery so
// receivers can route and deduplicate without parsing the body.
func (n *Notifier) Deliver(ctx context.Context, url string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Harvest-Webhook/1.0")
	req.Header.Set("X-Harvest-Event", event.Type)
	req.Header.Set("X-Harvest-Delivery", event.DeliveryID)

	if n.secret != "" {
		mac := hmac.New(sha256.New, []byte(n.secret))
		mac.Write(body)
		req.Header.Set("X-Harvest-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync delivers the event in the background, retrying on a
// backoff schedule (1s, 5s, 30s) before giving up.
func (n *Notifier) DeliverAsync(url string, event *Event) {
	go func() {
		attempts := len(n.retryDelays) + 1
		for attempt := 1; attempt <= attempts; attempt++ {
			if attempt > 1 {
				time.Sleep(n.retryDelays[attempt-2])
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := n.Deliver(ctx, url, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"job_id", event.JobID,
					"delivery_id", event.DeliveryID,
					"attempt", attempt,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"job_id", event.JobID,
				"attempt", attempt,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"job_id", event.JobID,
			"delivery_id", event.DeliveryID,
		)
	}()
}
