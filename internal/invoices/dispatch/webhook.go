package dispatch

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/domain"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
)

const (
	defaultWebhookTimeout = 15 * time.Second
	maxErrorBodyBytes     = 512

	HeaderEvent          = "X-Crm-Event"
	HeaderSignature      = "X-Crm-Signature"
	HeaderIdempotencyKey = "Idempotency-Key"

	relanceEventName = "invoice.relance"
)

// WebhookDispatcher posts the payload as JSON. Any non-2xx answer is a failure
// and nothing is retried here.
type WebhookDispatcher struct {
	url        string
	secret     string
	httpClient *http.Client
	log        *logger.Logger
}

// NewWebhookDispatcher creates a dispatcher bounded by timeout.
func NewWebhookDispatcher(url, secret string, timeout time.Duration, log *logger.Logger) *WebhookDispatcher {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	if log == nil {
		log = logger.Discard()
	}
	return &WebhookDispatcher{
		url:    url,
		secret: secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

func (d *WebhookDispatcher) Channel() string { return ChannelWebhook }

func (d *WebhookDispatcher) Dispatch(ctx context.Context, payload domain.RelancePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode relance payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderEvent, relanceEventName)
	req.Header.Set(HeaderIdempotencyKey, payload.IdempotencyKey())
	if d.secret != "" {
		req.Header.Set(HeaderSignature, "sha256="+Sign(d.secret, body))
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		d.log.Warn("relance webhook rejected",
			"invoice_id", payload.InvoiceID,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Dispatcher = (*WebhookDispatcher)(nil)
