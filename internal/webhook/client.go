package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/pixelconvert/internal/config"
)

const (
	HeaderSignature = "X-Pixelconvert-Signature"
	HeaderTimestamp = "X-Pixelconvert-Timestamp"
	HeaderEvent     = "X-Pixelconvert-Event"
)

// errPermanent marks a response that retrying cannot fix.
var errPermanent = errors.New("permanent webhook failure")

// Client posts signed JSON events, retrying with capped exponential backoff.
type Client struct {
	http     *http.Client
	secret   []byte
	attempts int
	backoff  time.Duration
	ceiling  time.Duration
}

func NewClient(cfg config.WebhookConfig) *Client {
	c := &Client{
		http:     &http.Client{Timeout: cfg.Timeout},
		secret:   []byte(cfg.SigningSecret),
		attempts: max(cfg.MaxAttempts, 1),
		backoff:  cfg.InitialBackoff,
		ceiling:  cfg.MaxBackoff,
	}
	if c.http.Timeout <= 0 {
		c.http.Timeout = 10 * time.Second
	}
	if c.backoff <= 0 {
		c.backoff = time.Second
	}
	c.ceiling = max(c.ceiling, c.backoff)
	return c
}

// Send posts payload signed over "<timestamp>.<body>". An empty endpoint is a no-op.
// 4xx answers other than 408 and 429 are not retried.
func (c *Client) Send(ctx context.Context, endpoint, event string, payload any) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}
	timestamp := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	signature := c.sign(timestamp, body)

	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err = c.post(ctx, endpoint, event, timestamp, signature, body)
		if err == nil {
			return nil
		}
		if errors.Is(err, errPermanent) || attempt == c.attempts {
			return fmt.Errorf("webhook delivery failed after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait = min(wait*2, c.ceiling)
	}
}

func (c *Client) post(ctx context.Context, endpoint, event, timestamp, signature string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %v: %w", err, errPermanent)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderEvent, event)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("webhook returned status=%d", code)
	default:
		return fmt.Errorf("webhook returned status=%d: %w", code, errPermanent)
	}
}

func (c *Client) sign(timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(timestamp + "."))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
