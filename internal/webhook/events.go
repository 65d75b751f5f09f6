package webhook

import (
	"context"
	"strings"
)

const EventConversionCompleted = "conversion.completed"

// ConversionEvent is sent once per batch that produced at least one output.
type ConversionEvent struct {
	SessionID      string `json:"session_id"`
	ConvertedCount int    `json:"converted_count"`
	FailedCount    int    `json:"failed_count"`
	OutputFormat   string `json:"output_format"`
	Filename       string `json:"filename"`
}

// Notifier delivers conversion events to one configured endpoint.
type Notifier struct {
	client   *Client
	endpoint string
}

func NewNotifier(client *Client, endpoint string) *Notifier {
	return &Notifier{client: client, endpoint: strings.TrimSpace(endpoint)}
}

func (n *Notifier) Enabled() bool {
	return n != nil && n.endpoint != ""
}

func (n *Notifier) ConversionCompleted(ctx context.Context, event ConversionEvent) error {
	if !n.Enabled() {
		return nil
	}
	return n.client.Send(ctx, n.endpoint, EventConversionCompleted, event)
}
