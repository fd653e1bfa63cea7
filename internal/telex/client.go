// Package telex delivers outbound direct messages to the chat platform.
package telex

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/norihq/nori/config"
	"github.com/norihq/nori/internal/httpx"
	"github.com/norihq/nori/internal/telemetry"
)

const apologyMessage = "Sorry, something went wrong while fetching your news. Please try again in a bit."

// Client sends direct messages via the Telex API.
type Client struct {
	cfg    config.TelexConfig
	http   *httpx.Client
	logger *log.Logger
}

func NewClient(cfg config.TelexConfig) *Client {
	return &Client{
		cfg:    cfg,
		http:   httpx.New(cfg.Timeout, 0, 0),
		logger: log.New(log.Writer(), "[TELEX] ", log.LstdFlags),
	}
}

// SendDM delivers content to a single recipient.
func (c *Client) SendDM(ctx context.Context, recipientID, content string) error {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/v1/messages"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	payload := map[string]string{
		"type":         "direct_message",
		"recipient_id": recipientID,
		"content":      content,
	}
	if err := c.http.DoJSON(ctx, "POST", url, headers, payload, nil); err != nil {
		telemetry.Notifications.WithLabelValues("error").Inc()
		return fmt.Errorf("sending dm to %s: %w", recipientID, err)
	}
	telemetry.Notifications.WithLabelValues("ok").Inc()
	return nil
}

// Notify delivers text to the recipient. On failure it attempts a single
// generic apology message; if that also fails the error is only logged.
// There is no outbound retry queue.
func (c *Client) Notify(ctx context.Context, recipientID, text string) error {
	err := c.SendDM(ctx, recipientID, text)
	if err == nil {
		return nil
	}
	c.logger.Printf("notify failed: %v", err)

	if apologyErr := c.SendDM(ctx, recipientID, apologyMessage); apologyErr != nil {
		c.logger.Printf("apology message also failed: %v", apologyErr)
	}
	return err
}
