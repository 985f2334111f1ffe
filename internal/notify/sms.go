package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSMSTimeout = 15 * time.Second

// SMSGatewayClient sends SMS through the hospital's SMS gateway HTTP API.
type SMSGatewayClient struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewSMSGatewayClient returns a client that uses the given API key and optional sender ID.
// timeout bounds each send; zero or negative falls back to 15s.
func NewSMSGatewayClient(apiKey, baseURL, sender string, timeout time.Duration) *SMSGatewayClient {
	if timeout <= 0 {
		timeout = defaultSMSTimeout
	}
	return &SMSGatewayClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the message to the gateway. Does not log the message body.
func (c *SMSGatewayClient) Send(ctx context.Context, destination, message string) error {
	if c.APIKey == "" || c.BaseURL == "" {
		return fmt.Errorf("sms: gateway not configured")
	}
	body := map[string]interface{}{
		"to":      destination,
		"message": message,
	}
	if c.Sender != "" {
		body["sender"] = c.Sender
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
