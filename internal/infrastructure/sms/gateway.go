package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// gatewayTimeout bounds the outbound send; the gateway must not block a
// registration indefinitely.
const gatewayTimeout = 10 * time.Second

// GatewaySender posts {number, message} to a configurable HTTP SMS gateway.
// Delivery succeeded only when the response is 2xx and its JSON body carries
// status "success".
type GatewaySender struct {
	url    string
	client *http.Client
}

func NewGatewaySender(url string) *GatewaySender {
	return &GatewaySender{
		url:    url,
		client: &http.Client{Timeout: gatewayTimeout},
	}
}

func (s *GatewaySender) SendSMS(ctx context.Context, to, message string) error {
	payload, err := json.Marshal(map[string]string{
		"number":  to,
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway responded %d", resp.StatusCode)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode sms response: %w", err)
	}
	if body.Status != "success" {
		return fmt.Errorf("sms gateway status %q", body.Status)
	}
	return nil
}
