package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSSender posts messages to an HTTP SMS gateway. An empty endpoint
// disables delivery, which keeps OTP flows testable without a provider.
type SMSSender struct {
	endpoint string
	client   *http.Client
}

// NewSMSSender constructs an SMSSender.
func NewSMSSender(endpoint string) *SMSSender {
	return &SMSSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Send delivers one SMS.
func (s *SMSSender) Send(ctx context.Context, to, body string) error {
	if s.endpoint == "" {
		return nil
	}
	data, err := json.Marshal(smsPayload{To: to, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: send sms to %s: %w", to, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: sms gateway returned %d", resp.StatusCode)
	}
	return nil
}
