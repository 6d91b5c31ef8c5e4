// internal/notifier/http_session.go
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSession delivers messages through an HTTP gateway. One POST per
// message, authenticated with an API key header.
type HTTPSession struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPSession(baseURL, apiKey string, timeout time.Duration) *HTTPSession {
	return &HTTPSession{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// Connect verifies the gateway is reachable.
func (s *HTTPSession) Connect(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("message gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("message gateway health check returned %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPSession) Disconnect() error {
	s.client.CloseIdleConnections()
	return nil
}

type sendPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type sendReply struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

// Send posts one message. A non-2xx status is a delivery failure, not a
// transport error, so it comes back in the Result.
func (s *HTTPSession) Send(ctx context.Context, phone, body string) (*Result, error) {
	payload, err := json.Marshal(sendPayload{Phone: phone, Message: body})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach message gateway: %w", err)
	}
	defer resp.Body.Close()

	var reply sendReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode gateway reply: %w", err)
	}

	if resp.StatusCode >= 300 {
		msg := reply.Error
		if msg == "" {
			msg = fmt.Sprintf("gateway returned %d", resp.StatusCode)
		}
		return &Result{Success: false, Error: msg}, nil
	}

	return &Result{Success: true, MessageID: reply.MessageID}, nil
}
