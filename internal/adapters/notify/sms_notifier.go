package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"delivery-dispatch-service/internal/ports"
)

// SMSNotifier sends customer messages through an HTTP SMS gateway. Sends are
// fire-and-forget from the caller's point of view: no delivery receipt is
// consumed, and callers must treat a returned error as non-fatal.
type SMSNotifier struct {
	session *http.Client
	baseURL string
	token   string
}

func NewSMSNotifier(baseURL, token string) (*SMSNotifier, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("sms gateway url is empty")
	}
	return &SMSNotifier{
		session: &http.Client{Timeout: 5 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}, nil
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (n *SMSNotifier) Send(ctx context.Context, phone string, msg ports.Message) error {
	if strings.TrimSpace(phone) == "" {
		return errors.New("send sms: phone is empty")
	}

	body, err := json.Marshal(sendRequest{To: phone, Message: Render(msg)})
	if err != nil {
		return fmt.Errorf("send sms: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send sms: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.token != "" {
		req.Header.Set("Authorization", "Bearer "+n.token)
	}

	resp, err := n.session.Do(req)
	if err != nil {
		return fmt.Errorf("send sms to %s: %w", phone, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("send sms to %s: status %d: %s", phone, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return nil
}
