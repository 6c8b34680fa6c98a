package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const DefaultPushURL = "https://exp.host/--/api/v2/push/send"

// ErrDelivery is returned when the push endpoint rejects or never receives a notification.
var ErrDelivery = errors.New("delivery error")

type Sender interface {
	Send(ctx context.Context, token, title, body string) error
}

type pushRequest struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

// PushClient posts notifications to an Expo compatible push endpoint.
type PushClient struct {
	url        string
	httpClient *http.Client
}

func NewPushClient(url string, httpClient *http.Client) *PushClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &PushClient{url: url, httpClient: httpClient}
}

func (p *PushClient) Send(ctx context.Context, token, title, body string) error {
	buf, err := json.Marshal(pushRequest{
		To:    token,
		Title: title,
		Body:  body,
		Sound: "default",
	})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: push endpoint returned %d", ErrDelivery, resp.StatusCode)
	}

	return nil
}
