// Package smsnotify is the real notify.Notifier for the sms channel. It
// supports only that channel: a Send on any other channel, including the
// broadcast channel that Stage E uses for requests with a broadcast contact,
// returns an error.
package smsnotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/burnwise/coordinator/pkg/bwerr"
	"github.com/burnwise/coordinator/pkg/notify"
)

// Notifier posts SMS sends to a REST gateway, following the same
// classify-the-response convention as pkg/weather/httpweather (grounded on
// the teacher's pkg/mcp/recovery.go error classification).
type Notifier struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

func New(baseURL, apiKey string) *Notifier {
	return &Notifier{BaseURL: baseURL, APIKey: apiKey, HTTPClient: &http.Client{Timeout: 10 * time.Second}}
}

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

type sendResponse struct {
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
}

func (n *Notifier) Send(ctx context.Context, channel notify.Channel, recipient string, payload notify.Payload) (notify.Receipt, error) {
	if channel != notify.ChannelSMS {
		return notify.Receipt{}, fmt.Errorf("smsnotify: unsupported channel %q", channel)
	}

	body, err := json.Marshal(sendRequest{To: recipient, Body: payload.Body})
	if err != nil {
		return notify.Receipt{}, fmt.Errorf("smsnotify: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return notify.Receipt{}, fmt.Errorf("smsnotify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	now := time.Now()
	queued := notify.Receipt{Channel: channel, Recipient: recipient, State: notify.StateQueued, QueuedAt: now, UpdatedAt: now}

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return queued, &bwerr.UnavailableError{Provider: "sms", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return queued, &bwerr.AuthError{Provider: "sms", Cause: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return queued, &bwerr.RateLimitedError{RetryAfter: 0}
	case resp.StatusCode >= 500:
		return queued, &bwerr.UnavailableError{Provider: "sms", Cause: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		failed := queued
		failed.State = notify.StateFailed
		failed.Error = fmt.Sprintf("status %d", resp.StatusCode)
		failed.UpdatedAt = time.Now()
		return failed, nil
	}

	var decoded sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return queued, &bwerr.UnavailableError{Provider: "sms", Cause: fmt.Errorf("decode response: %w", err)}
	}

	sent := queued
	sent.ProviderID = decoded.ProviderID
	sent.UpdatedAt = time.Now()
	switch decoded.Status {
	case "delivered":
		sent.State = notify.StateDelivered
	case "failed":
		sent.State = notify.StateFailed
	default:
		sent.State = notify.StateSent
	}
	return sent, nil
}
