// Package client talks to the HTTP API and drives chat sessions stored on
// the user's machine.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/S4DIB/startup-world-cup/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Client calls the waitlist and chat endpoints.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient uses a client with a
// two minute timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type chatPayload struct {
	Message             string        `json:"message"`
	ConversationHistory []models.Turn `json:"conversationHistory"`
}

// Chat sends message with the prior turns and returns the agent's reply.
func (c *Client) Chat(ctx context.Context, message string, history []models.Turn) (string, error) {
	if history == nil {
		history = []models.Turn{}
	}
	body, err := c.post(ctx, "/api/chat", chatPayload{Message: message, ConversationHistory: history})
	if err != nil {
		return "", err
	}
	reply := gjson.GetBytes(body, "response")
	if reply.Type != gjson.String {
		return "", fmt.Errorf("chat: response field missing")
	}
	return reply.String(), nil
}

// JoinWaitlist signs email up and returns the server's confirmation message.
func (c *Client) JoinWaitlist(ctx context.Context, email string) (string, error) {
	body, err := c.post(ctx, "/api/waitlist", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(body, "message").String(), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: gjson.GetBytes(body, "error").String()}
	}
	return body, nil
}
