// Package brainweb provides a client for the second-brain web API.
package brainweb

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client is a brainweb API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	Token      string
	Username   string
	HTTPClient *http.Client
}

// Session holds the persisted login state.
type Session struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// NewClient creates a new client. A saved session is loaded if present.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	configDir := os.Getenv("BRAINWEB_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".brainweb")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadSession()
	return c
}

// LoadSession loads the saved token from disk.
func (c *Client) LoadSession() error {
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "session.json"))
	if err != nil {
		return err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}

	c.Token = session.Token
	c.Username = session.Username
	return nil
}

// SaveSession saves the current token to disk.
func (c *Client) SaveSession() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	data, _ := json.MarshalIndent(Session{Token: c.Token, Username: c.Username}, "", "  ")
	return os.WriteFile(filepath.Join(c.ConfigDir, "session.json"), data, 0600)
}

// doRequest performs an HTTP request, attaching the bearer token when set.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("brainweb error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// LoginResponse is the response from logging in.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// Login exchanges credentials for a token and persists the session.
func (c *Client) Login(username, password string) (*LoginResponse, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	respBody, err := c.doRequest("POST", "/auth/login", body)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.Token = resp.AccessToken
	c.Username = resp.Username
	if err := c.SaveSession(); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Message represents one conversation entry.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"message"`
	Sender    string `json:"sender"`
	Agent     string `json:"agent,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Send submits one message. Agent may be empty or "auto" for automatic
// routing, or a concrete agent name to force the target.
func (c *Client) Send(text, agent string) (*Message, error) {
	payload := map[string]string{"message": text}
	if agent != "" {
		payload["agent"] = agent
	}
	body, _ := json.Marshal(payload)

	respBody, err := c.doRequest("POST", "/messages/send", body)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// HistoryResponse is the conversation history, oldest first.
type HistoryResponse struct {
	Messages []Message `json:"messages"`
}

// History fetches up to limit recent conversation entries.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	path := "/messages/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}

	var resp HistoryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingResponse is one poll drain.
type PendingResponse struct {
	Responses []Message `json:"responses"`
}

// Pending drains queued bot responses. Draining is destructive: each message
// is returned once.
func (c *Client) Pending() (*PendingResponse, error) {
	respBody, err := c.doRequest("GET", "/messages/pending", nil)
	if err != nil {
		return nil, err
	}

	var resp PendingResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream connects to the SSE endpoint and invokes handler for every bot
// response until the context is canceled or the server closes the stream.
func (c *Client) Stream(ctx context.Context, handler func(Message)) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/messages/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	// No client timeout: the stream stays open until canceled.
	httpClient := &http.Client{}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return fmt.Errorf("brainweb error %d: %s", resp.StatusCode, errResp.Error)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var event string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if event != "message" {
				continue
			}
			var msg Message
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
				continue
			}
			handler(msg)
		case line == "":
			event = ""
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// MeResponse is the authenticated profile.
type MeResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	JoinedAt string `json:"joined_at"`
}

// Me returns the profile behind the stored token.
func (c *Client) Me() (*MeResponse, error) {
	respBody, err := c.doRequest("GET", "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var resp MeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StatsResponse is the response from the stats endpoint.
type StatsResponse struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	TotalUsers    int64  `json:"total_users"`
	QueueDepth    int64  `json:"queue_depth"`
}

// Stats fetches service statistics.
func (c *Client) Stats() (*StatsResponse, error) {
	respBody, err := c.doRequest("GET", "/stats", nil)
	if err != nil {
		return nil, err
	}

	var resp StatsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
