package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultGraphURL = "https://graph.facebook.com"
	DefaultVersion  = "v25.0"
)

// APIError is a non-2xx Graph API response.
type APIError struct {
	StatusCode int
	Body       string
	Message    string
	Type       string
	Code       int
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("facebook error (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("facebook error (status %d): %s", e.StatusCode, e.Body)
}

type graphErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Client talks to the Graph API on behalf of a page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	logger     *slog.Logger
}

func NewClient(baseURL, version string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if version == "" {
		version = DefaultVersion
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		version:    version,
		logger:     logger,
	}
}

type sendRequest struct {
	Recipient     Party          `json:"recipient"`
	Message       map[string]any `json:"message"`
	MessagingType string         `json:"messaging_type"`
}

// SendMessage delivers text to the customer with the given PSID.
func (c *Client) SendMessage(ctx context.Context, pageAccessToken, recipientID, text string) error {
	payload, err := json.Marshal(sendRequest{
		Recipient:     Party{ID: recipientID},
		Message:       map[string]any{"text": text},
		MessagingType: "RESPONSE",
	})
	if err != nil {
		return fmt.Errorf("error creating Facebook payload: %w", err)
	}

	endpoint := c.endpoint("me/messages", url.Values{"access_token": {pageAccessToken}})
	c.logger.Debug("facebook payload", "recipient_id", recipientID, "bytes", len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("error creating Facebook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, nil)
}

type userProfile struct {
	Name string `json:"name"`
}

// GetUserName returns the display name of a customer as seen by the page.
func (c *Client) GetUserName(ctx context.Context, pageAccessToken, psid string) (string, error) {
	endpoint := c.endpoint(url.PathEscape(psid), url.Values{
		"fields":       {"name"},
		"access_token": {pageAccessToken},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	var profile userProfile
	if err := c.do(req, &profile); err != nil {
		return "", err
	}
	if profile.Name == "" {
		return "", fmt.Errorf("no name found in profile")
	}
	return profile.Name, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	return fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.version, path, query.Encode())
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling Facebook: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("error reading Facebook response: %w", err)
	}
	c.logger.Debug("facebook response", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var ge graphErrorBody
		if json.Unmarshal(body, &ge) == nil {
			apiErr.Message = ge.Error.Message
			apiErr.Type = ge.Error.Type
			apiErr.Code = ge.Error.Code
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding Facebook response: %w", err)
	}
	return nil
}
