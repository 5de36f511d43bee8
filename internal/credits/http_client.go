package credits

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInsufficientCredits is matched by a *SpendError the service rejected
// because the user cannot afford the action.
var ErrInsufficientCredits = errors.New("insufficient credits")

// SpendError is a non-2xx answer from the credit service.
type SpendError struct {
	StatusCode int
	Message    string
}

func (e *SpendError) Error() string {
	return fmt.Sprintf("credit service: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is reports a 400 answer as ErrInsufficientCredits; the service uses that
// status for unaffordable actions.
func (e *SpendError) Is(target error) bool {
	return target == ErrInsufficientCredits && e.StatusCode == http.StatusBadRequest
}

// IsRetryable returns true for server errors (5xx).
// Client errors (4xx) are considered permanent.
func (e *SpendError) IsRetryable() bool {
	return e.StatusCode >= 500
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// HTTPClient calls the credit service's JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHTTPClient(baseURL, token string, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Balance(ctx context.Context, userID string) (*Balance, error) {
	u := c.baseURL + "/api/credits/balance?" + url.Values{"userId": {userID}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var out envelope[Balance]
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) Spend(ctx context.Context, sr SpendRequest) (*SpendResult, error) {
	if sr.Quantity <= 0 {
		sr.Quantity = 1
	}
	body, err := json.Marshal(sr)
	if err != nil {
		return nil, fmt.Errorf("marshal spend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/credits/spend", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("spending credits",
		"user_id", sr.UserID,
		"action", sr.Action,
		"quantity", sr.Quantity,
	)

	var out envelope[SpendResult]
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var failure envelope[json.RawMessage]
		msg := strings.TrimSpace(string(respBody))
		if json.Unmarshal(respBody, &failure) == nil && failure.Error != "" {
			msg = failure.Error
		}
		return &SpendError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
