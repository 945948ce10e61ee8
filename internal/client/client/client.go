// Package client is the HTTP client of the OrganLink identity API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/organlink/internal/common"
	"github.com/dmitrijs2005/organlink/internal/server/models"
)

// Tokens mirrors the session token pair issued by the server.
type Tokens struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type LoginResponse struct {
	Message string                    `json:"message"`
	User    *models.SanitizedIdentity `json:"user"`
	Tokens  *Tokens                   `json:"tokens"`
}

type RegisterResponse struct {
	Message string                    `json:"message"`
	User    *models.SanitizedIdentity `json:"user"`
}

type errorResponse struct {
	Error   string                  `json:"error"`
	Details []common.FieldViolation `json:"details"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the API at baseURL. Each request is
// bounded by timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Register creates an account.
func (c *HTTPClient) Register(ctx context.Context, in models.RegistrationInput) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for the identity and a token pair.
func (c *HTTPClient) Login(ctx context.Context, cred models.Credential) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", cred, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates refreshToken into a new token pair.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	var out struct {
		Tokens *Tokens `json:"tokens"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": refreshToken}, &out); err != nil {
		return nil, err
	}
	return out.Tokens, nil
}

// Me returns the identity behind accessToken.
func (c *HTTPClient) Me(ctx context.Context, accessToken string) (*models.SanitizedIdentity, error) {
	var out struct {
		User *models.SanitizedIdentity `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Activity lists the newest audit records of the caller; limit 0 leaves the
// server default.
func (c *HTTPClient) Activity(ctx context.Context, accessToken string, limit int) ([]*models.AuditRecord, error) {
	path := "/api/auth/activity"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Activity []*models.AuditRecord `json:"activity"`
	}
	if err := c.do(ctx, http.MethodGet, path, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return out.Activity, nil
}

// Logout revokes accessToken and, when given, refreshToken.
func (c *HTTPClient) Logout(ctx context.Context, accessToken, refreshToken string) error {
	var body any
	if refreshToken != "" {
		body = map[string]string{"refreshToken": refreshToken}
	}
	return c.do(ctx, http.MethodPost, "/api/auth/logout", accessToken, body, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var er errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&er)
		if er.Error == "" {
			er.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: er.Error, Details: er.Details}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
