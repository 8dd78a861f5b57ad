// Package client talks to the Phoenix CRM backend over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phoenixcrm/leadview/pkg/model"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a failed response is read into the error.
const maxErrorBody = 2048

// Client issues authenticated requests against the CRM API. It is safe for
// concurrent use; the token is fixed at construction.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a client for the backend at baseURL using a bearer token.
// The token may be empty for clients that only call Login.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// WithToken returns a copy of the client using a different bearer token.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// FetchLeads returns every lead visible to the authenticated caller, in the
// order the server returned them.
func (c *Client) FetchLeads(ctx context.Context) ([]model.Lead, error) {
	const op = "list leads"
	var leads []model.Lead
	if err := c.do(ctx, op, http.MethodGet, "/api/leads/", nil, &leads); err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []model.Lead{}
	}
	c.logger.Debug("fetched leads", zap.Int("count", len(leads)))
	return leads, nil
}

// GetLead fetches a single lead by ID.
func (c *Client) GetLead(ctx context.Context, id string) (model.Lead, error) {
	const op = "get lead"
	var lead model.Lead
	if strings.TrimSpace(id) == "" {
		return lead, &Error{Kind: KindConfig, Op: op, Message: "lead id is empty"}
	}
	err := c.do(ctx, op, http.MethodGet, "/api/leads/"+url.PathEscape(id), nil, &lead)
	return lead, err
}

// UpdateLead applies a partial update and returns the stored lead.
func (c *Client) UpdateLead(ctx context.Context, id string, update model.LeadUpdate) (model.Lead, error) {
	const op = "update lead"
	var lead model.Lead
	if strings.TrimSpace(id) == "" {
		return lead, &Error{Kind: KindConfig, Op: op, Message: "lead id is empty"}
	}
	if update.IsEmpty() {
		return lead, &Error{Kind: KindConfig, Op: op, Message: "nothing to update"}
	}
	err := c.do(ctx, op, http.MethodPut, "/api/leads/"+url.PathEscape(id), update, &lead)
	return lead, err
}

// LoginResponse is the payload returned by a successful login.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        model.User `json:"user"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	const op = "login"
	var resp LoginResponse

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return resp, &Error{Kind: KindConfig, Op: op, Message: "email and password are required"}
	}

	body := map[string]string{"email": email, "password": password}
	err := c.do(ctx, op, http.MethodPost, "/api/auth/login", body, &resp)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) && (ce.Kind == KindStatus || ce.Kind == KindUnauthorized) {
			ce.Kind = KindUnauthorized
			ce.Message = "Invalid credentials"
		}
		return resp, err
	}
	if resp.AccessToken == "" {
		return resp, &Error{Kind: KindUnauthorized, Op: op, Message: "Invalid credentials"}
	}
	return resp, nil
}

// do performs one request. Any non-2xx status is an error; out may be nil.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if c == nil {
		return &Error{Kind: KindConfig, Op: op, Message: "client is nil"}
	}
	if c.baseURL == "" {
		return &Error{Kind: KindConfig, Op: op, Message: "backend URL is not set"}
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindConfig, Op: op, Message: "encode request", Err: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindConfig, Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		zap.String("request_id", requestID),
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(op, resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Message: "malformed response", Err: err}
	}
	return nil
}

// statusError builds an error from a non-2xx response, preferring the
// backend's "detail" message when present. Validation failures carry a list
// of details; the first message is used.
func statusError(op string, status int, body []byte) *Error {
	msg := fmt.Sprintf("server returned %d %s", status, http.StatusText(status))
	if gjson.ValidBytes(body) {
		detail := gjson.GetBytes(body, "detail")
		if detail.IsArray() {
			detail = detail.Get("0.msg")
		}
		if text := detail.String(); detail.Type == gjson.String && text != "" {
			msg = fmt.Sprintf("%s: %s", msg, text)
		}
	}

	kind := KindStatus
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Op: op, Message: msg, StatusCode: status}
}
