package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizbattle/internal/domain"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultUploadTimeout = 2 * time.Minute
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	Timeout       time.Duration
	UploadTimeout time.Duration
	HTTPClient    *http.Client
	Logger        zerolog.Logger
}

// Client is a thin JSON client for the QuizBattle REST API. Every request
// except login and register carries the bearer token when one is set.
type Client struct {
	baseURL       string
	http          *http.Client
	timeout       time.Duration
	uploadTimeout time.Duration
	log           zerolog.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

func New(opts Options) *Client {
	h := opts.HTTPClient
	if h == nil {
		h = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	uploadTimeout := opts.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = defaultUploadTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		http:          h,
		timeout:       timeout,
		uploadTimeout: uploadTimeout,
		log:           opts.Logger.With().Str("component", "api_client").Logger(),
	}
}

// SetToken sets or clears (empty string) the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registers the hook run on every 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	anonymous   bool
	timeout     time.Duration
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := request{method: method, path: path}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		req.body = bytes.NewReader(body)
		req.contentType = "application/json"
	}
	return c.do(ctx, req, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	timeout := r.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	if !r.anonymous {
		if token := c.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		c.log.Debug().Err(err).Str("request_id", requestID).Str("method", r.method).Str("path", r.path).Msg("request failed")
		return &domain.APIError{Message: err.Error(), Kind: domain.ErrTransient}
	}
	defer res.Body.Close()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", r.method).
		Str("path", r.path).
		Int("status", res.StatusCode).
		Msg("api response")

	if res.StatusCode/100 != 2 {
		apiErr := &domain.APIError{
			Status:  res.StatusCode,
			Message: errorMessage(res.Body),
			Kind:    domain.KindForStatus(res.StatusCode),
		}
		if res.StatusCode == http.StatusUnauthorized {
			c.log.Warn().Str("path", r.path).Msg("unauthorized, clearing credentials")
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook()
			}
		} else if res.StatusCode == http.StatusForbidden {
			c.log.Warn().Str("path", r.path).Msg("forbidden, insufficient permissions")
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &domain.APIError{Status: res.StatusCode, Message: "decode response: " + err.Error(), Kind: domain.ErrTransient}
	}
	return nil
}

// errorMessage extracts {"error": ...} (or flask-jwt's {"msg": ...}) from an error body.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	switch {
	case payload.Error != "":
		return payload.Error
	case payload.Msg != "":
		return payload.Msg
	default:
		return payload.Message
	}
}
