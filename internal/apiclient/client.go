// Package apiclient talks to the remote content API on behalf of a signed-in user.
//
// Every call goes through an API value bound to an explicit Session; nothing is
// read from ambient storage.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"inkcopilot/config"
)

const maxResponseBytes = 4 << 20

// Endpoints that must never carry a bearer token.
var publicEndpoints = []string{"/auth/login", "/auth/register", "/auth/forgot-password"}

// Session carries what a request needs to act for one user.
type Session struct {
	BaseURL string
	Token   string
}

// Client is shared across requests; it owns the transport and defaults.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

func New(cfg config.APIConfig, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With().Str("component", "apiclient").Logger(),
	}
}

// Session builds a session for token against the configured base URL.
func (c *Client) Session(token string) Session {
	return Session{BaseURL: c.baseURL, Token: token}
}

// For binds the client to a session.
func (c *Client) For(s Session) *API {
	if s.BaseURL == "" {
		s.BaseURL = c.baseURL
	}
	return &API{client: c, session: s}
}

// API is a session-bound view of the remote API.
type API struct {
	client  *Client
	session Session
}

func isPublic(path string) bool {
	for _, p := range publicEndpoints {
		if strings.HasSuffix(path, p) {
			return true
		}
	}
	return false
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	op := method + " " + path
	target := strings.TrimRight(a.session.BaseURL, "/") + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.session.Token != "" && !isPublic(path) {
		req.Header.Set("Authorization", "Bearer "+a.session.Token)
	}

	start := time.Now()
	resp, err := a.client.http.Do(req)
	if err != nil {
		a.client.logger.Warn().Err(err).Str("op", op).Msg("[api] request failed")
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	a.client.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("[api] response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(op, resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", op, err)
	}
	return nil
}

func (a *API) get(ctx context.Context, path string, query url.Values, out any) error {
	return a.do(ctx, http.MethodGet, path, query, nil, out)
}

func (a *API) post(ctx context.Context, path string, in, out any) error {
	return a.do(ctx, http.MethodPost, path, nil, in, out)
}

func (a *API) put(ctx context.Context, path string, in, out any) error {
	return a.do(ctx, http.MethodPut, path, nil, in, out)
}

func (a *API) patch(ctx context.Context, path string, in, out any) error {
	return a.do(ctx, http.MethodPatch, path, nil, in, out)
}

func (a *API) delete(ctx context.Context, path string, out any) error {
	return a.do(ctx, http.MethodDelete, path, nil, nil, out)
}
