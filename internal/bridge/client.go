package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// Header names mirrored from the server middleware.
const (
	csrfHeader    = "X-CSRF-Token"
	newCSRFHeader = "X-New-CSRF-Token"
)

// Client issues API calls with the session cookie and CSRF header attached.
// Every response is inspected for a rotated token; a 401/403 triggers
// exactly one re-login followed by one retry of the original call, bounding
// recovery to a single extra round trip.  If the retry fails too, the
// ORIGINAL failing response is handed back so callers reason about the
// first failure, not the recovery attempt.
type Client struct {
	BaseURL string
	Tokens  TokenStore

	// Bearer is the access token identifying the user on protected routes.
	// The session cookie and CSRF token answer "is this a genuine browser
	// request"; the bearer answers "who".  When set it is attached to every
	// attempt as an Authorization header.
	Bearer string

	hc *http.Client
}

// New builds a bridge client around a cookie-jar http.Client.  The jar is
// what carries the HttpOnly session cookie; the bridge itself only ever
// touches the CSRF token.
func New(baseURL string, tokens TokenStore) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		hc:      &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// Login establishes a session and persists the returned CSRF token.
func (c *Client) Login(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/login", bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("login failed: status %d", res.StatusCode)
	}
	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return err
	}
	if body.CSRFToken == "" {
		return errors.New("login response carried no csrf token")
	}
	c.Tokens.Save(body.CSRFToken)
	return nil
}

// Logout clears the local token first, so a stale value can never be reused
// after sign-out, then destroys the server session.
func (c *Client) Logout(ctx context.Context) error {
	c.Tokens.Clear()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/logout", nil)
	if err != nil {
		return err
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return nil
}

// Do performs an API call with recovery.  The body is held as bytes so the
// request can be replayed on the single retry.  The caller owns the
// returned response body.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	res, err := c.attempt(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusUnauthorized && res.StatusCode != http.StatusForbidden {
		return res, nil
	}

	// One recovery cycle only.  A failed re-login surfaces the original
	// response unmodified.
	if err := c.Login(ctx); err != nil {
		return res, nil
	}
	retry, err := c.attempt(ctx, method, path, body)
	if err != nil {
		return res, nil
	}
	if retry.StatusCode == http.StatusUnauthorized || retry.StatusCode == http.StatusForbidden {
		retry.Body.Close()
		return res, nil
	}
	res.Body.Close()
	return retry, nil
}

// attempt sends one request with the current CSRF token and persists any
// rotated token from the response.
func (c *Client) attempt(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Tokens.Load(); token != "" {
		req.Header.Set(csrfHeader, token)
	}
	if c.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.Bearer)
	}
	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if rotated := res.Header.Get(newCSRFHeader); rotated != "" {
		c.Tokens.Save(rotated)
	}
	return res, nil
}
