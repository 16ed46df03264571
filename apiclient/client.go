package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/warehouse_client/utils"
)

// refreshWindow is how close to expiry a token may get before the client
// refreshes it pre-emptively instead of risking a 401 mid-operation.
const refreshWindow = 30 * time.Second

// APIError is a non-2xx response from the warehouse API. Transport
// failures are returned as-is and are never APIErrors, so callers can tell
// "the server said no" apart from "the server was unreachable".
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("warehouse api error %d: %s", e.StatusCode, e.Body)
}

// Client talks to the upstream warehouse REST API with bearer auth and a
// single-flight token refresh.
type Client struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	token        string
	refreshToken string

	conn *Connectivity
}

func NewClient(conn *Connectivity) *Client {
	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	return NewClientWithBase(baseURL, conn)
}

func NewClientWithBase(baseURL string, conn *Connectivity) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		conn:    conn,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// SetTokens seeds the client after login or from persisted session state.
func (c *Client) SetTokens(token, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.refreshToken = refreshToken
}

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, false)
	if err != nil {
		return err
	}
	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}
	if parsed.Token == "" {
		return errors.New("login response carried no token")
	}
	c.SetTokens(parsed.Token, parsed.RefreshToken)
	return nil
}

func (c *Client) refresh(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()
	if rt == "" {
		return errors.New("no refresh token")
	}
	body, err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": rt,
	}, false)
	if err != nil {
		return err
	}
	var parsed loginResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = parsed.Token
	if parsed.RefreshToken != "" {
		c.refreshToken = parsed.RefreshToken
	}
	return nil
}

func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

func (c *Client) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do issues an authenticated request. A token close to expiry is refreshed
// first; an unexpected 401 triggers one refresh-and-retry. Every outcome
// feeds the connectivity probe: transport failure marks offline, any HTTP
// response (success or not) marks online.
func (c *Client) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" && utils.TokenExpiresWithin(token, refreshWindow) {
		// Best effort; the request below still carries whatever we have.
		_ = c.refresh(ctx)
	}

	respBody, err := c.do(ctx, method, path, body, true)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		if rerr := c.refresh(ctx); rerr == nil {
			respBody, err = c.do(ctx, method, path, body, true)
		}
	}
	return respBody, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, authed bool) ([]byte, error) {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		encoded, err := utils.MarshalToJSON(body)
		if err != nil {
			return nil, err
		}
		reader = strings.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if c.conn != nil {
			c.conn.markOffline()
		}
		return nil, err
	}
	defer resp.Body.Close()
	if c.conn != nil {
		c.conn.markOnline()
	}

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}
