package econet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/econet-core/internal/infrastructure/config"
)

// REST endpoint paths relative to the API base URL.
const (
	pathAuth        = "/user/auth"
	pathUserData    = "/code/%s/getUserDataForApp"
	pathDynamicCall = "/code/%s/dynamicAction"
)

// Request headers understood by the ClearBlade platform.
const (
	headerSystemKey    = "ClearBlade-SystemKey"
	headerSystemSecret = "ClearBlade-SystemSecret"
	headerUserToken    = "ClearBlade-UserToken"
)

const (
	defaultRequestTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 16 << 20
)

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Session is the result of a successful login. It is an immutable value
// shared by the REST client and the MQTT transport.
type Session struct {
	UserToken string
	AccountID string
}

// Client talks to the EcoNet REST API.
//
// Thread Safety: All methods are safe for concurrent use. Fetches block
// for one round trip and are not retried.
type Client struct {
	cfg        config.AccountConfig
	baseURL    string
	httpClient *http.Client

	mu      sync.RWMutex
	session *Session

	logger Logger
}

// NewClient creates an unauthenticated client. Call Login before any
// other operation.
func NewClient(cfg config.AccountConfig) *Client {
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.APIURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Login authenticates with the account credentials and stores the
// resulting session on the client.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - Session: user token and account id
//   - error: ErrAuthenticationFailed, ErrTransport or ErrMalformedResponse
func (c *Client) Login(ctx context.Context) (Session, error) {
	body := map[string]string{
		"email":    c.cfg.Email,
		"password": c.cfg.Password,
	}

	var resp struct {
		UserToken string `json:"user_token"`
		Options   *struct {
			Success   bool   `json:"success"`
			AccountID string `json:"account_id"`
			Message   string `json:"message"`
		} `json:"options"`
	}
	if err := c.post(ctx, pathAuth, body, "", &resp); err != nil {
		return Session{}, err
	}

	if resp.Options == nil {
		return Session{}, fmt.Errorf("%w: login response without options", ErrMalformedResponse)
	}
	if !resp.Options.Success {
		return Session{}, fmt.Errorf("%w: %s", ErrAuthenticationFailed, resp.Options.Message)
	}
	if resp.UserToken == "" {
		return Session{}, fmt.Errorf("%w: login response without user token", ErrMalformedResponse)
	}

	s := Session{UserToken: resp.UserToken, AccountID: resp.Options.AccountID}
	c.mu.Lock()
	c.session = &s
	c.mu.Unlock()

	c.logger.Info("logged in to econet", "account_id", s.AccountID)
	return s, nil
}

// Session returns the current session, if Login has succeeded.
func (c *Client) Session() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// FetchSnapshot retrieves the account's full equipment state and returns
// the raw "results" object. It satisfies registry.Fetcher.
func (c *Client) FetchSnapshot(ctx context.Context) (json.RawMessage, error) {
	body := map[string]string{"resource": c.cfg.Resource}
	return c.callCode(ctx, pathUserData, body)
}

// callCode invokes a platform code service with the session token and
// unwraps the {success, results} envelope.
func (c *Client) callCode(ctx context.Context, pathFormat string, body any) (json.RawMessage, error) {
	s, ok := c.Session()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	var env struct {
		Success *bool           `json:"success"`
		Results json.RawMessage `json:"results"`
	}
	path := fmt.Sprintf(pathFormat, c.cfg.SystemKey)
	if err := c.post(ctx, path, body, s.UserToken, &env); err != nil {
		return nil, err
	}

	if env.Success == nil || !*env.Success {
		return nil, fmt.Errorf("%w: success flag missing or false", ErrMalformedResponse)
	}
	if len(env.Results) == 0 || string(env.Results) == "null" {
		return nil, fmt.Errorf("%w: results missing", ErrMalformedResponse)
	}
	return env.Results, nil
}

// post sends body as JSON and decodes a 200 response into out.
func (c *Client) post(ctx context.Context, path string, body any, userToken string, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set(headerSystemKey, c.cfg.SystemKey)
	req.Header.Set(headerSystemSecret, c.cfg.SystemSecret)
	if userToken != "" {
		req.Header.Set(headerUserToken, userToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	c.logger.Debug("econet request completed",
		"path", path, "status", resp.StatusCode, "bytes", len(data), "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrTransport, path, resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
