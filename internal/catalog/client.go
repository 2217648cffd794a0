package catalog

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

	"golang.org/x/oauth2"

	"github.com/lachlan2k/bookshelf/internal/metrics"
)

const apiPrefix = "/api/v1"

// Client calls the book catalog backend over HTTP. It holds no session state: every
// authenticated call is handed the token to use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Register(ctx context.Context, cred Credential) error {
	_, err := c.do(ctx, "register", http.MethodPost, "/auth/register", "", cred)
	return err
}

func (c *Client) Login(ctx context.Context, cred Credential) (string, error) {
	env, err := c.do(ctx, "login", http.MethodPost, "/auth/login", "", cred)
	if err != nil {
		return "", err
	}
	if env.Token == "" {
		return "", &TransportError{Op: "login", Err: errors.New("response carried no token")}
	}
	return env.Token, nil
}

// Logout tells the backend to drop the token. Callers treat this as best-effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	_, err := c.do(ctx, "logout", http.MethodPost, "/auth/logout", token, struct{}{})
	return err
}

func (c *Client) ListBooks(ctx context.Context, token string) ([]Book, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	env, err := c.do(ctx, "list_books", http.MethodGet, "/books", token, nil)
	if err != nil {
		return nil, err
	}

	books := []Book{}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &books); err != nil {
			return nil, &TransportError{Op: "list_books", Err: fmt.Errorf("decode books: %w", err)}
		}
	}
	return books, nil
}

func (c *Client) AddBook(ctx context.Context, token string, book NewBook) (Book, error) {
	if token == "" {
		return Book{}, ErrUnauthorized
	}
	env, err := c.do(ctx, "add_book", http.MethodPost, "/books", token, book)
	if err != nil {
		return Book{}, err
	}

	var created Book
	if err := json.Unmarshal(env.Data, &created); err != nil {
		return Book{}, &TransportError{Op: "add_book", Err: fmt.Errorf("decode book: %w", err)}
	}
	return created, nil
}

func (c *Client) DeleteBook(ctx context.Context, token, id string) error {
	if token == "" {
		return ErrUnauthorized
	}
	_, err := c.do(ctx, "delete_book", http.MethodDelete, "/books/"+url.PathEscape(id), token, nil)
	return err
}

// envelope is the backend's response wrapper. Some endpoints say "msg", register says "message".
type envelope struct {
	Success *bool           `json:"success"`
	Msg     string          `json:"msg"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func (e envelope) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, op, method, path, token string, payload any) (env envelope, err error) {
	start := time.Now()
	status := 0
	defer func() {
		took := time.Since(start)
		c.metrics.ObserveBackend(op, outcome(err), took)
		c.logger.Debug("backend call", "op", op, "method", method, "status", status, "duration_ms", took.Milliseconds(), "outcome", outcome(err))
	}()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return env, &TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return env, &TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.clientFor(token).Do(req)
	if err != nil {
		return env, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return env, &TransportError{Op: op, Err: err}
	}
	decodeErr := json.Unmarshal(raw, &env)
	if len(bytes.TrimSpace(raw)) == 0 {
		decodeErr = nil
	}

	if resp.StatusCode >= 400 {
		msg := ""
		if decodeErr == nil {
			msg = env.message()
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || msg != "" {
			return env, &APIError{Status: resp.StatusCode, Message: msg}
		}
		return env, &TransportError{Op: op, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if decodeErr != nil {
		return env, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", decodeErr)}
	}
	if env.Success != nil && !*env.Success {
		return env, &APIError{Status: resp.StatusCode, Message: env.message()}
	}

	return env, nil
}

// clientFor attaches the bearer token through an oauth2 transport
func (c *Client) clientFor(token string) *http.Client {
	if token == "" {
		return c.httpClient
	}
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   c.httpClient.Transport,
		},
	}
}

func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &apiErr):
		return "api_error"
	default:
		return "transport_error"
	}
}
