package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/modules/auth"
	"github.com/example/todo-app/modules/task"
	"golang.org/x/sync/singleflight"
)

// ErrSessionExpired is returned when an access token was rejected and could
// not be refreshed. The token store is cleared before it is returned.
var ErrSessionExpired = errors.New("session expired, please sign in again")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the todo API on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenStore
	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenStore shares a token store with other components.
func WithTokenStore(store *TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// New creates a client for the API at baseURL, e.g. http://localhost:3000/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  NewTokenStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tokens returns the client's token store.
func (c *Client) Tokens() *TokenStore {
	return c.tokens
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) (*auth.UserResponse, error) {
	var resp auth.UserResponse
	if err := c.send(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login signs in and stores the issued tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.TokenResponse, error) {
	var resp auth.TokenResponse
	req := auth.LoginRequest{Email: email, Password: password}
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
	return &resp, nil
}

// Logout notifies the server and drops the local tokens regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	defer c.tokens.Clear()
	return c.send(ctx, http.MethodPost, "/auth/logout", "", nil, nil)
}

// ListQuery selects a page of tasks.
type ListQuery struct {
	Filter  domain.Filter
	SortBy  string
	SortDir string
	Page    int
	Size    int
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", string(q.Filter.Status))
	set("priority", string(q.Filter.Priority))
	set("category_id", q.Filter.CategoryID)
	set("tags", strings.Join(q.Filter.Tags, ","))
	set("due_date", string(q.Filter.DueDate))
	set("search", q.Filter.Search)
	set("sort_by", q.SortBy)
	set("sort_dir", q.SortDir)
	v.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	return v
}

// ListTasks fetches one page of tasks.
func (c *Client) ListTasks(ctx context.Context, q ListQuery) (*task.ListTasksResponse, error) {
	var resp task.ListTasksResponse
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.values().Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req task.CreateTaskRequest) (*task.TaskResponse, error) {
	var resp task.TaskResponse
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTaskStatus moves a task between pending and completed.
func (c *Client) UpdateTaskStatus(ctx context.Context, taskID string, status domain.Status) (*task.TaskResponse, error) {
	var resp task.TaskResponse
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+url.PathEscape(taskID)+"/status", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BulkTasks applies one operation to several tasks.
func (c *Client) BulkTasks(ctx context.Context, req task.BulkRequest) (*task.BulkResponse, error) {
	var resp task.BulkResponse
	if err := c.do(ctx, http.MethodPost, "/tasks/bulk", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Statistics fetches the dashboard statistics.
func (c *Client) Statistics(ctx context.Context) (*domain.Statistics, error) {
	var resp domain.Statistics
	if err := c.do(ctx, http.MethodGet, "/dashboard/statistics", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs an authenticated call. On the first 401 it refreshes the
// session once and retries the call once with the new access token.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	used := c.tokens.Get().AccessToken
	err := c.send(ctx, method, path, used, body, out)
	if !isUnauthorized(err) {
		return err
	}

	if err := c.refreshSession(ctx, used); err != nil {
		return err
	}
	return c.send(ctx, method, path, c.tokens.Get().AccessToken, body, out)
}

// refreshSession exchanges the refresh token for a new pair. Concurrent
// callers share one in-flight refresh. A caller whose rejected token was
// already replaced skips the refresh and retries with the newer token.
func (c *Client) refreshSession(ctx context.Context, rejected string) error {
	current := c.tokens.Get()
	if current.AccessToken != "" && current.AccessToken != rejected {
		return nil
	}
	if current.RefreshToken == "" {
		c.tokens.Clear()
		return ErrSessionExpired
	}

	_, err, _ := c.refresh.Do(current.RefreshToken, func() (any, error) {
		if c.tokens.Get().RefreshToken != current.RefreshToken {
			return nil, nil
		}
		var resp auth.TokenResponse
		req := map[string]string{"refresh_token": current.RefreshToken}
		if err := c.send(ctx, http.MethodPost, "/auth/refresh", "", req, &resp); err != nil {
			return nil, err
		}
		c.tokens.Set(Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken})
		return nil, nil
	})
	if err != nil {
		log.Printf("[client] Session refresh failed: %v", err)
		c.tokens.Clear()
		return ErrSessionExpired
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func isUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
