// Package remote fetches the read-only todo list shown on the Todos screen.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 10 * time.Second

// FetchError reports a non-success HTTP status from the remote endpoint.
type FetchError struct {
	StatusCode int
	URL        string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
}

// Client retrieves a bounded slice of todos from a jsonplaceholder-style API.
type Client struct {
	baseURL string
	limit   int
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses a default
// client with DefaultTimeout.
func NewClient(baseURL string, limit int, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		http:    httpClient,
	}
}

// URL is the request target: {baseURL}/todos?_limit={limit}.
func (c *Client) URL() string {
	q := url.Values{}
	q.Set("_limit", strconv.Itoa(c.limit))
	return c.baseURL + "/todos?" + q.Encode()
}

// FetchTodos performs one GET. Any non-2xx status yields a *FetchError.
func (c *Client) FetchTodos(ctx context.Context) ([]domain.RemoteTodo, error) {
	target := c.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch todos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{StatusCode: resp.StatusCode, URL: target}
	}

	var todos []domain.RemoteTodo
	if err := json.NewDecoder(resp.Body).Decode(&todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return todos, nil
}
