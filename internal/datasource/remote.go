package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pos_client/internal/core"
	apperrors "pos_client/pkg/errors"
	"pos_client/pkg/telemetry"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/time/rate"
)

// APIError represents a remote API error response
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d body=%s", e.StatusCode, string(e.Body))
}

// Client is a wrapper around http.Client with resilience for the remote
// data source
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	limiter  *rate.Limiter
	pipeline failsafe.Executor[*http.Response]
}

// NewClient creates a new HTTP client with default resilience policies
func NewClient(baseURL, apiKey string, timeout time.Duration, rps int) *Client {
	retryPolicy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			// Retry on network errors or 5xx server errors
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500 || resp.StatusCode == 429
		}).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		Build()

	breaker := circuitbreaker.NewBuilder[*http.Response]().
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode >= 500
		}).
		WithFailureThresholdRatio(5, 10).
		WithDelay(10 * time.Second).
		Build()

	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL:  baseURL,
		apiKey:   apiKey,
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
		pipeline: failsafe.With[*http.Response](retryPolicy, breaker),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.pipeline.GetWithExecution(func(exec failsafe.Execution[*http.Response]) (*http.Response, error) {
		return c.client.Do(req)
	})
	if err != nil {
		telemetry.RemoteRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	telemetry.RemoteRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return respBody, nil
}

// mapError translates transport and API failures into engine error kinds
func mapError(name string, err error) error {
	if apiErr, ok := err.(*APIError); ok {
		switch apiErr.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", name, apperrors.ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w", name, apperrors.ErrInvalidCredentials)
		}
	}
	return fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, name, err)
}

// RemoteCollection implements Collection against the remote service
type RemoteCollection[T Entity] struct {
	client *Client
	name   string
}

// NewRemoteCollection creates a collection view over the remote API
func NewRemoteCollection[T Entity](client *Client, name string) *RemoteCollection[T] {
	return &RemoteCollection[T]{client: client, name: name}
}

func (c *RemoteCollection[T]) List(ctx context.Context) ([]T, error) {
	body, err := c.client.do(ctx, http.MethodGet, "/"+c.name, nil)
	if err != nil {
		return nil, mapError(c.name, err)
	}

	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s list: %v", apperrors.ErrTransport, c.name, err)
	}
	return records, nil
}

func (c *RemoteCollection[T]) Create(ctx context.Context, record T) (T, error) {
	var zero T
	body, err := c.client.do(ctx, http.MethodPost, "/"+c.name, record)
	if err != nil {
		return zero, mapError(c.name, err)
	}

	var created T
	if err := json.Unmarshal(body, &created); err != nil {
		return zero, fmt.Errorf("%w: decode %s record: %v", apperrors.ErrTransport, c.name, err)
	}
	return created, nil
}

func (c *RemoteCollection[T]) Update(ctx context.Context, id int, record T) (T, error) {
	var zero T
	body, err := c.client.do(ctx, http.MethodPut, fmt.Sprintf("/%s/%d", c.name, id), record)
	if err != nil {
		return zero, mapError(c.name, err)
	}

	var updated T
	if err := json.Unmarshal(body, &updated); err != nil {
		return zero, fmt.Errorf("%w: decode %s record: %v", apperrors.ErrTransport, c.name, err)
	}
	return updated, nil
}

func (c *RemoteCollection[T]) Delete(ctx context.Context, id int) error {
	_, err := c.client.do(ctx, http.MethodDelete, fmt.Sprintf("/%s/%d", c.name, id), nil)
	if err != nil {
		return mapError(c.name, err)
	}
	return nil
}

// RemoteSessions authenticates against the remote service and caches the
// resulting session in the local cache so a restart restores the actor
type RemoteSessions struct {
	client *Client
	cache  *Cache
}

// NewRemoteSessions creates a remote-backed session source
func NewRemoteSessions(client *Client, cache *Cache) *RemoteSessions {
	return &RemoteSessions{client: client, cache: cache}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *RemoteSessions) Login(ctx context.Context, email, secret string) (*core.Session, error) {
	body, err := s.client.do(ctx, http.MethodPost, "/auth/login", loginRequest{
		Email:    email,
		Password: secret,
	})
	if err != nil {
		return nil, mapError("login", err)
	}

	var session core.Session
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("%w: decode session: %v", apperrors.ErrTransport, err)
	}
	if session.LoginTime.IsZero() {
		session.LoginTime = time.Now()
	}

	if err := saveSession(ctx, s.cache, session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *RemoteSessions) Current(ctx context.Context) (*core.Session, error) {
	return loadSession(ctx, s.cache)
}

func (s *RemoteSessions) Clear(ctx context.Context) error {
	_, err := s.cache.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("%w: clear session: %v", apperrors.ErrTransport, err)
	}
	return nil
}

// NewRemoteSource wires all four collections over one remote client. The local
// cache is still used for session persistence.
func NewRemoteSource(client *Client, cache *Cache) *Source {
	return &Source{
		Products:   NewRemoteCollection[core.Product](client, CollectionProducts),
		Shops:      NewRemoteCollection[core.Shop](client, CollectionShops),
		Orders:     NewRemoteCollection[core.Order](client, CollectionOrders),
		Categories: NewRemoteCollection[core.Category](client, CollectionCategories),
		Sessions:   NewRemoteSessions(client, cache),
	}
}
