// Package remote talks to the shared backing service that peers sync
// through. The local store is always written first; this client only moves
// already-committed records across the wire.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/anakol/pokerpot/internal/models"
	"github.com/anakol/pokerpot/internal/storage"
)

// Entity names, used as path segments on the remote API.
const (
	EntitySessions    = "sessions"
	EntityMembers     = "members"
	EntityBuyIns      = "buyins"
	EntityResults     = "results"
	EntitySettlements = "settlements"
)

// Client is the remote half of the reconciler. Implementations must be
// safe for concurrent use.
type Client interface {
	// Online reports whether the remote service is reachable right now.
	Online(ctx context.Context) bool

	// FetchChangesSince returns all records of the given entity changed
	// at or after the given Unix timestamp, as raw JSON documents.
	FetchChangesSince(ctx context.Context, entity string, since int64) ([]json.RawMessage, error)

	// Upsert pushes a batch of records for the given entity. The remote
	// replaces its copies wholesale, keyed by record id.
	Upsert(ctx context.Context, entity string, records any) error

	// FetchSessionByJoinCode resolves a join code the local store has
	// never seen. Returns storage.ErrNotFound when no session matches.
	FetchSessionByJoinCode(ctx context.Context, code string) (*models.Session, error)
}

// RequestError describes a failed remote call.
type RequestError struct {
	Entity     string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote %s: unexpected status %d", e.Entity, e.StatusCode)
	}
	return fmt.Sprintf("remote %s: %v", e.Entity, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HTTPClient implements Client over JSON REST.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a client for the service at baseURL. The token is
// sent as a bearer credential on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

func (c *HTTPClient) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	resp, err := c.do(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *HTTPClient) FetchChangesSince(ctx context.Context, entity string, since int64) ([]json.RawMessage, error) {
	path := "/v1/" + entity + "?since=" + strconv.FormatInt(since, 10)
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, &RequestError{Entity: entity, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{Entity: entity, StatusCode: resp.StatusCode}
	}

	var records []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, &RequestError{Entity: entity, Err: err}
	}
	return records, nil
}

func (c *HTTPClient) Upsert(ctx context.Context, entity string, records any) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return &RequestError{Entity: entity, Err: err}
	}

	resp, err := c.do(ctx, http.MethodPut, "/v1/"+entity, bytes.NewReader(payload))
	if err != nil {
		return &RequestError{Entity: entity, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return &RequestError{Entity: entity, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *HTTPClient) FetchSessionByJoinCode(ctx context.Context, code string) (*models.Session, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/sessions/by-code/"+url.PathEscape(code), nil)
	if err != nil {
		return nil, &RequestError{Entity: EntitySessions, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, storage.ErrNotFound
	default:
		return nil, &RequestError{Entity: EntitySessions, StatusCode: resp.StatusCode}
	}

	var session models.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, &RequestError{Entity: EntitySessions, Err: err}
	}
	return &session, nil
}
