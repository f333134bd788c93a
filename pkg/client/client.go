// Package client is a Go client for the user directory HTTP API, including a
// load-more pager over the user listing.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Sort modes accepted by FetchAllUsers.
const (
	SortPotential = "potential"
	SortRatings   = "ratings"
	SortRents     = "rents"
	SortActivity  = "activity"
)

// User mirrors the user object returned by the API. Timestamps are epoch milliseconds.
type User struct {
	ID                        string   `json:"id"`
	Name                      string   `json:"name"`
	Email                     string   `json:"email"`
	TotalAverageWeightRatings float64  `json:"totalAverageWeightRatings"`
	NumberOfRents             int64    `json:"numberOfRents"`
	RecentlyActive            int64    `json:"recentlyActive"`
	CreatedAt                 int64    `json:"createdAt"`
	UpdatedAt                 int64    `json:"updatedAt"`
	PotentialScore            *float64 `json:"potentialScore,omitempty"`
}

// UserUpdate is a partial update. Nil fields are not sent.
type UserUpdate struct {
	Name                      *string  `json:"name,omitempty"`
	Email                     *string  `json:"email,omitempty"`
	TotalAverageWeightRatings *float64 `json:"totalAverageWeightRatings,omitempty"`
	NumberOfRents             *int64   `json:"numberOfRents,omitempty"`
}

// Page is one page of the user listing.
type Page struct {
	Users      []User `json:"users"`
	Pagination struct {
		HasMore   bool    `json:"hasMore"`
		LastDocID *string `json:"lastDocId"`
	} `json:"pagination"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Client talks to the user directory API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sends token as a bearer token on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUser returns the user with id, or the caller when id is empty.
func (c *Client) FetchUser(ctx context.Context, id string) (*User, error) {
	path := "/fetch-user-data"
	if id != "" {
		path += "/" + url.PathEscape(id)
	}

	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateUser applies a partial update and returns the stored user.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	path := "/update-user-data"
	if id != "" {
		path += "/" + url.PathEscape(id)
	}

	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, path, update, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateActivity marks the authenticated caller as active now.
func (c *Client) UpdateActivity(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/update-activity", nil, nil)
}

// FetchAllUsers fetches one page of users. Empty lastDocID starts from the top.
func (c *Client) FetchAllUsers(ctx context.Context, limit int, lastDocID, sortBy string) (*Page, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if sortBy != "" {
		q.Set("sortBy", sortBy)
	}
	if lastDocID != "" {
		q.Set("lastDocId", lastDocID)
	}

	path := "/fetch-all-users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page Page
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
