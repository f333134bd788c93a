package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves a fixed, already ordered user list with the same paging rules as the service.
type fakeAPI struct {
	mu       sync.Mutex
	users    []User
	requests []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.URL.RequestURI())

	switch {
	case r.URL.Path == "/fetch-all-users":
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = DefaultPageSize
		}
		start := 0
		if after := r.URL.Query().Get("lastDocId"); after != "" {
			for i, u := range f.users {
				if u.ID == after {
					start = i + 1
				}
			}
		}
		end := min(start+limit, len(f.users))
		page := f.users[start:end]

		var last *string
		if len(page) > 0 {
			id := page[len(page)-1].ID
			last = &id
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"users":      page,
			"pagination": map[string]any{"hasMore": len(page) == limit, "lastDocId": last},
		})
	case r.URL.Path == "/fetch-user-data/u1" || r.URL.Path == "/fetch-user-data":
		_ = json.NewEncoder(w).Encode(map[string]any{"user": f.users[0]})
	case r.URL.Path == "/update-user-data/u1":
		raw, _ := io.ReadAll(r.Body)
		var upd UserUpdate
		_ = json.Unmarshal(raw, &upd)
		u := f.users[0]
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "ok", "user": u})
	case r.URL.Path == "/update-activity":
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	}
}

func newFakeAPI(t *testing.T, n int) (*fakeAPI, *httptest.Server) {
	api := &fakeAPI{}
	for i := 1; i <= n; i++ {
		api.users = append(api.users, User{ID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("user %d", i)})
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func TestClient_FetchUser(t *testing.T) {
	_, srv := newFakeAPI(t, 1)
	c := New(srv.URL + "/")

	u, err := c.FetchUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user 1", u.Name)

	u, err = c.FetchUser(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = c.FetchUser(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "User not found", apiErr.Message)
}

func TestClient_UpdateUser(t *testing.T) {
	_, srv := newFakeAPI(t, 1)
	c := New(srv.URL)

	name := "renamed"
	u, err := c.UpdateUser(context.Background(), "u1", UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed", u.Name)
}

func TestClient_UpdateActivity(t *testing.T) {
	_, srv := newFakeAPI(t, 1)

	err := New(srv.URL).UpdateActivity(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	assert.NoError(t, New(srv.URL, WithToken("secret")).UpdateActivity(context.Background()))
}

func TestClient_FetchAllUsersQuery(t *testing.T) {
	api, srv := newFakeAPI(t, 3)
	c := New(srv.URL)

	page, err := c.FetchAllUsers(context.Background(), 2, "u1", SortRents)
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, "u2", page.Users[0].ID)
	assert.Equal(t, "/fetch-all-users?lastDocId=u1&limit=2&sortBy=rents", api.requests[0])
}

func TestPager_LoadMoreUntilExhausted(t *testing.T) {
	api, srv := newFakeAPI(t, 25)
	p := NewPager(New(srv.URL), 0)
	ctx := context.Background()

	require.NoError(t, p.Reset(ctx))
	assert.Len(t, p.Users(), 10)
	assert.True(t, p.HasMore())

	require.NoError(t, p.LoadMore(ctx))
	require.NoError(t, p.LoadMore(ctx))
	assert.Len(t, p.Users(), 25)
	assert.False(t, p.HasMore())

	calls := len(api.requests)
	require.NoError(t, p.LoadMore(ctx))
	assert.Len(t, api.requests, calls, "exhausted pager must not call the API")

	users := p.Users()
	assert.Equal(t, "u1", users[0].ID)
	assert.Equal(t, "u25", users[24].ID)
}

func TestPager_SetSortResets(t *testing.T) {
	api, srv := newFakeAPI(t, 15)
	p := NewPager(New(srv.URL), 5)
	ctx := context.Background()

	require.NoError(t, p.Reset(ctx))
	require.NoError(t, p.LoadMore(ctx))
	assert.Len(t, p.Users(), 10)

	require.NoError(t, p.SetSort(ctx, SortActivity))
	assert.Equal(t, SortActivity, p.SortBy())
	assert.Len(t, p.Users(), 5)
	assert.Equal(t, "u1", p.Users()[0].ID)
	assert.Equal(t, "/fetch-all-users?limit=5&sortBy=activity", api.requests[len(api.requests)-1])
}

func TestPager_ErrorKeepsState(t *testing.T) {
	_, srv := newFakeAPI(t, 12)
	p := NewPager(New(srv.URL), 10)
	ctx := context.Background()

	require.NoError(t, p.Reset(ctx))
	srv.Close()

	assert.Error(t, p.LoadMore(ctx))
	assert.Len(t, p.Users(), 10)
	assert.True(t, p.HasMore())
}
