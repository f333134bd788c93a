package client

import (
	"context"
	"sync"
)

// DefaultPageSize is the number of users a Pager asks for per page.
const DefaultPageSize = 10

// Pager accumulates users page by page for a "load more" listing.
type Pager struct {
	c        *Client
	pageSize int

	mu        sync.Mutex
	sortBy    string
	users     []User
	lastDocID string
	hasMore   bool
}

// NewPager creates a pager sorted by potential. It fetches nothing until Reset.
func NewPager(c *Client, pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{c: c, pageSize: pageSize, sortBy: SortPotential, hasMore: true}
}

// Reset fetches the first page and replaces everything loaded so far.
func (p *Pager) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	page, err := p.c.FetchAllUsers(ctx, p.pageSize, "", p.sortBy)
	if err != nil {
		return err
	}
	p.users = append([]User(nil), page.Users...)
	p.track(page)
	return nil
}

// LoadMore appends the next page. It does nothing once the listing is exhausted.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.hasMore {
		return nil
	}

	page, err := p.c.FetchAllUsers(ctx, p.pageSize, p.lastDocID, p.sortBy)
	if err != nil {
		return err
	}
	p.users = append(p.users, page.Users...)
	p.track(page)
	return nil
}

// SetSort switches the sort mode and reloads from the first page.
func (p *Pager) SetSort(ctx context.Context, sortBy string) error {
	p.mu.Lock()
	p.sortBy = sortBy
	p.mu.Unlock()
	return p.Reset(ctx)
}

// Users returns a copy of the users loaded so far.
func (p *Pager) Users() []User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]User(nil), p.users...)
}

// HasMore reports whether LoadMore may return more users.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasMore
}

// SortBy returns the current sort mode.
func (p *Pager) SortBy() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortBy
}

func (p *Pager) track(page *Page) {
	p.hasMore = page.Pagination.HasMore
	p.lastDocID = ""
	if page.Pagination.LastDocID != nil {
		p.lastDocID = *page.Pagination.LastDocID
	}
}
