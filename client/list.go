package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
)

// PageLink is one pagination control from a list response. A nil URL marks a
// disabled control (the "previous" link on page one, for example).
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// DisplayLabel maps a server-supplied label onto local display text. Labels
// are treated strictly as data; whatever the server sends is looked up in a
// fixed table or shown verbatim as plain text, never rendered as markup.
func (l PageLink) DisplayLabel() string {
	if mapped, ok := labelTable[l.Label]; ok {
		return mapped
	}
	return l.Label
}

var labelTable = map[string]string{
	"previous": "Previous",
	"next":     "Next",
}

// Meta is the window metadata of one list page.
type Meta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	To          int `json:"to"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// DateRange is the filter window a list response covers.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ListPage is one page of report rows with its pagination state and stats.
type ListPage[T any] struct {
	Data      []T             `json:"data"`
	Links     []PageLink      `json:"links"`
	Meta      Meta            `json:"meta"`
	Stats     json.RawMessage `json:"stats"`
	DateRange DateRange       `json:"dateRange"`
}

// Fetcher retrieves list pages and holds the most recent one. Responses
// replace the held page wholesale. Each request carries a monotonically
// increasing sequence token; a response that is no longer the latest issued
// request is discarded with ErrSuperseded and never replaces the page, so
// overlapping fetches cannot interleave stale data.
type Fetcher[T any] struct {
	client *Client

	seq     atomic.Uint64
	mu      sync.Mutex
	current ListPage[T]
	loaded  bool
	busy    bool
}

// NewFetcher constructs a Fetcher bound to the client.
func NewFetcher[T any](c *Client) *Fetcher[T] {
	return &Fetcher[T]{client: c}
}

// Current returns the held page. The second return is false until the first
// successful fetch.
func (f *Fetcher[T]) Current() (ListPage[T], bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, f.loaded
}

// Busy reports whether the latest issued request is still unresolved.
func (f *Fetcher[T]) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Fetch retrieves path with the filter query and replaces the held page on
// success. If a newer Fetch was issued before this one resolved, the result
// is dropped and ErrSuperseded returned.
func (f *Fetcher[T]) Fetch(ctx context.Context, path string, filters *Filters) (ListPage[T], error) {
	target := path
	if filters != nil {
		if q := filters.Query().Encode(); q != "" {
			target = path + "?" + q
		}
	}
	return f.fetchURL(ctx, target)
}

// FollowLink re-issues a pagination link. A nil URL is a strict no-op: no
// request is made and the held page is returned unchanged. A non-nil URL is
// requested verbatim, never re-derived from filter state.
func (f *Fetcher[T]) FollowLink(ctx context.Context, link PageLink) (ListPage[T], error) {
	if link.URL == nil {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.current, nil
	}
	return f.fetchURL(ctx, *link.URL)
}

func (f *Fetcher[T]) fetchURL(ctx context.Context, target string) (ListPage[T], error) {
	token := f.seq.Add(1)
	f.mu.Lock()
	f.busy = true
	f.mu.Unlock()

	var page ListPage[T]
	resp, err := f.client.do(ctx, http.MethodGet, target, nil, nil)
	if err == nil {
		err = decodeJSON(resp, &page)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if token != f.seq.Load() {
		// A newer request owns the busy flag and the page now.
		return ListPage[T]{}, ErrSuperseded
	}
	f.busy = false
	if err != nil {
		return ListPage[T]{}, err
	}
	f.current = page
	f.loaded = true
	return page, nil
}
