package client

import (
	"net/url"
	"sync"
)

// Filters accumulates report filter values. Setting a key overwrites the
// previous value; empty values are kept internally but never emitted, so a
// cleared filter disappears from the query instead of being sent as "".
type Filters struct {
	mu     sync.Mutex
	values map[string]string
}

// NewFilters constructs an empty filter set.
func NewFilters() *Filters {
	return &Filters{values: make(map[string]string)}
}

// Set records a filter value, overwriting any previous value for the key.
func (f *Filters) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
}

// Get returns the current value for a key.
func (f *Filters) Get(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key]
}

// Clear resets every filter. Callers pair it with a Fetch so the view
// returns to the unfiltered listing.
func (f *Filters) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = make(map[string]string)
}

// Query renders the filters as URL query values. Keys holding empty strings
// are omitted entirely.
func (f *Filters) Query() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := url.Values{}
	for key, value := range f.values {
		if value == "" {
			continue
		}
		q.Set(key, value)
	}
	return q
}
