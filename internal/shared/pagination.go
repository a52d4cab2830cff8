package shared

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Default page size for report listings.
const DefaultPerPage = 15

// PageRequest carries the pagination portion of a list request.
type PageRequest struct {
	Page    int
	PerPage int
}

// ParsePageRequest reads page/per_page query parameters with sane bounds.
func ParsePageRequest(q url.Values) PageRequest {
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > 100 {
		perPage = 100
	}
	return PageRequest{Page: page, PerPage: perPage}
}

// Offset returns the SQL offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageLink is one pagination control. A nil URL marks a disabled control.
// Labels are plain identifiers ("previous", "next", page numbers), never markup.
type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// ListMeta summarises the window a page covers.
type ListMeta struct {
	CurrentPage int `json:"current_page"`
	From        int `json:"from"`
	To          int `json:"to"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// Envelope is the list response shape every report and listing endpoint emits.
type Envelope struct {
	Data  any        `json:"data"`
	Links []PageLink `json:"links"`
	Meta  ListMeta   `json:"meta"`
}

// NewListMeta computes window metadata for a page of total records.
func NewListMeta(req PageRequest, total, count int) ListMeta {
	lastPage := int(math.Ceil(float64(total) / float64(req.PerPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	from, to := 0, 0
	if count > 0 {
		from = req.Offset() + 1
		to = req.Offset() + count
	}
	return ListMeta{
		CurrentPage: req.Page,
		From:        from,
		To:          to,
		LastPage:    lastPage,
		PerPage:     req.PerPage,
		Total:       total,
	}
}

// BuildLinks produces previous/pages/next controls for the given request.
// A single page yields no controls at all; otherwise the slice always has the
// two endpoint controls plus one entry per page.
func BuildLinks(path string, query url.Values, meta ListMeta) []PageLink {
	if meta.LastPage <= 1 {
		return []PageLink{}
	}

	pageURL := func(page int) *string {
		q := url.Values{}
		for key, vals := range query {
			if key == "page" || len(vals) == 0 || vals[0] == "" {
				continue
			}
			q.Set(key, vals[0])
		}
		q.Set("page", strconv.Itoa(page))
		u := path + "?" + q.Encode()
		return &u
	}

	links := make([]PageLink, 0, meta.LastPage+2)

	prev := PageLink{Label: "previous"}
	if meta.CurrentPage > 1 {
		prev.URL = pageURL(meta.CurrentPage - 1)
	}
	links = append(links, prev)

	for page := 1; page <= meta.LastPage; page++ {
		links = append(links, PageLink{
			URL:    pageURL(page),
			Label:  fmt.Sprintf("%d", page),
			Active: page == meta.CurrentPage,
		})
	}

	next := PageLink{Label: "next"}
	if meta.CurrentPage < meta.LastPage {
		next.URL = pageURL(meta.CurrentPage + 1)
	}
	links = append(links, next)

	return links
}
