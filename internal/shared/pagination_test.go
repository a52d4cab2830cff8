package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePageRequestBounds(t *testing.T) {
	req := ParsePageRequest(url.Values{})
	require.Equal(t, 1, req.Page)
	require.Equal(t, DefaultPerPage, req.PerPage)

	req = ParsePageRequest(url.Values{"page": {"3"}, "per_page": {"500"}})
	require.Equal(t, 3, req.Page)
	require.Equal(t, 100, req.PerPage)
	require.Equal(t, 200, req.Offset())
}

func TestBuildLinksSinglePageIsEmpty(t *testing.T) {
	meta := NewListMeta(PageRequest{Page: 1, PerPage: 15}, 10, 10)
	links := BuildLinks("/reports/patients", url.Values{}, meta)
	require.Empty(t, links)
}

func TestBuildLinksShape(t *testing.T) {
	req := PageRequest{Page: 2, PerPage: 15}
	meta := NewListMeta(req, 45, 15)
	require.Equal(t, 3, meta.LastPage)

	query := url.Values{"status": {"Admitted"}, "search": {""}, "page": {"2"}}
	links := BuildLinks("/reports/patients", query, meta)

	// previous + one per page + next
	require.Len(t, links, 5)

	prev := links[0]
	require.Equal(t, "previous", prev.Label)
	require.NotNil(t, prev.URL)
	require.Contains(t, *prev.URL, "page=1")
	require.Contains(t, *prev.URL, "status=Admitted")
	require.NotContains(t, *prev.URL, "search")

	require.True(t, links[2].Active)
	require.Equal(t, "2", links[2].Label)

	next := links[len(links)-1]
	require.Equal(t, "next", next.Label)
	require.NotNil(t, next.URL)
	require.Contains(t, *next.URL, "page=3")
}

func TestBuildLinksDisabledEnds(t *testing.T) {
	meta := NewListMeta(PageRequest{Page: 1, PerPage: 15}, 30, 15)
	links := BuildLinks("/inventory", url.Values{}, meta)
	require.Nil(t, links[0].URL)
	require.NotNil(t, links[len(links)-1].URL)

	meta = NewListMeta(PageRequest{Page: 2, PerPage: 15}, 30, 15)
	links = BuildLinks("/inventory", url.Values{}, meta)
	require.NotNil(t, links[0].URL)
	require.Nil(t, links[len(links)-1].URL)
}

func TestNewListMetaWindow(t *testing.T) {
	meta := NewListMeta(PageRequest{Page: 2, PerPage: 15}, 32, 15)
	require.Equal(t, 16, meta.From)
	require.Equal(t, 30, meta.To)
	require.Equal(t, 3, meta.LastPage)
	require.GreaterOrEqual(t, meta.Total, 15)

	empty := NewListMeta(PageRequest{Page: 1, PerPage: 15}, 0, 0)
	require.Zero(t, empty.From)
	require.Zero(t, empty.To)
	require.Equal(t, 1, empty.LastPage)
}
