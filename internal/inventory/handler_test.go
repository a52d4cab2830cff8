package inventory

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/clarion-hms/clarion/internal/shared"
)

func newHandlerServer(t *testing.T, repo *memoryRepo) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, logger))
	r := chi.NewRouter()
	r.Route("/inventory", handler.MountRoutes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestHandleConsume(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/1/consume", `{"quantity":4,"notes":"ward A","handled_by":"nurse.jane"}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Item     ItemView     `json:"item"`
		Movement MovementView `json:"movement"`
		Stats    Stats        `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 6, body.Item.Stock)
	require.Equal(t, 24, body.Item.Consumed)
	require.Equal(t, "OUT", body.Movement.Type)
	require.False(t, body.Movement.IsRejection)
	require.NotEmpty(t, body.Movement.Code)
	require.Equal(t, 24, body.Stats.TotalConsumed)
}

func TestHandleConsumeInsufficientStock(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/1/consume", `{"quantity":99}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandleConsumeUnknownItem(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/42/consume", `{"quantity":1}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleMovementBadType(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/1/movement", `{"movement_type":"TRANSFER","quantity":1}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleBadItemID(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/abc/consume", `{"quantity":1}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleListEnvelope(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp, err := http.Get(srv.URL + "/inventory/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data  []ItemView        `json:"data"`
		Links []shared.PageLink `json:"links"`
		Meta  shared.ListMeta   `json:"meta"`
		Stats Stats             `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "InStock", body.Data[0].Status)
	require.GreaterOrEqual(t, body.Meta.Total, len(body.Data))
	require.Empty(t, body.Links)
	require.Equal(t, 1, body.Stats.TotalItems)
}

func TestHandleCreateDuplicateCode(t *testing.T) {
	srv := newHandlerServer(t, newMemoryRepo(gauzeItem()))

	resp := postJSON(t, srv.URL+"/inventory/", `{"name":"Gauze Copy","code":"GZ-001","category":"Consumables","unit":"pack","stock":5,"low_stock_threshold":2}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}
