package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clarion-hms/clarion/internal/auth"
	"github.com/clarion-hms/clarion/internal/inventory"
	"github.com/clarion-hms/clarion/internal/observability"
	"github.com/clarion-hms/clarion/internal/reports"
	"github.com/clarion-hms/clarion/internal/shared"
	"github.com/clarion-hms/clarion/internal/view"
)

type fakeAuthRepo struct {
	user *auth.User
}

func (r *fakeAuthRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if r.user != nil && strings.EqualFold(r.user.Email, email) {
		return r.user, nil
	}
	return nil, shared.ErrNotFound
}

type fakeInvRepo struct {
	items map[int64]inventory.Item
}

type fakeInvTx struct {
	repo *fakeInvRepo
}

func (r *fakeInvRepo) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	return fn(ctx, &fakeInvTx{repo: r})
}

func (r *fakeInvRepo) ListItems(ctx context.Context, filter inventory.ListFilter) ([]inventory.Item, int, error) {
	var items []inventory.Item
	for _, item := range r.items {
		items = append(items, item)
	}
	return items, len(items), nil
}

func (r *fakeInvRepo) GetItem(ctx context.Context, id int64) (inventory.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return inventory.Item{}, shared.ErrNotFound
	}
	return item, nil
}

func (r *fakeInvRepo) CreateItem(ctx context.Context, input inventory.ItemInput) (inventory.Item, error) {
	return inventory.Item{}, nil
}

func (r *fakeInvRepo) UpdateItem(ctx context.Context, id int64, input inventory.ItemInput) (inventory.Item, error) {
	return r.GetItem(ctx, id)
}

func (r *fakeInvRepo) DeleteItem(ctx context.Context, id int64) error { return nil }

func (r *fakeInvRepo) Stats(ctx context.Context) (inventory.Stats, error) {
	var stats inventory.Stats
	for _, item := range r.items {
		stats.TotalItems++
		stats.TotalConsumed += item.Consumed
		stats.TotalRejected += item.Rejected
	}
	return stats, nil
}

func (r *fakeInvRepo) ListMovements(ctx context.Context, itemID int64, limit int) ([]inventory.Movement, error) {
	return nil, nil
}

func (tx *fakeInvTx) GetItemForUpdate(ctx context.Context, id int64) (inventory.Item, error) {
	return tx.repo.GetItem(ctx, id)
}

func (tx *fakeInvTx) UpdateItemCounters(ctx context.Context, item inventory.Item) error {
	tx.repo.items[item.ID] = item
	return nil
}

func (tx *fakeInvTx) InsertMovement(ctx context.Context, movement inventory.Movement) (int64, error) {
	return 1, nil
}

type fakeReportsRepo struct{}

func (fakeReportsRepo) ListAppointments(ctx context.Context, f reports.Filter, limit, offset int) ([]reports.AppointmentRecord, int, error) {
	return []reports.AppointmentRecord{{ID: 1, PatientName: "Jane Doe", Status: reports.AppointmentCompleted}}, 1, nil
}

func (fakeReportsRepo) AppointmentStats(ctx context.Context, f reports.Filter) (reports.AppointmentStats, error) {
	return reports.AppointmentStats{Total: 1, Completed: 1}, nil
}

func (fakeReportsRepo) ListPatients(ctx context.Context, f reports.Filter, limit, offset int) ([]reports.PatientRecord, int, error) {
	return []reports.PatientRecord{{ID: 1, MRN: "MRN-001", Name: "Jane Doe", Status: reports.PatientAdmitted}}, 1, nil
}

func (fakeReportsRepo) PatientStats(ctx context.Context, f reports.Filter) (reports.PatientStats, error) {
	return reports.PatientStats{Total: 1, Admitted: 1}, nil
}

func (fakeReportsRepo) ListTransfers(ctx context.Context, f reports.Filter, limit, offset int) ([]reports.TransferRecord, int, error) {
	return nil, 0, nil
}

func (fakeReportsRepo) TransferStats(ctx context.Context, f reports.Filter) (reports.TransferStats, error) {
	return reports.TransferStats{}, nil
}

func (fakeReportsRepo) ListTransactions(ctx context.Context, f reports.Filter, limit, offset int) ([]reports.TransactionRecord, int, error) {
	return nil, 0, nil
}

func (fakeReportsRepo) TransactionStats(ctx context.Context, f reports.Filter) (reports.TransactionStats, error) {
	return reports.TransactionStats{}, nil
}

func (fakeReportsRepo) ListInventory(ctx context.Context, f reports.Filter, limit, offset int) ([]reports.InventoryRecord, int, error) {
	return nil, 0, nil
}

func newTestApp(t *testing.T) *httptest.Server {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second}
	logger := NewLogger(cfg)
	sessions := shared.NewSessionManager(redisClient, "clarion_session", "router-test-secret", time.Hour, false)

	templates, err := view.NewEngine()
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	authRepo := &fakeAuthRepo{user: &auth.User{ID: 1, Name: "Dr. Mensah", Email: "mensah@clinic.test", PasswordHash: string(hash), IsActive: true}}
	authHandler := auth.NewHandler(logger, auth.NewService(authRepo), templates, sessions)

	invRepo := &fakeInvRepo{items: map[int64]inventory.Item{
		1: {ID: 1, Name: "Sterile Gauze", Code: "GZ-001", Category: "Consumables", Unit: "pack", Stock: 10, Consumed: 20, Rejected: 2, LowStockThreshold: 5},
	}}
	invService := inventory.NewService(invRepo, logger)
	invHandler := inventory.NewHandler(logger, invService)

	reportsService := reports.NewService(fakeReportsRepo{}, invService, redisClient, time.Minute, logger)
	reportsHandler := reports.NewHandler(reportsService, nil, observability.NewMetrics(), logger)

	router := NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		Templates:        templates,
		SessionManager:   sessions,
		AuthHandler:      authHandler,
		ReportsHandler:   reportsHandler,
		InventoryHandler: invHandler,
		Metrics:          observability.NewMetrics(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func login(t *testing.T, browser *http.Client, baseURL string) {
	t.Helper()
	form := url.Values{"email": {"mensah@clinic.test"}, "password": {"correct-horse"}}
	resp, err := browser.PostForm(baseURL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "/", resp.Request.URL.Path)
}

func TestUnauthenticatedRequestLandsOnLoginPage(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)

	// The server redirects silently; a client following redirects ends up
	// with 200 and an HTML body instead of the requested report.
	resp, err := browser.Get(srv.URL + "/reports/patients")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	require.Equal(t, "/login", resp.Request.URL.Path)

	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(page), shared.UserSafeMessage(shared.ErrSessionRequired))
}

func TestLoginThenFetchReport(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)
	login(t, browser, srv.URL)

	resp, err := browser.Get(srv.URL + "/reports/patients")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"))

	var body struct {
		Data  []json.RawMessage `json:"data"`
		Links []shared.PageLink `json:"links"`
		Meta  shared.ListMeta   `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	require.GreaterOrEqual(t, body.Meta.Total, len(body.Data))
}

func TestFailedLoginReturnsToLoginPage(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)

	form := url.Values{"email": {"mensah@clinic.test"}, "password": {"wrong-password"}}
	resp, err := browser.PostForm(srv.URL+"/auth/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "/login", resp.Request.URL.Path)
	require.Equal(t, "1", resp.Request.URL.Query().Get("failed"))
}

func TestExportRequiresSession(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)

	resp, err := browser.Get(srv.URL + "/reports/export/appointments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
}

func TestExportCSVAfterLogin(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)
	login(t, browser, srv.URL)

	resp, err := browser.Get(srv.URL + "/reports/export/appointments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "appointments_report_")
}

func TestUnsafeMethodNeedsXHRMarker(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)
	login(t, browser, srv.URL)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/inventory/1/consume", strings.NewReader(`{"quantity":2}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := browser.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestConsumeWithXHRMarker(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)
	login(t, browser, srv.URL)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/inventory/1/consume", strings.NewReader(`{"quantity":2,"handled_by":"nurse.jane"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := browser.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Item struct {
			Stock    int `json:"stock"`
			Consumed int `json:"consumed"`
		} `json:"item"`
		Stats inventory.Stats `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 8, body.Item.Stock)
	require.Equal(t, 22, body.Item.Consumed)
	require.Equal(t, 22, body.Stats.TotalConsumed)
}

func TestLogoutDropsSession(t *testing.T) {
	srv := newTestApp(t)
	browser := newBrowser(t)
	login(t, browser, srv.URL)

	resp, err := browser.PostForm(srv.URL+"/auth/logout", url.Values{})
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = browser.Get(srv.URL + "/reports/patients")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
	require.Equal(t, "/login", resp.Request.URL.Path)
}

func TestHealthz(t *testing.T) {
	srv := newTestApp(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
