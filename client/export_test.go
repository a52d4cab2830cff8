package client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memorySaver struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemorySaver() *memorySaver {
	return &memorySaver{files: make(map[string][]byte)}
}

func (s *memorySaver) Save(name string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return nil
}

func newTestDownloader(t *testing.T, handler http.Handler) (*Downloader, *memorySaver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL)
	require.NoError(t, err)
	saver := newMemorySaver()
	return NewDownloader(c, saver), saver, srv
}

func TestExportCSVEndToEnd(t *testing.T) {
	var gotPath, gotAccept, gotRequestedWith string
	d, saver, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotRequestedWith = r.Header.Get("X-Requested-With")
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="appointments_report_2026-08-28.csv"`)
		_, _ = w.Write([]byte("id,patient\n1,Jane Doe\n"))
	}))

	name, err := d.Export(context.Background(), "appointments", FormatCSV, nil)
	require.NoError(t, err)
	require.Equal(t, "/reports/export/appointments", gotPath)
	require.Equal(t, "text/csv,application/csv", gotAccept)
	require.Equal(t, "XMLHttpRequest", gotRequestedWith)
	require.Equal(t, "appointments_report_2026-08-28.csv", name)
	require.Equal(t, []byte("id,patient\n1,Jane Doe\n"), saver.files[name])
}

func TestExportFilenameFallback(t *testing.T) {
	d, saver, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write([]byte("xlsx-bytes"))
	}))
	d.now = func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) }

	name, err := d.Export(context.Background(), "inventory", FormatExcel, nil)
	require.NoError(t, err)
	require.Equal(t, "inventory_report_2026-08-28.xlsx", name)
	require.Contains(t, saver.files, name)
}

func TestExportHTMLResponseMeansSessionExpired(t *testing.T) {
	d, saver, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
	}))

	_, err := d.Export(context.Background(), "patients", FormatCSV, nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Empty(t, saver.files)
}

func TestExportServerErrorSavesNothing(t *testing.T) {
	d, saver, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := d.Export(context.Background(), "transfers", FormatPDF, nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.Empty(t, saver.files)
}

func TestExportUnknownFormatFailsBeforeNetwork(t *testing.T) {
	requests := 0
	d, saver, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	_, err := d.Export(context.Background(), "patients", Format("docx"), nil)
	require.ErrorIs(t, err, ErrUnknownFormat)
	require.Zero(t, requests)
	require.Empty(t, saver.files)
}

func TestExportForwardsFilters(t *testing.T) {
	var gotQuery string
	d, _, _ := newTestDownloader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("id\n"))
	}))

	filters := NewFilters()
	filters.Set("status", "Completed")
	filters.Set("search", "")

	_, err := d.Export(context.Background(), "appointments", FormatCSV, filters)
	require.NoError(t, err)
	require.Equal(t, "status=Completed", gotQuery)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "report.csv", sanitizeFilename(`../../etc/report.csv`))
	require.Equal(t, "report.csv", sanitizeFilename(`C:\temp\report.csv`))
	require.Equal(t, "", sanitizeFilename("  "))
}

func TestDirSaverWritesFile(t *testing.T) {
	dir := t.TempDir()
	saver := DirSaver{Dir: dir}
	require.NoError(t, saver.Save("out.csv", bytes.NewReader([]byte("a,b\n"))))

	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	require.Equal(t, []byte("a,b\n"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
