package client

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"
)

// Format names a report export format.
type Format string

const (
	// FormatCSV downloads comma-separated values.
	FormatCSV Format = "csv"
	// FormatPDF downloads a rendered PDF document.
	FormatPDF Format = "pdf"
	// FormatExcel downloads an OOXML spreadsheet.
	FormatExcel Format = "excel"
)

// Each format maps to its own endpoint family on the server.
type formatSpec struct {
	pathPrefix string
	accept     string
	extension  string
}

var formatSpecs = map[Format]formatSpec{
	FormatCSV: {
		pathPrefix: "/reports/export/",
		accept:     "text/csv,application/csv",
		extension:  "csv",
	},
	FormatPDF: {
		pathPrefix: "/reports/export-pdf/",
		accept:     "application/pdf",
		extension:  "pdf",
	},
	FormatExcel: {
		pathPrefix: "/reports/export-excel/",
		accept:     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		extension:  "xlsx",
	},
}

// Downloader fetches report exports and hands them to a Saver. Nothing is
// saved on any error path, and concurrent exports are not de-duplicated;
// each one runs to completion independently.
type Downloader struct {
	client *Client
	saver  Saver
	logger *slog.Logger
	now    func() time.Time
}

// NewDownloader constructs a Downloader delivering files through saver.
func NewDownloader(c *Client, saver Saver) *Downloader {
	return &Downloader{client: c, saver: saver, logger: c.logger, now: time.Now}
}

// Export downloads one report in the given format and saves it, returning
// the file name the export was stored under.
//
// The steps run strictly in order: resolve the format endpoint (unknown
// formats fail before any network call), request with cookie credentials and
// the XMLHttpRequest marker, reject non-2xx statuses, detect the silent
// auth-failure mode where the server answers 200 with its HTML login page,
// then resolve the file name and hand the body to the saver.
func (d *Downloader) Export(ctx context.Context, reportType string, format Format, filters *Filters) (string, error) {
	spec, ok := formatSpecs[format]
	if !ok {
		return "", ErrUnknownFormat
	}

	target := spec.pathPrefix + reportType
	if filters != nil {
		if q := filters.Query().Encode(); q != "" {
			target += "?" + q
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.client.baseURL+target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", spec.accept)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := d.client.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer drainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newHTTPError(resp)
	}
	if isHTMLResponse(resp) {
		// The server redirected to its login page instead of failing loudly.
		return "", ErrSessionExpired
	}

	filename := d.resolveFilename(resp, reportType, spec.extension)
	if err := d.saver.Save(filename, resp.Body); err != nil {
		return "", err
	}

	d.logger.Info("report export saved",
		slog.String("report", reportType),
		slog.String("format", string(format)),
		slog.String("filename", filename))
	return filename, nil
}

// resolveFilename prefers the server's Content-Disposition filename and
// falls back to {reportType}_report_{date}.{ext}.
func (d *Downloader) resolveFilename(resp *http.Response, reportType, extension string) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := sanitizeFilename(params["filename"]); name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("%s_report_%s.%s", reportType, d.now().UTC().Format("2006-01-02"), extension)
}

// sanitizeFilename strips directory components and characters that could
// escape the save directory.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if idx := strings.LastIndexAny(name, "/\\"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.ReplaceAll(name, "..", "")
	return name
}
