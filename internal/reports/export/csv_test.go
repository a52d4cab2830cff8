package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		Title:       "Appointments Report",
		ReportType:  "appointments",
		GeneratedAt: time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC),
		RangeFrom:   "2026-07-29",
		RangeTo:     "2026-08-28",
		Columns:     []string{"ID", "Patient", "Status"},
		Rows: [][]string{
			{"1", "Jane Doe", "Completed"},
			{"2", "Ravi Patel", "Pending"},
		},
		Summary: []SummaryItem{
			{Label: "Total", Value: "2"},
			{Label: "Completed", Value: "1"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleDocument()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, "ID,Patient,Status", lines[0])
	require.Equal(t, "1,Jane Doe,Completed", lines[1])
	require.Equal(t, "2,Ravi Patel,Pending", lines[2])
	// Summary block separated by a blank-ish line.
	require.Contains(t, lines[len(lines)-2], "Total")
	require.Contains(t, lines[len(lines)-1], "Completed")
}

func TestWriteCSVEscapesCells(t *testing.T) {
	doc := sampleDocument()
	doc.Rows = [][]string{{"1", `Doe, Jane "JD"`, "Completed"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, doc))
	require.Contains(t, buf.String(), `"Doe, Jane ""JD"""`)
}

func TestBuildHTMLEscapesContent(t *testing.T) {
	doc := sampleDocument()
	doc.Rows = [][]string{{"1", "<script>alert(1)</script>", "Pending"}}

	html := BuildHTML(doc)
	require.NotContains(t, html, "<script>alert(1)</script>")
	require.Contains(t, html, "&lt;script&gt;")
	require.Contains(t, html, "Appointments Report")
	require.Contains(t, html, "2026-07-29")
}

func TestWriteXLSXProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleDocument()))
	// XLSX files are zip archives.
	require.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}

func TestMoneyAndCountFormatting(t *testing.T) {
	require.Equal(t, "1,234,567.89", Money(1234567.89))
	require.Equal(t, "12,500", Count(12500))
}
