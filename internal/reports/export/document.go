// Package export renders report documents as CSV, XLSX, and PDF files.
package export

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Document is the format-independent tabular form of a report. Every export
// format renders the same document, so CSV, Excel, and PDF stay consistent.
type Document struct {
	Title       string
	ReportType  string
	GeneratedAt time.Time
	RangeFrom   string
	RangeTo     string
	Columns     []string
	Rows        [][]string
	Summary     []SummaryItem
}

// SummaryItem is one aggregate line rendered below the table.
type SummaryItem struct {
	Label string
	Value string
}

var moneyPrinter = message.NewPrinter(language.English)

// Money formats a monetary amount with grouping separators.
func Money(amount float64) string {
	return moneyPrinter.Sprintf("%.2f", amount)
}

// Count formats an integer with grouping separators.
func Count(n int) string {
	return moneyPrinter.Sprintf("%d", n)
}
