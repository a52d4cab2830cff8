package export

import (
	"context"
	"fmt"
	"html"
	"strings"
)

// HTMLRenderer converts an HTML document into PDF bytes. The production
// implementation talks to a Gotenberg sidecar.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// RenderPDF builds the document's HTML layout and hands it to the renderer.
func RenderPDF(ctx context.Context, renderer HTMLRenderer, doc Document) ([]byte, error) {
	if renderer == nil {
		return nil, fmt.Errorf("export: pdf renderer not configured")
	}
	return renderer.RenderHTML(ctx, BuildHTML(doc))
}

// BuildHTML lays the document out as a printable HTML table.
func BuildHTML(doc Document) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;margin-bottom:4px;}")
	b.WriteString(".meta{color:#555;font-size:12px;margin-bottom:16px;}")
	b.WriteString("table{width:100%;border-collapse:collapse;margin-bottom:16px;}")
	b.WriteString("th,td{border:1px solid #ddd;padding:6px;font-size:12px;text-align:left;}th{background:#f5f5f5;}")
	b.WriteString(".summary td{border:0;padding:2px 6px;font-size:12px;}")
	b.WriteString("</style></head><body>")

	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(doc.Title))
	b.WriteString("</h1>")
	b.WriteString("<p class=\"meta\">")
	if doc.RangeFrom != "" || doc.RangeTo != "" {
		b.WriteString(html.EscapeString(fmt.Sprintf("Period %s to %s · ", doc.RangeFrom, doc.RangeTo)))
	}
	b.WriteString(html.EscapeString("Generated " + doc.GeneratedAt.Format("02 Jan 2006 15:04")))
	b.WriteString("</p>")

	b.WriteString("<table><thead><tr>")
	for _, col := range doc.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range doc.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")

	if len(doc.Summary) > 0 {
		b.WriteString("<table class=\"summary\"><tbody>")
		for _, item := range doc.Summary {
			b.WriteString("<tr><td>")
			b.WriteString(html.EscapeString(item.Label))
			b.WriteString("</td><td>")
			b.WriteString(html.EscapeString(item.Value))
			b.WriteString("</td></tr>")
		}
		b.WriteString("</tbody></table>")
	}

	b.WriteString("</body></html>")
	return b.String()
}
