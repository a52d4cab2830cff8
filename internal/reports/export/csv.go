package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV serialises the document as CSV: header row, data rows, then a
// blank line and the summary block.
func WriteCSV(w io.Writer, doc Document) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(doc.Columns); err != nil {
		return err
	}
	for _, row := range doc.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	if len(doc.Summary) > 0 {
		if err := writer.Write([]string{""}); err != nil {
			return err
		}
		for _, item := range doc.Summary {
			if err := writer.Write([]string{item.Label, item.Value}); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
