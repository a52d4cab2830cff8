package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// WriteXLSX serialises the document as an OOXML spreadsheet.
func WriteXLSX(w io.Writer, doc Document) error {
	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	index, err := file.NewSheet(sheetName)
	if err != nil {
		return err
	}
	file.SetActiveSheet(index)
	if err := file.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	row := 1
	if err := setRow(file, row, []string{doc.Title}); err != nil {
		return err
	}
	row++
	if doc.RangeFrom != "" || doc.RangeTo != "" {
		if err := setRow(file, row, []string{fmt.Sprintf("Period: %s to %s", doc.RangeFrom, doc.RangeTo)}); err != nil {
			return err
		}
		row++
	}
	row++ // spacer before the table

	if err := setRow(file, row, doc.Columns); err != nil {
		return err
	}
	row++
	for _, record := range doc.Rows {
		if err := setRow(file, row, record); err != nil {
			return err
		}
		row++
	}

	if len(doc.Summary) > 0 {
		row++
		for _, item := range doc.Summary {
			if err := setRow(file, row, []string{item.Label, item.Value}); err != nil {
				return err
			}
			row++
		}
	}

	return file.Write(w)
}

func setRow(file *excelize.File, row int, values []string) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheetName, cell, value); err != nil {
			return err
		}
	}
	return nil
}
