package bank

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet is one worksheet decoded into a header row plus string cells.
// Rows may be shorter than Header when trailing cells are blank.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// ParseWorkbook decodes an xlsx workbook into its sheets, preserving the
// workbook's sheet order. Sheets without a header row come back empty and
// are rejected later by normalization.
func ParseWorkbook(data []byte) ([]Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sh := Sheet{Name: name}
		if len(rows) > 0 {
			sh.Header = rows[0]
			sh.Rows = rows[1:]
		}
		sheets = append(sheets, sh)
	}
	return sheets, nil
}
