package dataprocessing

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"pmopulse/pkg/contracts/domain"
)

// LoadWorkbook parses a register exported as an Excel workbook. The first
// sheet must carry the canonical header in its first row; semantics are
// otherwise identical to Load. Date cells already formatted by Excel are
// still expected in DD-Mon-YYYY text form, matching the register export.
func LoadWorkbook(r io.Reader, today time.Time) (domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: append([]string(nil), domain.CanonicalColumns...)}
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	table := domain.Table{}
	for _, rec := range rows[1:] {
		table = append(table, decodeRow(rec, cols, today))
	}
	return table, nil
}
