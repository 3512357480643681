package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"pmopulse/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize exported files as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// overdueColumns is the compact column set of the overdue downloads.
var overdueColumns = []string{
	domain.ColID,
	domain.ColName,
	domain.ColBusinessOwner,
	domain.ColManager,
	domain.ColTargetCompletion,
	domain.ColRevisedTimeline,
	domain.ColCurrentStatus,
}

// Options configures CSV rendering.
type Options struct {
	// BOMPrefix prepends a UTF-8 BOM for Excel compatibility.
	BOMPrefix bool
}

// WriteProjects writes a table as CSV restricted to the 13 canonical
// columns in canonical order, one row per project, input order preserved.
func WriteProjects(w io.Writer, table domain.Table, opts Options) error {
	return write(w, domain.CanonicalColumns, table, canonicalRecord, opts)
}

// WriteOverdue writes the compact overdue view of a table.
func WriteOverdue(w io.Writer, table domain.Table, opts Options) error {
	return write(w, overdueColumns, table, overdueRecord, opts)
}

// ProjectsCSV renders the canonical export to bytes.
func ProjectsCSV(table domain.Table, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteProjects(&buf, table, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OverdueCSV renders the overdue export to bytes.
func OverdueCSV(table domain.Table, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteOverdue(&buf, table, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(w io.Writer, headers []string, table domain.Table, record func(*domain.Project) []string, opts Options) error {
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}
	for i := range table {
		if err := cw.Write(record(&table[i])); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func canonicalRecord(p *domain.Project) []string {
	return []string{
		p.ID,
		p.Name,
		text(p.Vendor),
		text(p.Priority),
		text(p.BusinessOwner),
		dateText(p.InitiationDate),
		dateText(p.TargetCompletion),
		dateText(p.RevisedTimeline),
		text(p.Objective),
		text(p.CurrentStatus),
		text(p.Category),
		text(p.Manager),
		text(p.Custodian),
	}
}

func overdueRecord(p *domain.Project) []string {
	return []string{
		p.ID,
		p.Name,
		text(p.BusinessOwner),
		text(p.Manager),
		dateText(p.TargetCompletion),
		dateText(p.RevisedTimeline),
		text(p.CurrentStatus),
	}
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateText(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}
