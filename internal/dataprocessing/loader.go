package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"pmopulse/pkg/contracts/domain"
)

// overdueExempt lists statuses excluded from the overdue classification.
// Withdrawn and live projects have no outstanding delivery obligation.
var overdueExempt = []string{domain.StatusLive, domain.StatusWithdraw}

// SchemaError reports required register columns absent from an upload.
// Ingestion fails wholesale on a schema violation; no partial table is
// produced.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// Load parses a register CSV into a table. The header row must contain all
// canonical columns (exact match); extra columns are ignored. Row order is
// preserved and no rows are dropped. The today argument is the reference
// date for the overdue classification, passed explicitly so loads are
// deterministic under test.
func Load(r io.Reader, today time.Time) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &SchemaError{Missing: append([]string(nil), domain.CanonicalColumns...)}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	table := domain.Table{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table)+2, err)
		}
		table = append(table, decodeRow(rec, cols, today))
	}
	return table, nil
}

// mapColumns maps canonical column names to their positions in the header,
// returning a *SchemaError naming every absent column.
func mapColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		if _, ok := positions[h]; !ok {
			positions[h] = i
		}
	}

	cols := make(map[string]int, len(domain.CanonicalColumns))
	var missing []string
	for _, want := range domain.CanonicalColumns {
		i, ok := positions[want]
		if !ok {
			missing = append(missing, want)
			continue
		}
		cols[want] = i
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}
	return cols, nil
}

// decodeRow builds one project from a raw record and computes the derived
// fields. Short records are tolerated; cells past the end read as empty.
func decodeRow(rec []string, cols map[string]int, today time.Time) domain.Project {
	cell := func(col string) string {
		i := cols[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	p := domain.Project{
		ID:            cell(domain.ColID),
		Name:          cell(domain.ColName),
		Vendor:        optional(cell(domain.ColVendor)),
		Priority:      optional(cell(domain.ColPriority)),
		BusinessOwner: optional(cell(domain.ColBusinessOwner)),
		Objective:     optional(cell(domain.ColObjective)),
		CurrentStatus: optional(cell(domain.ColCurrentStatus)),
		Category:      optional(cell(domain.ColCategory)),
		Manager:       optional(cell(domain.ColManager)),
		Custodian:     optional(cell(domain.ColCustodian)),

		InitiationDate:   parseDate(cell(domain.ColInitiationDate)),
		TargetCompletion: parseDate(cell(domain.ColTargetCompletion)),
		RevisedTimeline:  parseDate(cell(domain.ColRevisedTimeline)),
	}

	derive(&p, today)
	return p
}

// derive computes PlannedEnd and Overdue in place.
func derive(p *domain.Project, today time.Time) {
	p.PlannedEnd = p.RevisedTimeline
	if p.PlannedEnd == nil {
		p.PlannedEnd = p.TargetCompletion
	}

	p.Overdue = false
	if p.PlannedEnd == nil {
		return
	}
	if !p.PlannedEnd.Before(midnight(today)) {
		return
	}
	if p.CurrentStatus != nil {
		for _, exempt := range overdueExempt {
			if *p.CurrentStatus == exempt {
				return
			}
		}
	}
	p.Overdue = true
}

// parseDate parses a register date cell. Empty or malformed cells become
// nil; a bad date is never an ingestion error.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// optional converts an empty cell to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// midnight truncates a timestamp to the start of its day in UTC, the
// timezone all register dates parse into.
func midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
