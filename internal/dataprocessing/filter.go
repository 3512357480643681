package dataprocessing

import (
	"sort"

	"pmopulse/pkg/contracts/domain"
)

// SelectAll is the sentinel value meaning "no restriction" for the
// single-value narrowing used by the overdue view.
const SelectAll = "All"

// Apply returns the rows satisfying every constrained field: AND across
// fields, OR within a field's selected value set. Rows with a nil value for
// a constrained field never match. Order is preserved.
func Apply(t domain.Table, sel domain.Selections) domain.Table {
	out := make(domain.Table, 0, len(t))
	for _, p := range t {
		if matches(&p, sel) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p *domain.Project, sel domain.Selections) bool {
	for field, allowed := range sel {
		if len(allowed) == 0 {
			continue
		}
		v := p.Value(field)
		if v == nil {
			return false
		}
		found := false
		for _, a := range allowed {
			if *v == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// OverdueSubset returns the overdue rows, order preserved.
func OverdueSubset(t domain.Table) domain.Table {
	out := make(domain.Table, 0)
	for _, p := range t {
		if p.Overdue {
			out = append(out, p)
		}
	}
	return out
}

// NarrowBy keeps rows whose field equals the single selected value. The
// empty string and the SelectAll sentinel impose no restriction.
func NarrowBy(t domain.Table, field domain.Field, value string) domain.Table {
	if value == "" || value == SelectAll {
		return t
	}
	out := make(domain.Table, 0, len(t))
	for _, p := range t {
		if v := p.Value(field); v != nil && *v == value {
			out = append(out, p)
		}
	}
	return out
}

// TimelineSlice returns the rows with both an initiation date and a planned
// end, sorted ascending by initiation date and truncated to limit rows.
// The limit is clamped to [0, min(50, eligible rows)] to bound rendering
// cost.
func TimelineSlice(t domain.Table, limit int) domain.Table {
	eligible := make(domain.Table, 0, len(t))
	for _, p := range t {
		if p.InitiationDate != nil && p.PlannedEnd != nil {
			eligible = append(eligible, p)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].InitiationDate.Before(*eligible[j].InitiationDate)
	})

	if limit < 0 {
		limit = 0
	}
	if limit > TimelineCap {
		limit = TimelineCap
	}
	if limit > len(eligible) {
		limit = len(eligible)
	}
	return eligible[:limit]
}

// TimelineCap bounds how many rows a timeline slice may return.
const TimelineCap = 50
