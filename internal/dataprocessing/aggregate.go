package dataprocessing

import (
	"sort"

	"pmopulse/pkg/contracts/domain"
)

// KPISummary holds the headline counters shown above the dashboard charts.
type KPISummary struct {
	Total     int `json:"total"`
	Live      int `json:"live"`
	OnHold    int `json:"on_hold"`
	Withdrawn int `json:"withdrawn"`
	Overdue   int `json:"overdue"`
}

// Summarize computes the KPI counters for a table.
func Summarize(t domain.Table) KPISummary {
	s := KPISummary{Total: len(t)}
	for _, p := range t {
		if p.CurrentStatus != nil {
			switch *p.CurrentStatus {
			case domain.StatusLive:
				s.Live++
			case domain.StatusOnHold:
				s.OnHold++
			case domain.StatusWithdraw:
				s.Withdrawn++
			}
		}
		if p.Overdue {
			s.Overdue++
		}
	}
	return s
}

// CountBy returns the distribution of a categorical field, sorted by
// descending count with ties broken by first appearance in the table. Rows
// with a nil value are omitted.
func CountBy(t domain.Table, field domain.Field) []domain.ValueCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, p := range t {
		v := p.Value(field)
		if v == nil {
			continue
		}
		if _, seen := counts[*v]; !seen {
			firstSeen[*v] = i
		}
		counts[*v]++
	}

	out := make([]domain.ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, domain.ValueCount{Value: value, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Value] < firstSeen[out[j].Value]
	})
	return out
}

// TopN truncates CountBy to the first n entries. A non-positive n yields an
// empty distribution.
func TopN(t domain.Table, field domain.Field, n int) []domain.ValueCount {
	counts := CountBy(t, field)
	if n < 0 {
		n = 0
	}
	if n > len(counts) {
		n = len(counts)
	}
	return counts[:n]
}
