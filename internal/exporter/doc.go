// Package exporter serializes project tables back to CSV for download:
// the full filtered table restricted to the canonical columns, and the
// compact overdue view. Exports re-serialize dates in the register's
// DD-Mon-YYYY layout so an export re-ingests to the same row values.
package exporter
