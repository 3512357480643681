// Package dataprocessing implements the register ingestion pipeline and the
// filter/aggregation engine on top of it.
//
// Ingestion (Load, LoadWorkbook) turns raw CSV or Excel content into a
// domain.Table: required columns are validated up front, the three date
// columns are parsed under the fixed DD-Mon-YYYY layout, and the derived
// planned-end date and overdue flag are computed against an explicit
// reference date. Individual bad date cells become nil, never errors; a
// missing required column fails the whole load with *SchemaError.
//
// The engine functions (Apply, CountBy, TopN, OverdueSubset, TimelineSlice,
// Summarize) are pure: they derive read-only views from a table and a set of
// selections without mutating their inputs.
package dataprocessing
