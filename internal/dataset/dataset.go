package dataset

import (
	"sort"
	"strings"
)

// Record is one row of a dataset: field name to value. Values are float64,
// string, time.Time, bool or nil; loaders never produce other Go types.
type Record map[string]any

// Dataset is an ordered set of records plus the field order observed while
// loading. Records may carry different keys; Columns is their ordered union.
type Dataset struct {
	Name    string
	Columns []string
	Rows    []Record
	// Total counts rows seen in the source, which may exceed len(Rows) when
	// the loader was capped by MaxRows.
	Total int
}

// FromRows builds a Dataset from bare records. Columns are collected in order
// of first appearance; keys within a single record are visited sorted so the
// result does not depend on map iteration order.
func FromRows(rows []Record) *Dataset {
	seen := map[string]struct{}{}
	var cols []string
	for _, r := range rows {
		keys := make([]string, 0, len(r))
		for k := range r {
			if _, ok := seen[k]; ok {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = struct{}{}
			cols = append(cols, k)
		}
	}
	return &Dataset{Columns: cols, Rows: rows, Total: len(rows)}
}

// Len returns the number of loaded rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasColumn reports whether name is a known column (case-sensitive).
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// IsNull reports whether v should be skipped by samplers: nil, or a string
// that is blank after trimming.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
