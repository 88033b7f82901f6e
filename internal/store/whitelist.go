package store

import "fmt"

// allowedTables and allowedColumns are the closed set of identifiers the SQL
// synthesizer (C7) may reference. ValidateIdentifiers checks the tables and
// columns the synthesizer declares against this set, so a future bug in the synthesizer cannot widen the surface
// an untrusted query can touch (spec §4.3, §7 "never trust the synthesizer
// output unconditionally").
var allowedTables = map[string]bool{
	"argo_profiles":     true,
	"argo_measurements": true,
}

var allowedColumns = map[string]bool{
	"global_profile_id":       true,
	"float_id":                true,
	"cycle_number":            true,
	"latitude":                true,
	"longitude":               true,
	"datetime":                true,
	"measurement_count":       true,
	"source_file_fingerprint": true,
	"natural_key":             true,
	"level":                   true,
	"pressure":                true,
	"temperature":             true,
	"salinity":                true,
	"qc_flag":                 true,
}

// IsAllowedTable reports whether name is a queryable table.
func IsAllowedTable(name string) bool { return allowedTables[name] }

// IsAllowedColumn reports whether name is a queryable column.
func IsAllowedColumn(name string) bool { return allowedColumns[name] }

// ValidateIdentifiers checks every table/column the synthesizer claims to
// reference against the whitelist, returning the first violation found.
func ValidateIdentifiers(tables, columns []string) error {
	for _, t := range tables {
		if !IsAllowedTable(t) {
			return fmt.Errorf("table %q is not in the query whitelist", t)
		}
	}
	for _, c := range columns {
		if !IsAllowedColumn(c) {
			return fmt.Errorf("column %q is not in the query whitelist", c)
		}
	}
	return nil
}
