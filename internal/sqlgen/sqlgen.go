// Package sqlgen translates a classified intent and its entities into a
// parameterized SELECT statement against the argo_profiles/argo_measurements
// schema. It never concatenates user input into SQL text — every dynamic
// value becomes a positional argument, and every identifier it emits is
// checked against internal/store's whitelist before being handed back.
package sqlgen

import (
	"fmt"
	"strings"

	"floatchat/internal/classify"
	"floatchat/internal/store"
)

// DefaultRowLimit bounds raw (non-aggregated) point-lookup queries.
const DefaultRowLimit = 500

// DefaultDepthBinMeters is the bin width used for depth-banded aggregation,
// matching the 50 m bins the original coverage maps use up to 2000 m.
const DefaultDepthBinMeters = 50.0

// Options tunes synthesis behavior; callers normally use the zero value and
// let defaults apply.
type Options struct {
	RowLimit       int
	DepthBinMeters float64
}

func (o Options) withDefaults() Options {
	if o.RowLimit <= 0 {
		o.RowLimit = DefaultRowLimit
	}
	if o.DepthBinMeters <= 0 {
		o.DepthBinMeters = DefaultDepthBinMeters
	}
	return o
}

// analyticalIntents synthesize a depth-banded aggregate rather than raw rows.
var analyticalIntents = map[classify.Intent]bool{
	classify.IntentSpatial:          true,
	classify.IntentTemporal:         true,
	classify.IntentParameterProfile: true,
}

// Synthesize builds the SELECT statement for intent/entities. candidateIDs,
// when non-empty, narrows the statement to those global_profile_ids — the
// hybrid retrieval path (C8) supplies this after a vector search.
func Synthesize(intent classify.Intent, ent classify.Entities, candidateIDs []int64, opts Options) (store.Statement, error) {
	opts = opts.withDefaults()

	switch intent {
	case classify.IntentInformational, classify.IntentSemantic:
		return store.Statement{}, fmt.Errorf("intent %q does not synthesize SQL", intent)
	}

	if analyticalIntents[intent] && len(ent.Parameters) > 0 {
		return synthesizeAggregate(ent, candidateIDs, opts)
	}
	return synthesizeRaw(ent, candidateIDs, opts)
}

type builder struct {
	b    strings.Builder
	args []any
}

func (b *builder) param(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *builder) writeString(s string) { b.b.WriteString(s) }

// whereClause appends every predicate implied by ent to b, returning the
// joined "WHERE ..." fragment (empty string if ent carries no filters).
// profileAlias qualifies profile-table columns (float_id, latitude,
// longitude, datetime, global_profile_id); pressureAlias qualifies the
// depth bound, which lives on argo_measurements in the aggregate form and
// is not applicable at all in the raw (profile-only) form.
func whereClause(b *builder, ent classify.Entities, candidateIDs []int64, profileAlias, pressureAlias string) string {
	pcol := func(name string) string {
		if profileAlias == "" {
			return name
		}
		return profileAlias + "." + name
	}

	var clauses []string
	if len(ent.FloatIDs) > 0 {
		placeholders := make([]string, len(ent.FloatIDs))
		for i, id := range ent.FloatIDs {
			placeholders[i] = b.param(id)
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", pcol("float_id"), strings.Join(placeholders, ", ")))
	}
	if len(ent.Regions) > 0 {
		r := ent.Regions[0]
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN %s AND %s", pcol("latitude"), b.param(r.MinLat), b.param(r.MaxLat)))
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN %s AND %s", pcol("longitude"), b.param(r.MinLon), b.param(r.MaxLon)))
	}
	if ent.TimeRange != nil {
		clauses = append(clauses, fmt.Sprintf("%s >= %s", pcol("datetime"), b.param(ent.TimeRange.Start)))
		clauses = append(clauses, fmt.Sprintf("%s < %s", pcol("datetime"), b.param(ent.TimeRange.End)))
	}
	if pressureAlias != "" {
		pressure := pressureAlias + ".pressure"
		if ent.Depth.HasMin {
			clauses = append(clauses, fmt.Sprintf("%s >= %s", pressure, b.param(ent.Depth.MinMeters)))
		}
		if ent.Depth.HasMax {
			clauses = append(clauses, fmt.Sprintf("%s <= %s", pressure, b.param(ent.Depth.MaxMeters)))
		}
		// Averages must exclude bad/missing readings (Argo QC convention: 4=bad, 9=missing).
		clauses = append(clauses, fmt.Sprintf("%s.qc_flag NOT IN (4, 9)", pressureAlias))
	}
	if len(candidateIDs) > 0 {
		placeholders := make([]string, len(candidateIDs))
		for i, id := range candidateIDs {
			placeholders[i] = b.param(id)
		}
		clauses = append(clauses, fmt.Sprintf("%s IN (%s)", pcol("global_profile_id"), strings.Join(placeholders, ", ")))
	}

	if len(clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(clauses, " AND ")
}

// synthesizeRaw builds a LIMIT-bounded point-lookup statement over
// argo_profiles.
func synthesizeRaw(ent classify.Entities, candidateIDs []int64, opts Options) (store.Statement, error) {
	columns := []string{"global_profile_id", "float_id", "cycle_number", "latitude", "longitude", "datetime", "measurement_count"}
	if err := store.ValidateIdentifiers([]string{"argo_profiles"}, columns); err != nil {
		return store.Statement{}, err
	}

	b := &builder{}
	b.writeString("SELECT " + strings.Join(columns, ", ") + " FROM argo_profiles ")
	where := whereClause(b, ent, candidateIDs, "", "")
	if where != "" {
		b.writeString(where + " ")
	}
	b.writeString("ORDER BY datetime DESC LIMIT " + b.param(opts.RowLimit))

	return store.Statement{Text: b.b.String(), Args: b.args}, nil
}

// synthesizeAggregate builds a depth-banded GROUP BY over
// argo_profiles JOIN argo_measurements, one row per (bin, parameter stats).
func synthesizeAggregate(ent classify.Entities, candidateIDs []int64, opts Options) (store.Statement, error) {
	tables := []string{"argo_profiles", "argo_measurements"}
	columns := []string{"global_profile_id", "pressure", "temperature", "salinity", "latitude", "longitude", "datetime", "float_id", "qc_flag"}
	if err := store.ValidateIdentifiers(tables, columns); err != nil {
		return store.Statement{}, err
	}

	b := &builder{}
	b.writeString("SELECT floor(m.pressure / ")
	binWidth := b.param(opts.DepthBinMeters)
	b.writeString(binWidth + ") * " + binWidth + " AS depth_range, ")
	b.writeString("avg(m.temperature) AS avg_temperature, min(m.temperature) AS min_temperature, max(m.temperature) AS max_temperature, ")
	b.writeString("count(*) AS measurement_count ")
	b.writeString("FROM argo_measurements m JOIN argo_profiles p ON p.global_profile_id = m.global_profile_id ")

	where := whereClause(b, ent, candidateIDs, "p", "m")
	if where != "" {
		b.writeString(where + " ")
	}
	b.writeString("GROUP BY depth_range ORDER BY depth_range")

	return store.Statement{Text: b.b.String(), Args: b.args}, nil
}
