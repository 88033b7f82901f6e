// Package answer implements the answer synthesizer (C9): given a classified
// query and the rows the retrieval executor (C8) found, it computes the
// headline statistics a reader can trust (rule-based, deterministic) and
// hands them to a narrate.Narrator for prose, never letting the narrator
// invent a number that isn't already in the rows.
package answer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"floatchat/internal/classify"
	"floatchat/internal/narrate"
	"floatchat/internal/retrieve"
)

// Answer is the synthesizer's output: prose plus the structured payload the
// API layer (C10) serializes alongside it.
type Answer struct {
	Text    string
	Columns []string
	Rows    []map[string]any
	Stats   Stats
}

// Stats is the rule-computed, invention-proof summary of a result set.
type Stats struct {
	RowCount     int
	UniqueFloats int
	DepthBins    bool
	ParameterAvg map[string]float64
	ParameterMin map[string]float64
	ParameterMax map[string]float64
}

const maxSentences = 4

// Synthesize renders the final answer for intent/ent given result. For
// informational intents it never touches result (spec §4.9 "without
// touching data"). For data intents with no rows, it returns a fixed,
// filter-broadening suggestion instead of calling the narrator, so an empty
// result can never be dressed up as a finding.
func Synthesize(ctx context.Context, narrator narrate.Narrator, intent classify.Intent, ent classify.Entities, result retrieve.Result) (Answer, error) {
	if intent == classify.IntentInformational {
		text, err := narrator.Narrate(ctx, narrate.Request{
			Question:     ent.RawQuery,
			Intent:       "informational",
			MaxSentences: maxSentences,
		})
		if err != nil {
			return Answer{}, fmt.Errorf("narrate informational answer: %w", err)
		}
		return Answer{Text: text}, nil
	}

	stats := computeStats(result)
	if stats.RowCount == 0 {
		return Answer{
			Text:    emptyResultMessage(ent),
			Columns: result.Columns,
			Rows:    result.Rows,
			Stats:   stats,
		}, nil
	}

	headline := renderHeadlineStats(ent, stats)
	text, err := narrator.Narrate(ctx, narrate.Request{
		Question:      ent.RawQuery,
		Intent:        "data",
		RowCount:      stats.RowCount,
		HeadlineStats: headline,
		MaxSentences:  maxSentences,
	})
	if err != nil {
		return Answer{}, fmt.Errorf("narrate data answer: %w", err)
	}
	return Answer{
		Text:    text,
		Columns: result.Columns,
		Rows:    result.Rows,
		Stats:   stats,
	}, nil
}

func emptyResultMessage(ent classify.Entities) string {
	var sb strings.Builder
	sb.WriteString("No matching profiles were found")
	if len(ent.Regions) > 0 {
		fmt.Fprintf(&sb, " in %s", ent.Regions[0].Name)
	}
	if ent.TimeRange != nil {
		fmt.Fprintf(&sb, " for the requested time window")
	}
	sb.WriteString(". Try broadening the region, time range, or depth filter.")
	return sb.String()
}

// computeStats derives RowCount, unique float count, depth-bin presence,
// and per-parameter avg/min/max directly from result.Rows — every number
// the narrator is given originates here, never from the model.
func computeStats(result retrieve.Result) Stats {
	stats := Stats{
		RowCount:     len(result.Rows),
		ParameterAvg: map[string]float64{},
		ParameterMin: map[string]float64{},
		ParameterMax: map[string]float64{},
	}
	if stats.RowCount == 0 {
		return stats
	}

	floats := map[string]bool{}
	sums := map[string]float64{}
	counts := map[string]int{}
	mins := map[string]float64{}
	maxs := map[string]float64{}

	for _, row := range result.Rows {
		if fid, ok := row["float_id"].(string); ok {
			floats[fid] = true
		}
		if _, ok := row["depth_range"]; ok {
			stats.DepthBins = true
		}
		for _, param := range []string{"avg_temperature", "avg_salinity", "avg_pressure", "temperature", "salinity", "pressure"} {
			v, ok := asFloat(row[param])
			if !ok {
				continue
			}
			sums[param] += v
			counts[param]++
			if _, seen := mins[param]; !seen || v < mins[param] {
				mins[param] = v
			}
			if _, seen := maxs[param]; !seen || v > maxs[param] {
				maxs[param] = v
			}
		}
	}
	stats.UniqueFloats = len(floats)
	for param, c := range counts {
		stats.ParameterAvg[param] = sums[param] / float64(c)
		stats.ParameterMin[param] = mins[param]
		stats.ParameterMax[param] = maxs[param]
	}
	return stats
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// renderHeadlineStats turns Stats plus any region/time entities into the
// fixed-format sentence fragment the narrator is told to cite, so the model
// is constrained to numbers that are already computed.
func renderHeadlineStats(ent classify.Entities, stats Stats) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d rows", stats.RowCount))
	if stats.UniqueFloats > 0 {
		parts = append(parts, fmt.Sprintf("%d unique floats", stats.UniqueFloats))
	}
	if len(ent.Regions) > 0 {
		parts = append(parts, "region "+ent.Regions[0].Name)
	}
	if ent.TimeRange != nil {
		parts = append(parts, fmt.Sprintf("time range %s to %s",
			ent.TimeRange.Start.Format("2006-01-02"), ent.TimeRange.End.Format("2006-01-02")))
	}

	var paramNames []string
	for name := range stats.ParameterAvg {
		paramNames = append(paramNames, name)
	}
	sort.Strings(paramNames)
	for _, name := range paramNames {
		parts = append(parts, fmt.Sprintf("%s avg %.3f (range %.3f-%.3f)",
			name, round3(stats.ParameterAvg[name]), round3(stats.ParameterMin[name]), round3(stats.ParameterMax[name])))
	}
	if stats.DepthBins {
		parts = append(parts, "grouped by depth band")
	}
	return strings.Join(parts, "; ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
