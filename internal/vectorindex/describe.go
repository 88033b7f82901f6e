package vectorindex

import (
	"fmt"
	"strings"
	"time"
)

// ProfileSummary is the subset of profile fields needed to build the
// natural-language string that gets embedded for semantic search (spec
// §4 "a short descriptive sentence capturing float, place, and time").
type ProfileSummary struct {
	FloatID     string
	CycleNumber int
	Latitude    *float64
	Longitude   *float64
	Datetime    *time.Time
	Region      string // optional gazetteer-resolved region name
}

// Describe renders a ProfileSummary into the text that gets embedded and
// indexed. Keeping this in one place ensures ingestion-time embedding and
// any future re-embedding produce identical input for the same profile.
func Describe(p ProfileSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Argo float %s, cycle %d", p.FloatID, p.CycleNumber)
	if p.Latitude != nil && p.Longitude != nil {
		fmt.Fprintf(&b, ", at %.3f, %.3f", *p.Latitude, *p.Longitude)
	}
	if p.Region != "" {
		fmt.Fprintf(&b, " in the %s", p.Region)
	}
	if p.Datetime != nil {
		fmt.Fprintf(&b, ", recorded %s", p.Datetime.Format("2006-01-02"))
	}
	b.WriteString(".")
	return b.String()
}
