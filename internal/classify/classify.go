// Package classify turns a natural-language query into a fixed intent tag
// plus an entity bag, without touching the network or a database. The SQL
// synthesizer (internal/sqlgen) and retrieval executor (internal/retrieve)
// consume its output; this package knows nothing about either of them.
package classify

import (
	"regexp"
	"strings"
	"time"

	"floatchat/internal/gazetteer"
)

// Intent is one of a closed set of query intents.
type Intent string

const (
	IntentInformational    Intent = "informational"
	IntentFloatLookup      Intent = "float_lookup"
	IntentSpatial          Intent = "spatial"
	IntentTemporal         Intent = "temporal"
	IntentParameterProfile Intent = "parameter_profile"
	IntentSemantic         Intent = "semantic"
	IntentHybrid           Intent = "hybrid"
)

// TimeRange is a half-open [Start, End) interval. Either bound may be zero
// to mean "unbounded" on that side.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// DepthBounds restricts a query to a pressure range, in decibars.
type DepthBounds struct {
	MinMeters float64
	MaxMeters float64
	HasMin    bool
	HasMax    bool
}

// Entities is everything the classifier could pull out of the query text.
type Entities struct {
	RawQuery    string
	FloatIDs    []string
	Regions     []gazetteer.Region
	Parameters  []string // subset of {temperature, salinity, pressure}
	Depth       DepthBounds
	TimeRange   *TimeRange
	Institution string
}

// Classifier classifies queries against a fixed gazetteer.
type Classifier struct {
	gaz *gazetteer.Gazetteer
	now func() time.Time
}

// New builds a Classifier. now defaults to time.Now; tests inject a fixed
// clock so relative phrases like "last 6 months" are reproducible.
func New(gaz *gazetteer.Gazetteer, now func() time.Time) *Classifier {
	if gaz == nil {
		gaz = gazetteer.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{gaz: gaz, now: now}
}

var floatIDPattern = regexp.MustCompile(`\b\d{8,9}\b`)

var parameterKeywords = map[string][]string{
	"temperature": {"temperature", "temp", "warm", "cool", "thermal"},
	"salinity":    {"salinity", "saline", "salt"},
	"pressure":    {"pressure", "depth", "deep", "shallow"},
}

var institutionPattern = regexp.MustCompile(`(?i)\b(incois|aoml|coriolis|csiro|jma|bodc)\b`)

var semanticPhrases = []string{
	"similar to", "like the", "patterns", "anomal", "unusual", "resembl",
}

var informationalPhrases = []string{
	"what is", "what are", "explain", "how does", "how do", "define", "tell me about",
}

// Classify inspects query and returns its intent and extracted entities.
// It is a pure function of its inputs and the Classifier's gazetteer/clock.
func (c *Classifier) Classify(query string) (Intent, Entities) {
	lower := strings.ToLower(query)

	ent := Entities{
		RawQuery:   query,
		FloatIDs:   extractFloatIDs(query),
		Parameters: extractParameters(lower),
	}
	if region, ok := c.gaz.FindInText(query); ok {
		ent.Regions = append(ent.Regions, region)
	}
	if m := institutionPattern.FindString(query); m != "" {
		ent.Institution = strings.ToUpper(m)
	}
	if tr, ok := parseTimeRange(lower, c.now()); ok {
		ent.TimeRange = &tr
	}
	if db, ok := parseDepthBounds(lower); ok {
		ent.Depth = db
	}

	intent := c.classifyIntent(lower, ent)
	return intent, ent
}

func (c *Classifier) classifyIntent(lower string, ent Entities) Intent {
	hasFloat := len(ent.FloatIDs) > 0
	hasRegion := len(ent.Regions) > 0
	hasTime := ent.TimeRange != nil
	hasParams := len(ent.Parameters) > 0
	hasSemantic := containsAny(lower, semanticPhrases)

	signals := 0
	if hasFloat {
		signals++
	}
	if hasRegion {
		signals++
	}
	if hasTime {
		signals++
	}
	if hasParams {
		signals++
	}
	if hasSemantic {
		signals++
	}

	// Hybrid is reserved for queries that actually need semantic search
	// alongside a float ID, region, or time range; two structured signals on
	// their own (e.g. a region plus a parameter) resolve to the matching
	// SQL-only intent below instead. Parameter keywords inside a similarity
	// phrase ("deep-water patterns") leave the query semantic.
	if hasSemantic {
		if hasFloat || hasRegion || hasTime {
			return IntentHybrid
		}
		return IntentSemantic
	}
	if containsAny(lower, informationalPhrases) && signals == 0 {
		return IntentInformational
	}
	switch {
	case hasFloat:
		return IntentFloatLookup
	case hasParams:
		return IntentParameterProfile
	case hasRegion:
		return IntentSpatial
	case hasTime:
		return IntentTemporal
	case hasSemantic:
		return IntentSemantic
	default:
		return IntentInformational
	}
}

func extractFloatIDs(query string) []string {
	matches := floatIDPattern.FindAllString(query, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

func extractParameters(lower string) []string {
	var out []string
	for _, param := range []string{"temperature", "salinity", "pressure"} {
		for _, kw := range parameterKeywords[param] {
			if strings.Contains(lower, kw) {
				out = append(out, param)
				break
			}
		}
	}
	return out
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
