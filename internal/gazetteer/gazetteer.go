// Package gazetteer resolves named ocean regions to bounding boxes, so the
// intent classifier (C6) can turn a phrase like "Arabian Sea" into a
// spatial filter the SQL synthesizer (C7) can use.
package gazetteer

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Region is one named area with its bounding box.
type Region struct {
	Name    string   `yaml:"name"`
	MinLat  float64  `yaml:"minLat"`
	MaxLat  float64  `yaml:"maxLat"`
	MinLon  float64  `yaml:"minLon"`
	MaxLon  float64  `yaml:"maxLon"`
	Aliases []string `yaml:"aliases"`
}

// Gazetteer is a lookup table from region name/alias to its bounding box.
type Gazetteer struct {
	regions []Region
	byName  map[string]*Region
}

// Default returns the built-in gazetteer covering the ocean basins and seas
// FloatChat's example queries reference, used when no gazetteer file is
// configured.
func Default() *Gazetteer {
	return build([]Region{
		{Name: "Arabian Sea", MinLat: 8, MaxLat: 25, MinLon: 50, MaxLon: 78},
		{Name: "Bay of Bengal", MinLat: 5, MaxLat: 23, MinLon: 78, MaxLon: 100},
		{Name: "Indian Ocean", MinLat: -60, MaxLat: 30, MinLon: 20, MaxLon: 147},
		{Name: "Equatorial Pacific", MinLat: -10, MaxLat: 10, MinLon: 120, MaxLon: -80, Aliases: []string{"equatorial pacific ocean"}},
		{Name: "North Atlantic", MinLat: 0, MaxLat: 70, MinLon: -80, MaxLon: 0},
		{Name: "South Atlantic", MinLat: -60, MaxLat: 0, MinLon: -70, MaxLon: 20},
		{Name: "Southern Ocean", MinLat: -90, MaxLat: -60, MinLon: -180, MaxLon: 180},
		{Name: "Red Sea", MinLat: 12, MaxLat: 30, MinLon: 32, MaxLon: 44},
		{Name: "Mediterranean Sea", MinLat: 30, MaxLat: 46, MinLon: -6, MaxLon: 36},
	})
}

// Load reads a YAML file of regions, falling back to Default() if path is
// empty.
func Load(path string) (*Gazetteer, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Regions []Region `yaml:"regions"`
	}
	if err := yaml.Unmarshal(b, &parsed); err != nil {
		return nil, err
	}
	return build(parsed.Regions), nil
}

func build(regions []Region) *Gazetteer {
	g := &Gazetteer{regions: regions, byName: make(map[string]*Region)}
	for i := range regions {
		r := &regions[i]
		g.byName[normalize(r.Name)] = r
		for _, alias := range r.Aliases {
			g.byName[normalize(alias)] = r
		}
	}
	return g
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Lookup returns the region matching name (case-insensitive, alias-aware).
func (g *Gazetteer) Lookup(name string) (Region, bool) {
	r, ok := g.byName[normalize(name)]
	if !ok {
		return Region{}, false
	}
	return *r, true
}

// FindInText scans text for the first region name or alias it mentions,
// longest match first so "Bay of Bengal" wins over a shorter false match.
func (g *Gazetteer) FindInText(text string) (Region, bool) {
	lower := normalize(text)
	var best *Region
	bestLen := 0
	for key, r := range g.byName {
		if strings.Contains(lower, key) && len(key) > bestLen {
			best = r
			bestLen = len(key)
		}
	}
	if best == nil {
		return Region{}, false
	}
	return *best, true
}

// All returns every configured region.
func (g *Gazetteer) All() []Region { return g.regions }
