package kit

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

// Solid is the pattern sentinel meaning "no pattern texture".
const Solid = "solid"

// Pattern describes how a named pattern texture is fetched and tiled.
type Pattern struct {
	Name    string  `yaml:"name"`
	Ext     string  `yaml:"ext"`
	RepeatU float64 `yaml:"repeat_u"`
	RepeatV float64 `yaml:"repeat_v"`
}

// Path returns the asset path of the pattern image.
func (p Pattern) Path() string {
	return "textures/" + p.Name + "." + p.Ext
}

// Catalog is the set of known patterns keyed by name.
type Catalog map[string]Pattern

// DefaultCatalog returns the built-in patterns, each tiled 2x2.
func DefaultCatalog() Catalog {
	c := Catalog{}
	for _, name := range []string{"stripes", "gradient", "diamonds", "abstract", "diagonal lines"} {
		c[name] = Pattern{Name: name, Ext: "png", RepeatU: 2, RepeatV: 2}
	}
	return c
}

// LoadCatalog reads a YAML list of patterns and merges it over the defaults.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML of the form:
//
//	patterns:
//	  - name: stripes
//	    ext: png
//	    repeat_u: 4
//	    repeat_v: 4
func ParseCatalog(data []byte) (Catalog, error) {
	var doc struct {
		Patterns []Pattern `yaml:"patterns"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse pattern catalog: %w", err)
	}
	c := DefaultCatalog()
	for _, p := range doc.Patterns {
		if p.Name == "" || p.Name == Solid {
			return nil, fmt.Errorf("parse pattern catalog: invalid pattern name %q", p.Name)
		}
		if p.Ext == "" {
			p.Ext = "png"
		}
		if p.RepeatU <= 0 {
			p.RepeatU = 2
		}
		if p.RepeatV <= 0 {
			p.RepeatV = 2
		}
		c[p.Name] = p
	}
	return c, nil
}

// Lookup returns the pattern for name. Uncatalogued names resolve to a PNG
// with the default tiling so the texture loader can still fetch them, but
// Customization.Validate rejects any pattern that Known does not report.
func (c Catalog) Lookup(name string) Pattern {
	if p, ok := c[name]; ok {
		return p
	}
	return Pattern{Name: name, Ext: "png", RepeatU: 2, RepeatV: 2}
}

// Known reports whether name is Solid or a catalog entry.
func (c Catalog) Known(name string) bool {
	if name == Solid {
		return true
	}
	_, ok := c[name]
	return ok
}

// Names returns the sorted pattern names including Solid.
func (c Catalog) Names() []string {
	names := []string{Solid}
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names[1:])
	return names
}
