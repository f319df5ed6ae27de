package regions

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var regionsYAML []byte

type province struct {
	Name      string   `yaml:"province"`
	Districts []string `yaml:"districts"`
}

// Catalog is the fixed two-level list of provinces and their districts.
// Order of the source file is the display order.
type Catalog struct {
	provinces  []province
	provinceOf map[string]string
}

func NewCatalog() (*Catalog, error) {
	return parse(regionsYAML)
}

// MustCatalog panics if the embedded catalog is broken.
func MustCatalog() *Catalog {
	c, err := NewCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func parse(data []byte) (*Catalog, error) {
	var list []province
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse regions: %w", err)
	}

	c := &Catalog{
		provinces:  list,
		provinceOf: make(map[string]string),
	}
	for _, p := range list {
		for _, d := range p.Districts {
			if prev, ok := c.provinceOf[d]; ok {
				return nil, fmt.Errorf("district %q listed under both %q and %q", d, prev, p.Name)
			}
			c.provinceOf[d] = p.Name
		}
	}

	return c, nil
}

func (c *Catalog) Provinces() []string {
	names := make([]string, 0, len(c.provinces))
	for _, p := range c.provinces {
		names = append(names, p.Name)
	}
	return names
}

// Districts returns the districts of a province, or nil for an unknown province.
func (c *Catalog) Districts(provinceName string) []string {
	for _, p := range c.provinces {
		if p.Name == provinceName {
			return slices.Clone(p.Districts)
		}
	}
	return nil
}

// IsValid reports whether region is a known district or province.
func (c *Catalog) IsValid(region string) bool {
	if _, ok := c.provinceOf[region]; ok {
		return true
	}
	return slices.Contains(c.Provinces(), region)
}

func (c *Catalog) ProvinceOf(district string) (string, bool) {
	p, ok := c.provinceOf[district]
	return p, ok
}
