package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// PopularTerm labels channels resolved from the popular channel list.
const PopularTerm = "popular"

type Family struct {
	Name       string   `yaml:"name"`
	Keywords   []string `yaml:"keywords"`
	Categories []string `yaml:"categories"`
}

type Catalog struct {
	Terms             []string `yaml:"terms"`
	Modifiers         []string `yaml:"modifiers"`
	PopularChannels   []string `yaml:"popular_channels"`
	Families          []Family `yaml:"families"`
	DefaultCategories []string `yaml:"default_categories"`
}

// Load reads the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(embedded)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	for i := range c.Families {
		for j, kw := range c.Families[i].Keywords {
			c.Families[i].Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Terms) == 0 && len(c.PopularChannels) == 0 {
		return errors.New("catalog: no terms or popular channels")
	}
	if len(c.DefaultCategories) == 0 {
		return errors.New("catalog: default_categories is required")
	}
	for _, f := range c.Families {
		if len(f.Keywords) == 0 || len(f.Categories) == 0 {
			return fmt.Errorf("catalog: family %q needs keywords and categories", f.Name)
		}
	}
	return nil
}

// SelectTerms picks n distinct terms at random. With decorate set, each term
// has an even chance of being prefixed with a modifier.
func (c *Catalog) SelectTerms(rng *rand.Rand, n int, decorate bool) []string {
	n = min(n, len(c.Terms))
	terms := make([]string, 0, n)
	for _, i := range rng.Perm(len(c.Terms))[:n] {
		term := c.Terms[i]
		if decorate && len(c.Modifiers) > 0 && rng.Intn(2) == 0 {
			term = c.Modifiers[rng.Intn(len(c.Modifiers))] + " " + term
		}
		terms = append(terms, term)
	}
	return terms
}

// Match returns the categories of the first family whose keyword appears in
// term.
func (c *Catalog) Match(term string) ([]string, bool) {
	lower := strings.ToLower(term)
	for _, f := range c.Families {
		for _, kw := range f.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return slices.Clone(f.Categories), true
			}
		}
	}
	return nil, false
}

// Categorize is Match with the default categories as fallback.
func (c *Catalog) Categorize(term string) []string {
	if cats, ok := c.Match(term); ok {
		return cats
	}
	return slices.Clone(c.DefaultCategories)
}
