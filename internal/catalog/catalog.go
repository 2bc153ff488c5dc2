// Package catalog provides the immutable success-criteria reference data:
// the criteria themselves, the edition profiles that select subsets of
// them, and the audit-rule-to-criterion map. The data is embedded at build
// time and loaded once; a Catalog is safe for concurrent use.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/s4cindia/conformance-engine/internal/model"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

// SuccessCriterion is one testable accessibility requirement.
type SuccessCriterion struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Level    string `yaml:"level"`
	Category string `yaml:"-"`
}

// Edition is a named regulatory profile selecting required criteria levels.
type Edition struct {
	Code   string   `yaml:"code"`
	Name   string   `yaml:"name"`
	Levels []string `yaml:"levels"`
}

// Catalog holds the loaded reference data.
type Catalog struct {
	criteria map[string]SuccessCriterion
	ordered  []SuccessCriterion
	editions map[string]Edition
	ruleMap  map[string][]string
}

type catalogFile struct {
	Criteria []SuccessCriterion  `yaml:"criteria"`
	Editions []Edition           `yaml:"editions"`
	Rules    map[string][]string `yaml:"rules"`
}

// Load parses the embedded catalog data.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog data: %w", err)
	}
	if len(file.Criteria) == 0 {
		return nil, fmt.Errorf("catalog data contains no criteria")
	}

	c := &Catalog{
		criteria: make(map[string]SuccessCriterion, len(file.Criteria)),
		editions: make(map[string]Edition, len(file.Editions)),
		ruleMap:  file.Rules,
	}
	for _, sc := range file.Criteria {
		sc.Category = categoryOf(sc.ID)
		c.criteria[sc.ID] = sc
		c.ordered = append(c.ordered, sc)
	}
	sort.Slice(c.ordered, func(i, j int) bool {
		return lessCriterionID(c.ordered[i].ID, c.ordered[j].ID)
	})
	for _, e := range file.Editions {
		c.editions[e.Code] = e
	}
	return c, nil
}

// categoryOf derives the WCAG principle from the leading digit of a
// criterion id.
func categoryOf(id string) string {
	switch {
	case strings.HasPrefix(id, "1."):
		return "perceivable"
	case strings.HasPrefix(id, "2."):
		return "operable"
	case strings.HasPrefix(id, "3."):
		return "understandable"
	case strings.HasPrefix(id, "4."):
		return "robust"
	default:
		return "unknown"
	}
}

// lessCriterionID orders dotted numeric ids numerically per segment, so
// "1.4.10" sorts after "1.4.3".
func lessCriterionID(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}

// Criterion returns the criterion with the given id.
func (c *Catalog) Criterion(id string) (SuccessCriterion, bool) {
	sc, ok := c.criteria[id]
	return sc, ok
}

// All returns every criterion in catalog order.
func (c *Catalog) All() []SuccessCriterion {
	out := make([]SuccessCriterion, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Edition returns the edition profile with the given code.
func (c *Catalog) Edition(code string) (Edition, bool) {
	e, ok := c.editions[code]
	return e, ok
}

// EditionCriteria returns the criteria subset an edition requires, in
// catalog order. Unknown edition codes return model.ErrNotFound.
func (c *Catalog) EditionCriteria(code string) ([]SuccessCriterion, error) {
	e, ok := c.editions[code]
	if !ok {
		return nil, fmt.Errorf("edition %q: %w", code, model.ErrNotFound)
	}
	levels := make(map[string]struct{}, len(e.Levels))
	for _, l := range e.Levels {
		levels[l] = struct{}{}
	}
	var subset []SuccessCriterion
	for _, sc := range c.ordered {
		if _, ok := levels[sc.Level]; ok {
			subset = append(subset, sc)
		}
	}
	return subset, nil
}

// MapRule returns the criterion ids an audit rule code maps to. A rule may
// map to several criteria; an unmapped rule returns nil.
func (c *Catalog) MapRule(ruleCode string) []string {
	return c.ruleMap[ruleCode]
}

// UnmappedRules returns the distinct rule codes from issues that have no
// criterion mapping and no explicit criterion tags, in first-seen order.
func (c *Catalog) UnmappedRules(issues []model.Issue) []string {
	seen := make(map[string]struct{})
	var unmapped []string
	for _, issue := range issues {
		if len(issue.CriterionTags) > 0 {
			continue
		}
		if len(c.ruleMap[issue.RuleCode]) > 0 {
			continue
		}
		if _, dup := seen[issue.RuleCode]; dup {
			continue
		}
		seen[issue.RuleCode] = struct{}{}
		unmapped = append(unmapped, issue.RuleCode)
	}
	return unmapped
}
