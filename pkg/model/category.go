// pkg/model/category.go
package model

import (
	"fmt"
	"sort"
)

// Domain is a closed, enumerated set of category levels
type Domain struct {
	levels  []string
	codes   map[string]int
	ordered bool
}

// NewDomain builds a domain from levels in the given order.
// ordered marks the order as meaningful (e.g. age groups).
func NewDomain(levels []string, ordered bool) (*Domain, error) {
	d := &Domain{
		levels:  make([]string, 0, len(levels)),
		codes:   make(map[string]int, len(levels)),
		ordered: ordered,
	}

	for _, level := range levels {
		if _, exists := d.codes[level]; exists {
			return nil, fmt.Errorf("duplicate category level %q", level)
		}
		d.codes[level] = len(d.levels)
		d.levels = append(d.levels, level)
	}

	return d, nil
}

// ObservedDomain builds an unordered domain from the distinct values seen,
// with levels sorted lexicographically
func ObservedDomain(values []string) *Domain {
	seen := make(map[string]struct{}, len(values))
	levels := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		levels = append(levels, v)
	}
	sort.Strings(levels)

	d, _ := NewDomain(levels, false) // levels are distinct
	return d
}

// Levels returns a copy of the levels in code order
func (d *Domain) Levels() []string {
	out := make([]string, len(d.levels))
	copy(out, d.levels)
	return out
}

// Len returns the number of levels
func (d *Domain) Len() int {
	return len(d.levels)
}

// Ordered reports whether level order is meaningful
func (d *Domain) Ordered() bool {
	return d.ordered
}

// Category returns the category for a level, or false if the level is outside the domain
func (d *Domain) Category(level string) (Category, bool) {
	code, ok := d.codes[level]
	if !ok {
		return Category{}, false
	}
	return Category{code: code, domain: d}, true
}

// At returns the category with the given code
func (d *Domain) At(code int) Category {
	return Category{code: code, domain: d}
}

// Contains reports whether level is a member of the domain
func (d *Domain) Contains(level string) bool {
	_, ok := d.codes[level]
	return ok
}

// MaxLevelLength returns the byte length of the longest level
func (d *Domain) MaxLevelLength() int {
	longest := 0
	for _, level := range d.levels {
		if len(level) > longest {
			longest = len(level)
		}
	}
	return longest
}

// Category is an interned member of a Domain
type Category struct {
	code   int
	domain *Domain
}

// Code returns the position of the level in its domain
func (c Category) Code() int {
	return c.code
}

// Domain returns the domain the category belongs to
func (c Category) Domain() *Domain {
	return c.domain
}

// String returns the level text
func (c Category) String() string {
	if c.domain == nil || c.code < 0 || c.code >= len(c.domain.levels) {
		return ""
	}
	return c.domain.levels[c.code]
}
