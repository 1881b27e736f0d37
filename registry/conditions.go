// Package registry builds the condition classifier and property resolver
// the engine consumes out of configuration.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"atomcss/atomic"
	"atomcss/config"
	"atomcss/css"
)

// Conditions classifies style keys as conditions. It is immutable after
// construction.
type Conditions struct {
	base  string
	table map[string]atomic.Condition
}

// NewConditions builds a classifier from configuration. Every problem found
// is reported, not only the first one.
func NewConditions(cfg *config.ConditionsConfig) (*Conditions, error) {
	c := &Conditions{
		base:  cfg.Base,
		table: make(map[string]atomic.Condition),
	}

	var err error
	if c.base == "" {
		err = multierr.Append(err, fmt.Errorf("base condition name is empty"))
	}

	// precedence on name clashes: breakpoint, pseudo-class, color mode, direction
	groups := []struct {
		kind    atomic.ConditionKind
		entries map[string]string
		check   func(string) error
	}{
		{atomic.Breakpoint, cfg.Breakpoints, css.CheckAtRule},
		{atomic.PseudoClass, cfg.PseudoClasses, checkPseudo},
		{atomic.ColorMode, cfg.ColorModes, checkAttribute},
		{atomic.Direction, cfg.Directions, checkAttribute},
	}
	for _, g := range groups {
		for _, name := range sortedKeys(g.entries) {
			fragment := g.entries[name]
			if !utf8.ValidString(name) {
				err = multierr.Append(err, fmt.Errorf("%s %q: %w", g.kind, name, atomic.ErrInvalidUTF8))
				continue
			}
			if name == c.base {
				err = multierr.Append(err, fmt.Errorf("%s %q clashes with base condition name", g.kind, name))
				continue
			}
			if e := g.check(fragment); e != nil {
				err = multierr.Append(err, fmt.Errorf("%s %q: %w", g.kind, name, e))
				continue
			}
			if prev, exists := c.table[name]; exists {
				err = multierr.Append(err, fmt.Errorf("%s %q is already defined as %s", g.kind, name, prev.Kind))
				continue
			}
			c.table[name] = atomic.Condition{Kind: g.kind, Name: name, Fragment: fragment}
		}
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Classify implements atomic.ConditionClassifier.
func (c *Conditions) Classify(key string) (atomic.Condition, bool) {
	if key == c.base {
		return atomic.Condition{Kind: atomic.Breakpoint, Name: key, Base: true}, true
	}
	cond, ok := c.table[key]
	return cond, ok
}

// Names returns all condition names (base first) in natural order.
func (c *Conditions) Names() []string {
	names := make([]string, 0, len(c.table))
	for name := range c.table {
		names = append(names, name)
	}
	naturalSort(names)
	return append([]string{c.base}, names...)
}

func checkPseudo(fragment string) error {
	if !strings.HasPrefix(fragment, ":") {
		return fmt.Errorf("pseudo-class %q must start with ':'", fragment)
	}
	return css.CheckSelector(".x" + fragment)
}

func checkAttribute(fragment string) error {
	if !strings.HasPrefix(fragment, "[") || !strings.HasSuffix(fragment, "]") {
		return fmt.Errorf("attribute selector %q must be enclosed in '[]'", fragment)
	}
	return css.CheckSelector(fragment + " .x")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	naturalSort(keys)
	return keys
}

func naturalSort(s []string) {
	sort.Slice(s, func(i, j int) bool { return natural.Less(s[i], s[j]) })
}
