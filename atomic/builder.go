package atomic

import (
	"slices"
	"strings"

	"atomcss/css"
)

// conditionPath is an append-only list of conditions from the root of a
// branch. with always copies, so sibling branches never share storage.
type conditionPath []Condition

func (p conditionPath) with(c Condition) conditionPath {
	out := make(conditionPath, len(p), len(p)+1)
	copy(out, p)
	return append(out, c)
}

// buildRule finalizes selector and at-rule chain for a single terminal
// named rawName.
func (s *scope) buildRule(path conditionPath, rawName string, decls []css.Declaration) css.Rule {
	className := Escape(rawName)

	selector := s.apply("." + className)

	var (
		prefix  []string
		atRules = slices.Clone(s.atRules)
	)
	for _, c := range path {
		if c.Base || c.Fragment == "" {
			continue
		}
		switch c.Kind {
		case PseudoClass:
			selector += c.Fragment
		case ColorMode, Direction:
			prefix = append(prefix, c.Fragment)
		case Breakpoint:
			atRules = append(atRules, c.Fragment)
		}
	}
	if len(prefix) > 0 {
		selector = strings.Join(prefix, " ") + " " + selector
	}

	return css.Rule{
		ClassName:    className,
		Selector:     selector,
		AtRules:      atRules,
		Declarations: decls,
	}
}
