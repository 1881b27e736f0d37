package css

import (
	"fmt"
	"io"
	"slices"
	"strings"
)

// indent is a single nesting level in rendered output.
const indent = "    "

// Declaration is a single "property: value" pair.
type Declaration struct {
	Property string
	Value    string
}

// String returns the CSS text of the declaration.
func (d Declaration) String() string {
	return d.Property + ": " + d.Value
}

// Rule is a single atomic rule produced from one terminal style value.
type Rule struct {
	ClassName    string        // Escaped class name (without leading dot)
	Selector     string        // Fully composed selector, including attribute prefixes and suffixes
	AtRules      []string      // Wrapping at-rules, outermost first
	Declarations []Declaration // In production order
}

// RuleSet is an ordered sequence of atomic rules. Order is emission order
// and is never changed by rendering.
type RuleSet struct {
	Rules []Rule
}

// Len returns number of rules in the set.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}

// Append adds rules to the end of the set.
func (s *RuleSet) Append(rules ...Rule) {
	s.Rules = append(s.Rules, rules...)
}

// ClassNames returns class names of all rules in emission order.
func (s *RuleSet) ClassNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Rules))
	for _, r := range s.Rules {
		names = append(names, r.ClassName)
	}
	return names
}

// Dedupe returns a new set which keeps only the first occurrence of every
// structurally identical rule (same at-rules, selector and declarations).
// Relative order of the kept rules is preserved.
func (s *RuleSet) Dedupe() *RuleSet {
	out := &RuleSet{}
	if s == nil {
		return out
	}
	seen := make(map[string]struct{}, len(s.Rules))
	for _, r := range s.Rules {
		key := r.key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Rules = append(out.Rules, r)
	}
	return out
}

func (r *Rule) key() string {
	var sb strings.Builder
	for _, at := range r.AtRules {
		sb.WriteString(at)
		sb.WriteByte(0)
	}
	sb.WriteByte(1)
	sb.WriteString(r.Selector)
	sb.WriteByte(1)
	for _, d := range r.Declarations {
		sb.WriteString(d.Property)
		sb.WriteByte(0)
		sb.WriteString(d.Value)
		sb.WriteByte(0)
	}
	return sb.String()
}

// Compare reports the first structural difference between two rule sets,
// class names are not compared since they are not part of the rendered
// text on their own.
func Compare(want, got *RuleSet) error {
	if want.Len() != got.Len() {
		return fmt.Errorf("rule count differs: want %d, got %d", want.Len(), got.Len())
	}
	for i := range want.Rules {
		w, g := &want.Rules[i], &got.Rules[i]
		switch {
		case !slices.Equal(w.AtRules, g.AtRules):
			return fmt.Errorf("rule %d: at-rules differ: want %q, got %q", i, w.AtRules, g.AtRules)
		case NormalizeSelector(w.Selector) != NormalizeSelector(g.Selector):
			return fmt.Errorf("rule %d: selector differs: want %q, got %q", i, w.Selector, g.Selector)
		case !slices.Equal(w.Declarations, g.Declarations):
			return fmt.Errorf("rule %d: declarations differ: want %v, got %v", i, w.Declarations, g.Declarations)
		}
	}
	return nil
}

// NormalizeSelector removes optional whitespace around combinators and
// collapses other whitespace runs, leaving escaped characters intact.
func NormalizeSelector(selector string) string {
	var sb strings.Builder
	pendingSpace := false
	for i := 0; i < len(selector); i++ {
		c := selector[i]
		switch {
		case c == '\\' && i+1 < len(selector):
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteByte(c)
			i++
			sb.WriteByte(selector[i])
		case c == ' ' || c == '\t' || c == '\n':
			pendingSpace = true
		case strings.IndexByte(">+~,", c) >= 0:
			pendingSpace = false
			sb.WriteByte(c)
			// swallow whitespace following the combinator
			for i+1 < len(selector) && strings.IndexByte(" \t\n", selector[i+1]) >= 0 {
				i++
			}
		default:
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// WriteTo writes the rule set to w in emission order, implementing
// io.WriterTo. Every rule is rendered as its own block, nested inside its
// own copy of the at-rule chain.
func (s *RuleSet) WriteTo(w io.Writer) (int64, error) {
	var total int64
	if s == nil {
		return 0, nil
	}
	for i := range s.Rules {
		if i > 0 {
			n, err := io.WriteString(w, "\n")
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
		n, err := writeRule(w, &s.Rules[i])
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// String returns the CSS text of the rule set.
func (s *RuleSet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// writeRule writes a single atomic rule to w. The closing brace of the
// outermost block is not followed by a newline.
func writeRule(w io.Writer, rule *Rule) (int, error) {
	var sb strings.Builder

	depth := len(rule.AtRules)
	for i, at := range rule.AtRules {
		fmt.Fprintf(&sb, "%s%s {\n", strings.Repeat(indent, i), at)
	}

	pad := strings.Repeat(indent, depth)
	fmt.Fprintf(&sb, "%s%s {\n", pad, rule.Selector)
	for i, d := range rule.Declarations {
		sb.WriteString(pad + indent + d.String())
		if i < len(rule.Declarations)-1 {
			sb.WriteByte(';')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(pad + "}")

	for i := depth - 1; i >= 0; i-- {
		sb.WriteString("\n" + strings.Repeat(indent, i) + "}")
	}
	return io.WriteString(w, sb.String())
}
