package atomic

import (
	"errors"
	"strings"
	"unicode/utf8"

	"atomcss/css"
)

// Placeholder stands for the generated class selector in scope selector
// templates.
const Placeholder = "&"

// scopeSeparator joins scope fragments in naming text. Inside fragments
// '_' and '\' are backslash escaped, so a separator never comes from a
// fragment.
const scopeSeparator = "__"

var fragmentText = strings.NewReplacer(`\`, `\\`, "_", `\_`)

// scope is a composed list of scope fragments.
type scope struct {
	text      string   // naming text, "[frag1__frag2]", empty without scope
	selectors []string // selector templates, folded left to right
	atRules   []string // outer at-rules in given order
}

// composeScope validates and sorts fragments into selector templates and
// at-rules.
func composeScope(fragments []string) (*scope, error) {
	s := &scope{}
	if len(fragments) == 0 {
		return s, nil
	}
	texts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		switch {
		case !utf8.ValidString(f):
			return nil, &InvalidScopeFragmentError{Fragment: f, Err: ErrInvalidUTF8}
		case strings.HasPrefix(f, "@"):
			if err := css.CheckAtRule(f); err != nil {
				return nil, &InvalidScopeFragmentError{Fragment: f, Err: err}
			}
			s.atRules = append(s.atRules, f)
		case strings.Contains(f, Placeholder):
			if err := css.CheckSelector(strings.ReplaceAll(f, Placeholder, ".x")); err != nil {
				return nil, &InvalidScopeFragmentError{Fragment: f, Err: err}
			}
			s.selectors = append(s.selectors, f)
		default:
			return nil, &InvalidScopeFragmentError{
				Fragment: f,
				Err:      errors.New("neither a selector template containing '" + Placeholder + "' nor an at-rule"),
			}
		}
		texts = append(texts, fragmentText.Replace(f))
	}
	s.text = "[" + strings.Join(texts, scopeSeparator) + "]"
	return s, nil
}

// apply substitutes selector into every template in order, each template
// receiving the result of the previous one.
func (s *scope) apply(selector string) string {
	for _, t := range s.selectors {
		selector = strings.ReplaceAll(t, Placeholder, selector)
	}
	return selector
}
