package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser reads rendered atomic CSS back into rules.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a RuleSet. Nested at-rule blocks are flattened
// into the AtRules chain of every rule they contain.
// The optional source parameter identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) (*RuleSet, error) {
	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	set := &RuleSet{}
	if err := p.parseBlock(data, nil, set); err != nil {
		return nil, err
	}
	p.log.Debug("Parsed CSS", zap.Int("rules", set.Len()))
	return set, nil
}

func (p *Parser) parseBlock(data []byte, atRules []string, set *RuleSet) error {
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	return p.parseItems(parser, atRules, set, false)
}

// parseItems consumes grammar items until the end of input or, when nested,
// until the enclosing at-rule block ends. Bodies of at-rules the grammar
// parser does not know (e.g. @screen) arrive as raw tokens and are parsed
// again as a stylesheet of their own.
func (p *Parser) parseItems(parser *css.Parser, atRules []string, set *RuleSet, nested bool) error {
	var raw bytes.Buffer

	flush := func() error {
		if raw.Len() == 0 {
			return nil
		}
		return p.parseBlock(raw.Bytes(), atRules, set)
	}

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("css parse error: %w", err)
			}
			return flush()

		case css.EndAtRuleGrammar:
			if !nested {
				return errors.New("css parse error: unbalanced at-rule block")
			}
			return flush()

		case css.BeginAtRuleGrammar:
			prelude := strings.TrimSpace(string(data) + " " + tokensText(parser.Values()))
			inner := append(slices.Clone(atRules), prelude)
			if err := p.parseItems(parser, inner, set, true); err != nil {
				return err
			}

		case css.BeginRulesetGrammar:
			values := parser.Values()
			head := string(data)
			if head == "{" {
				head = ""
			}
			selector := strings.TrimSpace(head + tokensText(values))
			className := classNameOf(values, selector)
			decls, err := p.parseDeclarations(parser)
			if err != nil {
				return err
			}
			set.Append(Rule{
				ClassName:    className,
				Selector:     selector,
				AtRules:      slices.Clone(atRules),
				Declarations: decls,
			})

		case css.TokenGrammar:
			raw.Write(data)

		case css.AtRuleGrammar, css.QualifiedRuleGrammar:
			p.log.Debug("Skipping statement", zap.String("data", string(data)))
		}
	}
}

// parseDeclarations parses property declarations until EndRulesetGrammar,
// keeping source order.
func (p *Parser) parseDeclarations(parser *css.Parser) ([]Declaration, error) {
	var decls []Declaration
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("css parse error: %w", err)
			}
			return nil, errors.New("css parse error: unterminated rule")

		case css.EndRulesetGrammar:
			return decls, nil

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decls = append(decls, Declaration{
				Property: string(data),
				Value:    tokensText(parser.Values()),
			})
		}
	}
}

// tokensText joins token data collapsing whitespace runs into single space.
func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	space := false
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.Write(t.Data)
	}
	return sb.String()
}

// classNameOf picks the generated class out of selector tokens: the only
// class present or, with several, the first one carrying escapes.
func classNameOf(tokens []css.Token, selector string) string {
	var classes []string
	for i := 0; i+1 < len(tokens); i++ {
		if tokens[i].TokenType == css.DelimToken && string(tokens[i].Data) == "." &&
			tokens[i+1].TokenType == css.IdentToken {
			classes = append(classes, string(tokens[i+1].Data))
		}
	}
	// Depending on lexer state escapes may split the class token, fall back
	// to the text.
	if len(classes) == 0 {
		classes = classesFromText(selector)
	}
	if len(classes) == 0 {
		return ""
	}
	for _, c := range classes {
		if strings.ContainsRune(c, '\\') {
			return c
		}
	}
	return classes[0]
}

func classesFromText(selector string) []string {
	var classes []string
	for i := 0; i < len(selector); i++ {
		if selector[i] != '.' || (i > 0 && selector[i-1] == '\\') {
			continue
		}
		j := i + 1
		for j < len(selector) {
			c := selector[j]
			if c == '\\' && j+1 < len(selector) {
				j += 2
				continue
			}
			if c == ' ' || c == '.' || c == ':' || c == '[' || c == '>' || c == '+' || c == '~' || c == ',' {
				break
			}
			j++
		}
		if j > i+1 {
			classes = append(classes, selector[i+1:j])
		}
		i = j - 1
	}
	return classes
}

// CheckSelector verifies that selector is a single well formed CSS selector.
func CheckSelector(selector string) error {
	if strings.TrimSpace(selector) == "" {
		return errors.New("empty selector")
	}
	if strings.ContainsAny(selector, "{};") {
		return fmt.Errorf("selector %q contains block or statement delimiters", selector)
	}
	return expectGrammar(selector+"{}", css.BeginRulesetGrammar, css.EndRulesetGrammar)
}

// CheckAtRule verifies that prelude is a well formed at-rule prelude which
// can open a block (e.g. "@media (min-width: 640px)").
func CheckAtRule(prelude string) error {
	if !strings.HasPrefix(prelude, "@") {
		return fmt.Errorf("at-rule %q must start with '@'", prelude)
	}
	if strings.ContainsAny(prelude, "{};") {
		return fmt.Errorf("at-rule %q contains block or statement delimiters", prelude)
	}
	return expectGrammar(prelude+"{}", css.BeginAtRuleGrammar, css.EndAtRuleGrammar)
}

// expectGrammar parses text and requires exactly the listed grammar items
// followed by the end of input.
func expectGrammar(text string, want ...css.GrammarType) error {
	parser := css.NewParser(parse.NewInputString(text), false)
	for _, w := range want {
		gt, _, _ := parser.Next()
		if gt != w {
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("unable to parse %q: %w", text, err)
			}
			return fmt.Errorf("unable to parse %q: expected %s, got %s", text, w, gt)
		}
	}
	if gt, _, _ := parser.Next(); gt != css.ErrorGrammar {
		return fmt.Errorf("unable to parse %q: unexpected %s", text, gt)
	}
	if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to parse %q: %w", text, err)
	}
	return nil
}
