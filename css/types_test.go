package css

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func rule(selector string, atRules []string, decls ...string) Rule {
	r := Rule{Selector: selector, AtRules: atRules}
	if i := strings.IndexByte(selector, '.'); i >= 0 {
		r.ClassName = strings.Fields(selector[i+1:])[0]
	}
	for i := 0; i+1 < len(decls); i += 2 {
		r.Declarations = append(r.Declarations, Declaration{Property: decls[i], Value: decls[i+1]})
	}
	return r
}

func TestRuleSet_String(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
		want  string
	}{
		{
			name: "empty",
			want: "",
		},
		{
			name:  "single declaration",
			rules: []Rule{rule(".color-red", nil, "color", "red")},
			want:  ".color-red {\n    color: red\n}",
		},
		{
			name:  "several declarations",
			rules: []Rule{rule(".mx-auto", nil, "margin-left", "auto", "margin-right", "auto")},
			want:  ".mx-auto {\n    margin-left: auto;\n    margin-right: auto\n}",
		},
		{
			name:  "at-rule chain",
			rules: []Rule{rule(".x", []string{"@media print", "@screen sm"}, "top", "0")},
			want: "@media print {\n" +
				"    @screen sm {\n" +
				"        .x {\n" +
				"            top: 0\n" +
				"        }\n" +
				"    }\n" +
				"}",
		},
		{
			name: "rules separated by newline",
			rules: []Rule{
				rule(".a", nil, "top", "0"),
				rule(".b", []string{"@screen sm"}, "left", "0"),
			},
			want: ".a {\n    top: 0\n}\n@screen sm {\n    .b {\n        left: 0\n    }\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := &RuleSet{}
			set.Append(tt.rules...)
			if got := set.String(); got != tt.want {
				t.Errorf("String() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

type failingWriter struct{ after int }

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.after <= 0 {
		return 0, errors.New("write failed")
	}
	w.after--
	return len(p), nil
}

func TestRuleSet_WriteTo(t *testing.T) {
	set := &RuleSet{}
	set.Append(rule(".a", nil, "top", "0"), rule(".b", nil, "left", "0"))

	var buf bytes.Buffer
	n, err := set.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, wrote %d bytes", n, buf.Len())
	}
	if buf.String() != set.String() {
		t.Errorf("WriteTo() and String() differ")
	}

	if _, err := set.WriteTo(&failingWriter{after: 1}); err == nil {
		t.Error("expected error from failing writer")
	}

	var nilSet *RuleSet
	if n, err := nilSet.WriteTo(&buf); n != 0 || err != nil {
		t.Errorf("nil WriteTo() = %d, %v", n, err)
	}
}

func TestRuleSet_ClassNamesAndLen(t *testing.T) {
	var nilSet *RuleSet
	if nilSet.Len() != 0 || nilSet.ClassNames() != nil {
		t.Error("nil set must be empty")
	}

	set := &RuleSet{}
	set.Append(rule(".b", nil, "top", "0"), rule(".a:hover", nil, "top", "0"))
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}
	if got := strings.Join(set.ClassNames(), ","); got != "b,a:hover" {
		t.Errorf("ClassNames() = %q", got)
	}
}

func TestRuleSet_Dedupe(t *testing.T) {
	set := &RuleSet{}
	set.Append(
		rule(".a", nil, "top", "0"),
		rule(".b", nil, "top", "0"),
		rule(".a", nil, "top", "0"),
		rule(".a", []string{"@screen sm"}, "top", "0"),
		rule(".a", nil, "top", "1"),
		rule(".b", nil, "top", "0"),
	)

	out := set.Dedupe()
	if got, want := out.String(), lines(
		".a {", "    top: 0", "}",
		".b {", "    top: 0", "}",
		"@screen sm {", "    .a {", "        top: 0", "    }", "}",
		".a {", "    top: 1", "}",
	); got != want {
		t.Errorf("Dedupe() =\n%s\nwant\n%s", got, want)
	}
	if set.Len() != 6 {
		t.Errorf("Dedupe() modified receiver")
	}

	var nilSet *RuleSet
	if nilSet.Dedupe().Len() != 0 {
		t.Error("nil Dedupe() must be empty")
	}
}

func TestRule_KeyUnambiguous(t *testing.T) {
	a := rule(".x", []string{"@media a"}, "b", "c")
	b := rule(".x", []string{"@media a", ""}, "b", "c")
	c := rule(".x", nil, "bc", "")
	d := rule(".x", nil, "b", "c")
	keys := map[string]bool{a.key(): true, b.key(): true, c.key(): true, d.key(): true}
	if len(keys) != 4 {
		t.Errorf("distinct rules produced %d distinct keys, want 4", len(keys))
	}
}

func TestNormalizeSelector(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{".a", ".a"},
		{"  .a  ", ".a"},
		{".a   .b", ".a .b"},
		{".a > .b", ".a>.b"},
		{".a>.b", ".a>.b"},
		{".a\n+\t.b", ".a+.b"},
		{".a ~ .b, .c", ".a~.b,.c"},
		{`.\[\&\ \>\ p\] > p`, `.\[\&\ \>\ p\]>p`},
		{`[dir=rtl]  .x\:y:hover`, `[dir=rtl] .x\:y:hover`},
	}
	for _, tt := range tests {
		if got := NormalizeSelector(tt.in); got != tt.want {
			t.Errorf("NormalizeSelector(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompare(t *testing.T) {
	base := func() *RuleSet {
		s := &RuleSet{}
		s.Append(rule(".a > p", []string{"@screen sm"}, "top", "0"))
		return s
	}

	tests := []struct {
		name   string
		modify func(r *Rule)
		extra  bool
		want   string
	}{
		{name: "equal", modify: func(*Rule) {}},
		{name: "class names ignored", modify: func(r *Rule) { r.ClassName = "other" }},
		{name: "selector whitespace ignored", modify: func(r *Rule) { r.Selector = ".a>p" }},
		{name: "at-rules", modify: func(r *Rule) { r.AtRules = nil }, want: "at-rules differ"},
		{name: "selector", modify: func(r *Rule) { r.Selector = ".a p" }, want: "selector differs"},
		{name: "declarations", modify: func(r *Rule) { r.Declarations[0].Value = "1" }, want: "declarations differ"},
		{name: "count", modify: func(*Rule) {}, extra: true, want: "rule count differs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, got := base(), base()
			tt.modify(&got.Rules[0])
			if tt.extra {
				got.Append(rule(".b", nil, "top", "0"))
			}
			err := Compare(want, got)
			switch {
			case tt.want == "" && err != nil:
				t.Errorf("Compare() error = %v", err)
			case tt.want != "" && (err == nil || !strings.Contains(err.Error(), tt.want)):
				t.Errorf("Compare() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}
