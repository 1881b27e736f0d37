package registry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"atomcss/atomic"
	"atomcss/config"
	"atomcss/css"
	"atomcss/style"
)

func testConditions() config.ConditionsConfig {
	return config.ConditionsConfig{
		Base:          "_",
		Breakpoints:   map[string]string{"sm": "@screen sm", "md": "@media (min-width: 768px)", "2xl": "@screen 2xl", "10xl": "@screen 10xl"},
		PseudoClasses: map[string]string{"hover": ":hover", "first": ":first-child"},
		ColorModes:    map[string]string{"dark": "[data-theme=dark]"},
		Directions:    map[string]string{"rtl": "[dir=rtl]"},
	}
}

func TestNew_DefaultConfiguration(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	set, err := r.Engine(atomic.WithLogger(zaptest.NewLogger(t))).Process(atomic.Options{
		Styles: style.NewObject("mx", "auto", "hover", style.NewObject("bg", "red")),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := ".mx-auto {\n    margin-left: auto;\n    margin-right: auto\n}\n" +
		".hover\\:background-red:hover {\n    background: red\n}"
	if got := set.String(); got != want {
		t.Errorf("Process() =\n%s\nwant\n%s", got, want)
	}
}

func TestNew_DefaultConfigurationDigitBreakpoint(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	log := zaptest.NewLogger(t)
	set, err := r.Engine(atomic.WithLogger(log)).Process(atomic.Options{
		Styles: style.NewObject("w", style.NewObject("2xl", "10px")),
	})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	want := "@screen 2xl {\n    .\\32 xl\\:w-10px {\n        width: 10px\n    }\n}"
	if got := set.String(); got != want {
		t.Fatalf("Process() =\n%s\nwant\n%s", got, want)
	}

	// class selector must survive a round trip through the CSS lexer
	parsed, err := css.NewParser(log).Parse([]byte(set.String()), "2xl")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Len() != 1 || parsed.Rules[0].ClassName != set.Rules[0].ClassName {
		t.Errorf("parsed class names = %q, want %q", parsed.ClassNames(), set.Rules[0].ClassName)
	}
	if err := css.Compare(set, parsed); err != nil {
		t.Errorf("Compare() error = %v", err)
	}
}

func TestConditions_Classify(t *testing.T) {
	cc := testConditions()
	c, err := NewConditions(&cc)
	if err != nil {
		t.Fatalf("NewConditions() error = %v", err)
	}

	tests := []struct {
		key      string
		ok       bool
		kind     atomic.ConditionKind
		fragment string
		base     bool
	}{
		{key: "_", ok: true, kind: atomic.Breakpoint, base: true},
		{key: "sm", ok: true, kind: atomic.Breakpoint, fragment: "@screen sm"},
		{key: "md", ok: true, kind: atomic.Breakpoint, fragment: "@media (min-width: 768px)"},
		{key: "hover", ok: true, kind: atomic.PseudoClass, fragment: ":hover"},
		{key: "dark", ok: true, kind: atomic.ColorMode, fragment: "[data-theme=dark]"},
		{key: "rtl", ok: true, kind: atomic.Direction, fragment: "[dir=rtl]"},
		{key: "color"},
		{key: "Hover"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := c.Classify(tt.key)
			if ok != tt.ok {
				t.Fatalf("Classify(%q) ok = %v, want %v", tt.key, ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Kind != tt.kind || got.Fragment != tt.fragment || got.Base != tt.base || got.Name != tt.key {
				t.Errorf("Classify(%q) = %+v", tt.key, got)
			}
		})
	}
}

func TestConditions_Names(t *testing.T) {
	cc := testConditions()
	c, err := NewConditions(&cc)
	if err != nil {
		t.Fatalf("NewConditions() error = %v", err)
	}
	want := "_,2xl,10xl,dark,first,hover,md,rtl,sm"
	if got := strings.Join(c.Names(), ","); got != want {
		t.Errorf("Names() = %q, want %q", got, want)
	}
}

func TestNewConditions_Errors(t *testing.T) {
	cc := config.ConditionsConfig{
		Base:          "_",
		Breakpoints:   map[string]string{"sm": "screen sm", "_": "@screen base", "x": "@screen x"},
		PseudoClasses: map[string]string{"hover": "hover", "x": ":focus"},
		ColorModes:    map[string]string{"dark": ".dark"},
		Directions:    map[string]string{"rtl": "[dir=rtl]"},
	}
	_, err := NewConditions(&cc)
	if err == nil {
		t.Fatal("expected error")
	}

	errs := multierr.Errors(err)
	if len(errs) != 5 {
		t.Fatalf("errors = %d, want 5: %v", len(errs), err)
	}
	for _, want := range []string{
		`breakpoint "sm"`,
		`breakpoint "_" clashes with base`,
		`pseudo-class "hover"`,
		`pseudo-class "x" is already defined as breakpoint`,
		`color-mode "dark"`,
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}

	cc = testConditions()
	cc.PseudoClasses["bad\xff"] = ":hover"
	if _, err := NewConditions(&cc); !errors.Is(err, atomic.ErrInvalidUTF8) {
		t.Errorf("error = %v, want ErrInvalidUTF8 for malformed name", err)
	}

	if _, err := NewConditions(&config.ConditionsConfig{}); err == nil {
		t.Error("expected error for empty base")
	}
}

func TestNewUtilities(t *testing.T) {
	u, err := NewUtilities(map[string]config.UtilityConfig{
		"bg":    {Property: "background", ClassName: "background"},
		"w":     {Property: "width"},
		"width": {Property: "width", ClassName: "w"},
		"mx":    {Property: "margin-inline", Transform: "expand", Properties: []string{"margin-left", "margin-right"}},
	})
	if err != nil {
		t.Fatalf("NewUtilities() error = %v", err)
	}

	if p, ok := u.Resolve("bg"); !ok || p.CSS != "background" || p.DisplayName != "background" {
		t.Errorf("Resolve(bg) = %+v, %v", p, ok)
	}
	w, _ := u.Resolve("w")
	width, _ := u.Resolve("width")
	if w.DisplayName != "w" || width.DisplayName != "w" || w.CSS != width.CSS {
		t.Errorf("w = %+v, width = %+v; want shared display name and property", w, width)
	}
	if p, _ := u.Resolve("mx"); p.Transform == nil || p.ObjectValues {
		t.Errorf("Resolve(mx) = %+v, want scalar transform", p)
	}
	if _, ok := u.Resolve("nope"); ok {
		t.Error("Resolve(nope) must fail")
	}
	if got := strings.Join(u.Names(), ","); got != "bg,mx,w,width" {
		t.Errorf("Names() = %q", got)
	}
}

func TestNewUtilities_Errors(t *testing.T) {
	_, err := NewUtilities(map[string]config.UtilityConfig{
		"a": {},
		"b": {Property: "b", Transform: "bogus"},
		"c": {Property: "c", Transform: "expand"},
		"d": {Property: "d"},
		"e": {Property: "e", ClassName: "e\xff"},
	})
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("errors = %d, want 4: %v", got, err)
	}
	if !errors.Is(err, atomic.ErrInvalidUTF8) {
		t.Errorf("error = %v, want ErrInvalidUTF8 among errors", err)
	}
}

func TestNew_CombinesErrors(t *testing.T) {
	cfg := &config.Config{
		Conditions: config.ConditionsConfig{Base: ""},
		Utilities:  map[string]config.UtilityConfig{"x": {}},
	}
	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "invalid registry configuration") {
		t.Errorf("error = %v", err)
	}
	if got := len(multierr.Errors(errors.Unwrap(err))); got != 2 {
		t.Errorf("errors = %d, want 2: %v", got, err)
	}
}

func TestTransforms(t *testing.T) {
	build := func(t *testing.T, name string, uc config.UtilityConfig) atomic.Transform {
		t.Helper()
		fn, err := transforms[name].build(uc)
		if err != nil {
			t.Fatalf("build(%s) error = %v", name, err)
		}
		return fn
	}

	tests := []struct {
		name      string
		transform string
		uc        config.UtilityConfig
		value     any
		want      []css.Declaration
		wantErr   bool
	}{
		{
			name:      "expand",
			transform: "expand",
			uc:        config.UtilityConfig{Properties: []string{"padding-left", "padding-right"}},
			value:     4,
			want:      []css.Declaration{{Property: "padding-left", Value: "4"}, {Property: "padding-right", Value: "4"}},
		},
		{
			name:      "expand rejects objects",
			transform: "expand",
			uc:        config.UtilityConfig{Properties: []string{"a"}},
			value:     style.NewObject("x", 1),
			wantErr:   true,
		},
		{
			name:      "longhand scalar",
			transform: "longhand",
			value:     "1px solid",
			want:      []css.Declaration{{Property: "border", Value: "1px solid"}},
		},
		{
			name:      "longhand object",
			transform: "longhand",
			value:     style.NewObject("width", "1px", "style", "solid"),
			want:      []css.Declaration{{Property: "border-width", Value: "1px"}, {Property: "border-style", Value: "solid"}},
		},
		{
			name:      "longhand nested object",
			transform: "longhand",
			value:     style.NewObject("width", style.NewObject("x", 1)),
			wantErr:   true,
		},
		{
			name:      "important",
			transform: "important",
			value:     "none",
			want:      []css.Declaration{{Property: "border", Value: "none !important"}},
		},
		{
			name:      "important rejects bool",
			transform: "important",
			value:     true,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := build(t, tt.transform, tt.uc)("border", tt.value)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("transform error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("declaration %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := transforms["expand"].build(config.UtilityConfig{}); err == nil {
		t.Error("expand without properties must fail to build")
	}
	if !transforms["longhand"].objects || transforms["expand"].objects {
		t.Error("only longhand accepts objects")
	}
	if got := strings.Join(TransformNames(), ","); got != "expand,important,longhand" {
		t.Errorf("TransformNames() = %q", got)
	}
}

func TestRegistry_List(t *testing.T) {
	r, err := New(&config.Config{
		Conditions: testConditions(),
		Utilities: map[string]config.UtilityConfig{
			"bg": {Property: "background", ClassName: "background"},
			"mx": {Property: "margin-inline", Transform: "expand", Properties: []string{"margin-left", "margin-right"}},
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var buf bytes.Buffer
	if err := r.List(&buf); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	out := buf.String()

	rows := [][]string{
		{"CONDITION", "KIND", "FRAGMENT"},
		{"_", "breakpoint", "(none)"},
		{"hover", "pseudo-class", ":hover"},
		{"rtl", "direction", "[dir=rtl]"},
		{"UTILITY", "CLASS", "PROPERTY"},
		{"bg", "background", "background"},
		{"mx", "mx", "margin-inline", "(margin-left,", "margin-right)"},
	}
	lines := strings.Split(out, "\n")
	for _, row := range rows {
		found := false
		for _, l := range lines {
			if strings.Join(strings.Fields(l), " ") == strings.Join(row, " ") {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("List() output misses row %q:\n%s", row, out)
		}
	}
	if strings.Index(out, "CONDITION") > strings.Index(out, "UTILITY") {
		t.Error("conditions must be listed before utilities")
	}
}
