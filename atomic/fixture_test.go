package atomic_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"atomcss/atomic"
	"atomcss/css"
	"atomcss/style"
)

var testConditions = map[string]atomic.Condition{
	"_":        {Kind: atomic.Breakpoint, Base: true},
	"sm":       {Kind: atomic.Breakpoint, Fragment: "@screen sm"},
	"md":       {Kind: atomic.Breakpoint, Fragment: "@screen md"},
	"lg":       {Kind: atomic.Breakpoint, Fragment: "@screen lg"},
	"2xl":      {Kind: atomic.Breakpoint, Fragment: "@screen 2xl"},
	"hover":    {Kind: atomic.PseudoClass, Fragment: ":hover"},
	"disabled": {Kind: atomic.PseudoClass, Fragment: ":disabled"},
	"light":    {Kind: atomic.ColorMode, Fragment: "[data-theme=light]"},
	"dark":     {Kind: atomic.ColorMode, Fragment: "[data-theme=dark]"},
	"ltr":      {Kind: atomic.Direction, Fragment: "[dir=ltr]"},
	"rtl":      {Kind: atomic.Direction, Fragment: "[dir=rtl]"},
	// also a property name, conditions win
	"first": {Kind: atomic.PseudoClass, Fragment: ":first-child"},
}

func expand(props ...string) atomic.Transform {
	return func(_ string, value any) ([]css.Declaration, error) {
		text, _ := style.FormatValue(value)
		decls := make([]css.Declaration, 0, len(props))
		for _, p := range props {
			decls = append(decls, css.Declaration{Property: p, Value: text})
		}
		return decls, nil
	}
}

func longhand(property string, value any) ([]css.Declaration, error) {
	obj, ok := value.(*style.Object)
	if !ok {
		text, _ := style.FormatValue(value)
		return []css.Declaration{{Property: property, Value: text}}, nil
	}
	var decls []css.Declaration
	obj.Each(func(k string, v any) {
		text, _ := style.FormatValue(v)
		decls = append(decls, css.Declaration{Property: property + "-" + k, Value: text})
	})
	return decls, nil
}

var errBroken = errors.New("broken transform")

var testProperties = map[string]atomic.Property{
	"bg":        {CSS: "background", DisplayName: "background"},
	"w":         {CSS: "width", DisplayName: "w"},
	"width":     {CSS: "width", DisplayName: "w"},
	"ml":        {CSS: "margin-left", DisplayName: "marginLeft"},
	"opacity":   {CSS: "opacity", DisplayName: "opacity"},
	"top":       {CSS: "top", DisplayName: "top"},
	"left":      {CSS: "left", DisplayName: "left"},
	"font":      {CSS: "font", DisplayName: "font"},
	"fontSize":  {CSS: "font-size", DisplayName: "fontSize"},
	"textAlign": {CSS: "text-align", DisplayName: "ta"},
	"color":     {CSS: "color", DisplayName: "color"},
	"first":     {CSS: "order", DisplayName: "first"},
	"mx":        {CSS: "margin-inline", DisplayName: "mx", Transform: expand("margin-left", "margin-right")},
	"border":    {CSS: "border", DisplayName: "border", Transform: longhand, ObjectValues: true},
	"broken": {CSS: "broken", DisplayName: "broken", Transform: func(string, any) ([]css.Declaration, error) {
		return nil, errBroken
	}},
	"empty": {CSS: "empty", DisplayName: "empty", Transform: func(string, any) ([]css.Declaration, error) {
		return nil, nil
	}},
}

func newEngine(t *testing.T) *atomic.Engine {
	t.Helper()
	return atomic.New(
		atomic.ClassifierFunc(func(key string) (atomic.Condition, bool) {
			c, ok := testConditions[key]
			return c, ok
		}),
		atomic.ResolverFunc(func(key string) (atomic.Property, bool) {
			p, ok := testProperties[key]
			return p, ok
		}),
		atomic.WithLogger(zaptest.NewLogger(t)),
	)
}

// compile processes styles and returns rendered CSS, failing the test on
// error.
func compile(t *testing.T, styles *style.Object, scope ...string) string {
	t.Helper()
	set, err := newEngine(t).Process(atomic.Options{Styles: styles, Scope: scope})
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return set.String()
}

// obj is a shorthand for style.NewObject.
func obj(kv ...any) *style.Object {
	return style.NewObject(kv...)
}

// lines joins expected CSS lines, keeping test tables readable.
func lines(l ...string) string {
	return strings.Join(l, "\n")
}
