package atomic

import (
	"atomcss/css"
)

// ConditionKind is the kind of a condition key.
type ConditionKind int

const (
	Breakpoint  ConditionKind = iota // wraps rule in an at-rule
	PseudoClass                      // suffixes the selector
	ColorMode                        // prefixes the selector with attribute selector
	Direction                        // prefixes the selector with attribute selector
)

// String returns name of the kind.
func (k ConditionKind) String() string {
	switch k {
	case Breakpoint:
		return "breakpoint"
	case PseudoClass:
		return "pseudo-class"
	case ColorMode:
		return "color-mode"
	case Direction:
		return "direction"
	default:
		return "unknown"
	}
}

// Condition is a classified condition key together with its rendered form.
type Condition struct {
	Kind     ConditionKind
	Name     string // key as written in the style tree
	Fragment string // "@screen sm", "[dir=rtl]", ":hover"
	Base     bool   // "no condition" sentinel, contributes nothing
}

// ConditionClassifier decides whether a style key is a condition.
type ConditionClassifier interface {
	Classify(key string) (Condition, bool)
}

// ClassifierFunc adapts a function to ConditionClassifier.
type ClassifierFunc func(key string) (Condition, bool)

// Classify implements ConditionClassifier.
func (f ClassifierFunc) Classify(key string) (Condition, bool) {
	return f(key)
}

// Transform converts a terminal value into final declarations. property is
// the canonical CSS property of the utility; value is a string, a number or,
// for transforms accepting objects, a *style.Object.
type Transform func(property string, value any) ([]css.Declaration, error)

// Property is a resolved style key.
type Property struct {
	CSS          string    // canonical CSS property, used by the override rule
	DisplayName  string    // name used in generated class names
	Transform    Transform // optional
	ObjectValues bool      // Transform accepts *style.Object values
}

// PropertyResolver resolves style keys to properties.
type PropertyResolver interface {
	Resolve(key string) (Property, bool)
}

// ResolverFunc adapts a function to PropertyResolver.
type ResolverFunc func(key string) (Property, bool)

// Resolve implements PropertyResolver.
func (f ResolverFunc) Resolve(key string) (Property, bool) {
	return f(key)
}

type keyKind int

const (
	keyUnknown keyKind = iota
	keyCondition
	keyProperty
)

// resolution is the outcome of classifying a single style key.
type resolution struct {
	kind      keyKind
	condition Condition
	property  Property
}

// classify checks conditions first, so a key present in both tables is
// always a condition.
func (e *Engine) classify(key string) resolution {
	if c, ok := e.conditions.Classify(key); ok {
		c.Name = key
		return resolution{kind: keyCondition, condition: c}
	}
	if p, ok := e.properties.Resolve(key); ok {
		return resolution{kind: keyProperty, property: p}
	}
	return resolution{kind: keyUnknown}
}
