package atomic

import (
	"unicode/utf8"

	"atomcss/css"
	"atomcss/style"
)

// walkContext tells what kind of keys are allowed at the current level.
type walkContext int

const (
	// conditions and properties allowed
	inConditionContext walkContext = iota
	// only conditions allowed, a property has already been entered
	inPropertyContext
)

// branch is the state accumulated from the root to the current level.
// It is passed by value; slices in it are only ever extended by copying.
type branch struct {
	keys       []string
	conditions conditionPath
	property   *Property
	propKey    string
}

func (b branch) withKey(key string) branch {
	keys := make([]string, len(b.keys), len(b.keys)+1)
	copy(keys, b.keys)
	b.keys = append(keys, key)
	return b
}

type entry struct {
	key   string
	value any
	res   resolution
}

type walker struct {
	engine *Engine
	scope  *scope
	rules  *css.RuleSet
}

// walkObject processes every surviving key of obj in order.
func (w *walker) walkObject(obj *style.Object, ctx walkContext, b branch) error {
	for _, ent := range w.entries(obj) {
		switch {
		case ent.res.kind == keyCondition:
			next := b.withKey(ent.key)
			next.conditions = b.conditions.with(ent.res.condition)
			if err := w.walkValue(ent.value, ctx, next); err != nil {
				return err
			}

		case ent.res.kind == keyProperty && ctx == inConditionContext:
			prop := ent.res.property
			next := b.withKey(ent.key)
			next.property = &prop
			next.propKey = ent.key
			if err := w.walkValue(ent.value, inPropertyContext, next); err != nil {
				return err
			}

		default:
			return &UnknownStyleKeyError{Path: b.keys, Key: ent.key, Property: b.propKey}
		}
	}
	return nil
}

// entries classifies keys of obj and applies the override rule: when
// several keys at this level resolve to the same CSS property only the last
// one is kept, at its own position.
func (w *walker) entries(obj *style.Object) []entry {
	keys := obj.Keys()
	all := make([]entry, 0, len(keys))
	last := make(map[string]int)
	for i, k := range keys {
		v, _ := obj.Get(k)
		res := w.engine.classify(k)
		if res.kind == keyProperty {
			last[res.property.CSS] = i
		}
		all = append(all, entry{key: k, value: v, res: res})
	}

	kept := all[:0:0]
	for i, ent := range all {
		if ent.res.kind == keyProperty && last[ent.res.property.CSS] != i {
			w.engine.log.Debug("Property overridden", fieldKey(ent.key), fieldProperty(ent.res.property.CSS))
			continue
		}
		kept = append(kept, ent)
	}
	return kept
}

// walkValue descends into an object or emits a terminal.
func (w *walker) walkValue(value any, ctx walkContext, b branch) error {
	if obj, ok := value.(*style.Object); ok && obj != nil {
		if ctx == inPropertyContext && b.property.ObjectValues && !w.isConditionTree(obj) {
			return w.emit(value, b)
		}
		return w.walkObject(obj, ctx, b)
	}
	if ctx == inConditionContext {
		return &InvalidTerminalError{Path: b.keys, Value: value, Err: ErrNoProperty}
	}
	return w.emit(value, b)
}

// isConditionTree reports whether every key of obj is a condition.
func (w *walker) isConditionTree(obj *style.Object) bool {
	for _, k := range obj.Keys() {
		if w.engine.classify(k).kind != keyCondition {
			return false
		}
	}
	return true
}

// emit produces exactly one rule for a terminal value.
func (w *walker) emit(value any, b branch) error {
	prop := b.property

	raw, ok := style.FormatValue(value)
	if !ok {
		return &InvalidTerminalError{Path: b.keys, Value: value, Err: ErrUnsupportedValue}
	}

	var decls []css.Declaration
	_, isObject := value.(*style.Object)
	switch {
	case isObject && !prop.ObjectValues:
		return &InvalidTerminalError{Path: b.keys, Value: raw, Err: ErrObjectValue}
	case prop.Transform != nil:
		var err error
		if decls, err = prop.Transform(prop.CSS, value); err != nil {
			return &InvalidTerminalError{Path: b.keys, Value: raw, Err: err}
		}
		if len(decls) == 0 {
			return &InvalidTerminalError{Path: b.keys, Value: raw, Err: ErrNoDeclarations}
		}
	default:
		decls = []css.Declaration{{Property: prop.CSS, Value: raw}}
	}

	name := rawClassName(w.scope.text, b.conditions, prop.DisplayName, raw)
	if !utf8.ValidString(name) {
		return &InvalidTerminalError{Path: b.keys, Value: raw, Err: ErrInvalidUTF8}
	}
	w.rules.Append(w.scope.buildRule(b.conditions, name, decls))
	return nil
}
