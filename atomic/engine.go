package atomic

import (
	"go.uber.org/zap"

	"atomcss/css"
	"atomcss/style"
)

// Engine compiles style trees. It keeps no state between calls and is safe
// for concurrent use as long as its classifier and resolver are not
// modified.
type Engine struct {
	conditions ConditionClassifier
	properties PropertyResolver
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log.Named("atomic")
		}
	}
}

// New creates an engine on top of the given lookup tables.
func New(conditions ConditionClassifier, properties PropertyResolver, options ...Option) *Engine {
	if conditions == nil || properties == nil {
		panic("atomic.New: condition classifier and property resolver are required")
	}
	e := &Engine{
		conditions: conditions,
		properties: properties,
		log:        zap.NewNop(),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Options is input of a single Process call.
type Options struct {
	Styles *style.Object
	Scope  []string
}

// Process compiles styles into atomic rules in depth-first order. Either
// all of the input compiles or an error is returned.
func (e *Engine) Process(opts Options) (*css.RuleSet, error) {
	sc, err := composeScope(opts.Scope)
	if err != nil {
		return nil, err
	}

	w := &walker{engine: e, scope: sc, rules: &css.RuleSet{}}
	if opts.Styles != nil {
		if err := w.walkObject(opts.Styles, inConditionContext, branch{}); err != nil {
			return nil, err
		}
	}

	e.log.Debug("Styles processed", zap.Strings("scope", opts.Scope), zap.Int("rules", w.rules.Len()))
	return w.rules, nil
}

func fieldKey(key string) zap.Field {
	return zap.String("key", key)
}

func fieldProperty(property string) zap.Field {
	return zap.String("property", property)
}
