package registry

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"

	"atomcss/atomic"
	"atomcss/config"
)

// Utilities resolves style keys to CSS properties. It is immutable after
// construction.
type Utilities struct {
	table   map[string]atomic.Property
	expands map[string][]string
}

// NewUtilities builds a property resolver from configuration. Every problem
// found is reported, not only the first one.
func NewUtilities(cfg map[string]config.UtilityConfig) (*Utilities, error) {
	u := &Utilities{
		table:   make(map[string]atomic.Property, len(cfg)),
		expands: make(map[string][]string),
	}

	var err error
	for _, name := range sortedKeys(cfg) {
		uc := cfg[name]
		if !utf8.ValidString(name) || !utf8.ValidString(uc.ClassName) {
			err = multierr.Append(err, fmt.Errorf("utility %q: %w", name, atomic.ErrInvalidUTF8))
			continue
		}
		if uc.Property == "" {
			err = multierr.Append(err, fmt.Errorf("utility %q: property is empty", name))
			continue
		}
		prop := atomic.Property{CSS: uc.Property, DisplayName: uc.ClassName}
		if prop.DisplayName == "" {
			prop.DisplayName = name
		}
		if uc.Transform != "" {
			t, ok := transforms[uc.Transform]
			if !ok {
				err = multierr.Append(err, fmt.Errorf("utility %q: unknown transform %q", name, uc.Transform))
				continue
			}
			fn, e := t.build(uc)
			if e != nil {
				err = multierr.Append(err, fmt.Errorf("utility %q: %w", name, e))
				continue
			}
			prop.Transform, prop.ObjectValues = fn, t.objects
		}
		u.table[name] = prop
		if len(uc.Properties) > 0 {
			u.expands[name] = append([]string(nil), uc.Properties...)
		}
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Resolve implements atomic.PropertyResolver.
func (u *Utilities) Resolve(key string) (atomic.Property, bool) {
	p, ok := u.table[key]
	return p, ok
}

// Names returns all utility names in natural order.
func (u *Utilities) Names() []string {
	return sortedKeys(u.table)
}

// Registry is a pair of lookup tables built from the same configuration.
type Registry struct {
	Conditions *Conditions
	Utilities  *Utilities
}

// New builds both lookup tables from configuration.
func New(cfg *config.Config) (*Registry, error) {
	conds, errC := NewConditions(&cfg.Conditions)
	utils, errU := NewUtilities(cfg.Utilities)
	if err := multierr.Combine(errC, errU); err != nil {
		return nil, fmt.Errorf("invalid registry configuration: %w", err)
	}
	return &Registry{Conditions: conds, Utilities: utils}, nil
}

// Engine creates compilation engine over the registry.
func (r *Registry) Engine(options ...atomic.Option) *atomic.Engine {
	return atomic.New(r.Conditions, r.Utilities, options...)
}
