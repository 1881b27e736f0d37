package registry

import (
	"errors"
	"fmt"

	"atomcss/atomic"
	"atomcss/config"
	"atomcss/css"
	"atomcss/style"
)

type transformDef struct {
	objects bool // accepts *style.Object values
	build   func(config.UtilityConfig) (atomic.Transform, error)
}

// transforms are value transforms utilities may name in configuration.
var transforms = map[string]transformDef{
	// same value on every listed property: mx -> margin-left, margin-right
	"expand": {build: func(uc config.UtilityConfig) (atomic.Transform, error) {
		if len(uc.Properties) == 0 {
			return nil, errors.New("transform expand requires properties")
		}
		props := append([]string(nil), uc.Properties...)
		return func(_ string, value any) ([]css.Declaration, error) {
			text, err := scalar(value)
			if err != nil {
				return nil, err
			}
			decls := make([]css.Declaration, 0, len(props))
			for _, p := range props {
				decls = append(decls, css.Declaration{Property: p, Value: text})
			}
			return decls, nil
		}, nil
	}},

	// scalar -> property, object -> property-key for every key:
	// border: {width: 1px, style: solid}
	"longhand": {objects: true, build: func(config.UtilityConfig) (atomic.Transform, error) {
		return longhand, nil
	}},

	"important": {build: func(config.UtilityConfig) (atomic.Transform, error) {
		return func(property string, value any) ([]css.Declaration, error) {
			text, err := scalar(value)
			if err != nil {
				return nil, err
			}
			return []css.Declaration{{Property: property, Value: text + " !important"}}, nil
		}, nil
	}},
}

// TransformNames lists transforms which may be used in configuration.
func TransformNames() []string {
	return sortedKeys(transforms)
}

func longhand(property string, value any) ([]css.Declaration, error) {
	obj, ok := value.(*style.Object)
	if !ok {
		text, err := scalar(value)
		if err != nil {
			return nil, err
		}
		return []css.Declaration{{Property: property, Value: text}}, nil
	}

	decls := make([]css.Declaration, 0, obj.Len())
	var err error
	obj.Each(func(key string, v any) {
		if err != nil {
			return
		}
		var text string
		if text, err = scalar(v); err != nil {
			err = fmt.Errorf("%s: %w", key, err)
			return
		}
		decls = append(decls, css.Declaration{Property: property + "-" + key, Value: text})
	})
	if err != nil {
		return nil, err
	}
	return decls, nil
}

// scalar returns textual form of string and number values.
func scalar(value any) (string, error) {
	if _, ok := value.(*style.Object); ok {
		return "", errors.New("expected a string or a number, got an object")
	}
	text, ok := style.FormatValue(value)
	if !ok {
		return "", fmt.Errorf("expected a string or a number, got %T", value)
	}
	return text, nil
}
