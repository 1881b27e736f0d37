package atomic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoProperty is reported when a value is reached before any property.
	ErrNoProperty = errors.New("value is not under a property")
	// ErrUnsupportedValue is reported for values that have no textual form.
	ErrUnsupportedValue = errors.New("unsupported value type")
	// ErrObjectValue is reported when a property without object-accepting
	// transform receives an object.
	ErrObjectValue = errors.New("property does not accept object values")
	// ErrNoDeclarations is reported when a transform produces nothing.
	ErrNoDeclarations = errors.New("transform produced no declarations")
	// ErrInvalidUTF8 is reported when text ending up in a class name is not
	// valid UTF-8.
	ErrInvalidUTF8 = errors.New("class name text is not valid UTF-8")
)

// UnknownStyleKeyError is returned when a key is neither a known condition
// nor a resolvable property where one is required.
type UnknownStyleKeyError struct {
	Path     []string // keys leading to the offending one
	Key      string
	Property string // set when key appeared inside a property value
}

func (e *UnknownStyleKeyError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("unknown style key %q at %s: only conditions are allowed inside property %q",
			e.Key, pathString(e.Path), e.Property)
	}
	return fmt.Sprintf("unknown style key %q at %s", e.Key, pathString(e.Path))
}

// InvalidTerminalError is returned when a terminal value cannot be turned
// into declarations.
type InvalidTerminalError struct {
	Path  []string // keys leading to the value, last is the value's key
	Value any
	Err   error
}

func (e *InvalidTerminalError) Error() string {
	return fmt.Sprintf("invalid value %v at %s: %v", e.Value, pathString(e.Path), e.Err)
}

func (e *InvalidTerminalError) Unwrap() error {
	return e.Err
}

// InvalidScopeFragmentError is returned for scope fragments which are
// neither selector templates nor at-rules.
type InvalidScopeFragmentError struct {
	Fragment string
	Err      error
}

func (e *InvalidScopeFragmentError) Error() string {
	return fmt.Sprintf("invalid scope fragment %q: %v", e.Fragment, e.Err)
}

func (e *InvalidScopeFragmentError) Unwrap() error {
	return e.Err
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return strings.Join(path, ".")
}
