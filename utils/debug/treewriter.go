// Package debug produces human readable dumps which go into the debug report.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

// TreeWriter accumulates an indented tree, two spaces per level.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw *TreeWriter) String() string {
	return tw.w.String()
}

func (tw *TreeWriter) pad(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

// Line writes a formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.pad(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Pair writes "key: value". Strings are quoted so that whitespace and
// control characters stay visible, other values are followed by their Go
// type.
func (tw *TreeWriter) Pair(depth int, key string, value any) {
	tw.pad(depth)
	tw.w.WriteString(key)
	tw.w.WriteString(": ")
	switch v := value.(type) {
	case string:
		tw.w.WriteString(strconv.Quote(v))
	case nil:
		tw.w.WriteString("<nil>")
	default:
		fmt.Fprintf(tw.w, "%v (%T)", v, v)
	}
	tw.w.WriteByte('\n')
}
