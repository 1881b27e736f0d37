package style

import (
	"atomcss/utils/debug"
)

// String returns a readable tree of the document. It exists solely for
// manual inspection of the debug report.
func (d *Document) String() string {
	if d == nil {
		return "<nil Document>"
	}

	tw := debug.NewTreeWriter()
	if len(d.Scope) > 0 {
		tw.Line(0, "Scope: %d", len(d.Scope))
		for i, f := range d.Scope {
			tw.Line(1, "Fragment[%d] %q", i, f)
		}
	}
	if d.Styles == nil {
		tw.Line(0, "Styles: <none>")
		return tw.String()
	}
	tw.Line(0, "Styles: %d", d.Styles.Len())
	dumpObject(tw, 1, d.Styles)
	return tw.String()
}

func dumpObject(tw *debug.TreeWriter, depth int, o *Object) {
	o.Each(func(key string, value any) {
		if obj, ok := value.(*Object); ok && obj != nil {
			tw.Line(depth, "%s: %d", key, obj.Len())
			dumpObject(tw, depth+1, obj)
			return
		}
		tw.Pair(depth, key, value)
	})
}
