package registry

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// List writes a table of all conditions followed by all utilities.
func (r *Registry) List(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "CONDITION\tKIND\tFRAGMENT")
	for _, name := range r.Conditions.Names() {
		c, _ := r.Conditions.Classify(name)
		fragment := c.Fragment
		if c.Base {
			fragment = "(none)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, c.Kind, fragment)
	}

	fmt.Fprintln(tw, "\nUTILITY\tCLASS\tPROPERTY")
	for _, name := range r.Utilities.Names() {
		p, _ := r.Utilities.Resolve(name)
		property := p.CSS
		if props := r.Utilities.expands[name]; len(props) > 0 {
			property += " (" + strings.Join(props, ", ") + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, p.DisplayName, property)
	}
	return tw.Flush()
}
