// Package atomic compiles nested style trees into ordered atomic CSS rules.
//
// A style tree is an ordered mapping where every key is either a condition
// (breakpoint, pseudo-class, colour mode or text direction) or a property.
// Which one it is depends only on two lookup tables supplied by the caller:
// a ConditionClassifier and a PropertyResolver. Once a property has been
// entered, everything below it must be a condition, ending in a terminal
// value. Every terminal produces exactly one css.Rule.
//
// # Conditions
//
// Conditions end up in different structural positions regardless of the
// order they were nested in:
//
//   - breakpoints wrap the rule in at-rules ("@screen sm { ... }"), the
//     earlier in the path the further out
//   - colour modes and directions prefix the selector with attribute
//     selectors ("[data-theme=dark] [dir=rtl] .name")
//   - pseudo-classes are appended to the selector (".name:hover:disabled")
//
// The base condition (conventionally "_") contributes nothing.
//
// # Class names
//
// The class name is built from the scope text, the condition names in path
// order, the property display name and the value:
//
//	[& > p]:ltr:sm:marginLeft-4
//
// and escaped character by character, so it stays readable and reversible
// (see Escape and Unescape).
//
// # Scope
//
// Scope fragments are either selector templates using "&" for the generated
// class ("& > p", "input:hover &") or at-rules ("@media print"). Selector
// templates are folded left to right; at-rules wrap outside of breakpoint
// at-rules.
//
// Pseudo-class conditions are appended to the selector after the scope has
// been applied, at its very end: "& > p" with hover gives ".name > p:hover",
// not ".name:hover > p". With a pseudo-element template such as
// "&::placeholder" this yields "::placeholder:hover", so combine
// pseudo-elements with user-action pseudo-classes in the template itself
// ("&:hover::placeholder") instead.
//
// # Usage
//
//	engine := atomic.New(conditions, utilities, atomic.WithLogger(log))
//	rules, err := engine.Process(atomic.Options{
//	    Styles: style.NewObject("bg", "red.300"),
//	})
//	fmt.Println(rules.String())
package atomic
