package style

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/unicode/norm"
	yaml "gopkg.in/yaml.v3"
)

// Document is a single unit of compiler input: a style tree and an optional
// scope.
type Document struct {
	Scope  []string `yaml:"scope,omitempty"`
	Styles *Object  `yaml:"styles"`
}

// UnmarshalYAML decodes a YAML mapping keeping key order. Keys and string
// values are brought to Unicode NFC so canonically equivalent input yields the
// same class names.
func (o *Object) UnmarshalYAML(node *yaml.Node) error {
	obj, err := objectFromNode(node)
	if err != nil {
		return err
	}
	*o = *obj
	return nil
}

// DecodeDocuments reads a (possibly multi-document) YAML stream of style
// documents.
func DecodeDocuments(r io.Reader) ([]Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var docs []Document
	for {
		var doc Document
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode style document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, doc)
	}
}

func objectFromNode(node *yaml.Node) (*Object, error) {
	for node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: style object must be a mapping", node.Line)
	}

	obj := &Object{values: make(map[string]any, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: style key must be a scalar", keyNode.Line)
		}
		value, err := valueFromNode(valueNode)
		if err != nil {
			return nil, err
		}
		obj.Set(norm.NFC.String(keyNode.Value), value)
	}
	return obj, nil
}

func valueFromNode(node *yaml.Node) (any, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	switch node.Kind {
	case yaml.MappingNode:
		return objectFromNode(node)
	case yaml.SequenceNode:
		return nil, fmt.Errorf("line %d: sequences are not supported in style trees", node.Line)
	case yaml.ScalarNode:
	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node", node.Line)
	}

	switch node.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int
		if err := node.Decode(&i); err != nil {
			return nil, err
		}
		return i, nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return norm.NFC.String(node.Value), nil
	}
}
