// Package schema provides the schema tree that drives generation.
//
// A schema is a JSON document of nested nodes. Every node declares a `type`
// of object, array, string, number, or boolean; object nodes declare their
// `properties`, array nodes their `items`. Unknown fields are preserved and
// serialized back into prompts (they can hint the model) but are otherwise
// ignored.
//
// Property order is significant: generated objects emit keys in the exact
// order the schema declares them, so parsing preserves declaration order
// rather than collapsing objects into maps.
//
//	node, err := schema.Parse([]byte(`{
//	    "type": "object",
//	    "properties": {
//	        "name": {"type": "string"},
//	        "age":  {"type": "number"}
//	    }
//	}`))
//
// Trees can also be built in code with [Object], [String], [Number],
// [Boolean], and [Array], or derived from a Go type with [FromType].
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Node kinds.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Property is a named child schema of an object node.
// Declaration order is preserved and determines output order.
type Property struct {
	Name   string
	Schema *Node
}

// Node is one typed unit of the schema tree. Nodes are built once (parsed or
// constructed) and read-only afterwards.
type Node struct {
	// Type is the declared `type` value, or "" when missing or non-string.
	Type string

	// Properties holds an object node's children in declaration order.
	Properties []Property

	// Items is an array node's element schema.
	Items *Node

	// Extra holds preserved unknown fields, in declaration order.
	Extra []ExtraField

	// Parse bookkeeping for validation error reporting.
	raw           json.RawMessage // original bytes of this fragment
	notObject     bool            // fragment was not a JSON object
	typeDeclared  bool            // a `type` field was present
	typeNotString bool            // `type` was present but not a string
	propsDeclared bool            // a `properties` field was present
	propsInvalid  bool            // `properties` was not an object
}

// ExtraField is an unknown field preserved on a node.
type ExtraField struct {
	Name  string
	Value json.RawMessage
}

// Error reports a malformed schema fragment or an unsupported type.
// It is fatal: generation never starts (or aborts) on a schema Error.
type Error struct {
	// Reason describes what is wrong.
	Reason string

	// Fragment is the offending fragment serialized as JSON.
	Fragment string
}

func (e *Error) Error() string {
	if e.Fragment == "" {
		return "schema: " + e.Reason
	}
	return fmt.Sprintf("schema: %s in %s", e.Reason, e.Fragment)
}

// errorf builds an Error naming the given fragment.
func errorf(n *Node, format string, args ...any) *Error {
	return &Error{
		Reason:   fmt.Sprintf(format, args...),
		Fragment: string(n.JSON()),
	}
}

// Parse reads a schema document. It only rejects malformed JSON; shape
// problems are reported by [Node.Validate] so that the caller gets the
// fragment-naming errors in one place.
func Parse(data []byte) (*Node, error) {
	if !json.Valid(data) {
		return nil, &Error{Reason: "invalid JSON document"}
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("invalid JSON document: %v", err)}
	}
	return parseNode(raw)
}

// ParseString is Parse for string input.
func ParseString(text string) (*Node, error) {
	return Parse([]byte(text))
}

// parseNode builds the tree for one fragment, preserving field order.
func parseNode(raw json.RawMessage) (*Node, error) {
	n := &Node{raw: compact(raw)}

	fields, ok, err := orderedFields(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		n.notObject = true
		return n, nil
	}

	for _, f := range fields {
		switch f.Name {
		case "type":
			n.typeDeclared = true
			var t string
			if err := json.Unmarshal(f.Value, &t); err != nil {
				n.typeNotString = true
			} else {
				n.Type = t
			}
		case "properties":
			n.propsDeclared = true
			props, ok, err := orderedFields(f.Value)
			if err != nil {
				return nil, err
			}
			if !ok {
				n.propsInvalid = true
				continue
			}
			for _, p := range props {
				child, err := parseNode(p.Value)
				if err != nil {
					return nil, err
				}
				n.Properties = append(n.Properties, Property{Name: p.Name, Schema: child})
			}
		case "items":
			child, err := parseNode(f.Value)
			if err != nil {
				return nil, err
			}
			n.Items = child
		default:
			n.Extra = append(n.Extra, ExtraField{Name: f.Name, Value: compact(f.Value)})
		}
	}

	return n, nil
}

// orderedFields decodes a JSON object into its fields in declaration order.
// ok is false when the fragment is not an object.
func orderedFields(raw json.RawMessage) ([]ExtraField, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, &Error{Reason: fmt.Sprintf("invalid JSON fragment: %v", err)}
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return nil, false, nil
	}

	var fields []ExtraField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false, &Error{Reason: fmt.Sprintf("invalid JSON fragment: %v", err)}
		}
		key := keyTok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false, &Error{Reason: fmt.Sprintf("invalid JSON fragment: %v", err)}
		}
		fields = append(fields, ExtraField{Name: key, Value: value})
	}
	return fields, true, nil
}

// compact normalizes a fragment's whitespace for error messages and prompts.
func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return json.RawMessage(buf.Bytes())
}

// Validate recursively checks the tree's shape. It returns a *[Error] naming
// the first offending fragment, or nil. It must pass before generation
// starts; generation performs the same type dispatch as a second layer.
func (n *Node) Validate() error {
	if n == nil || n.notObject {
		return errorf(n, "expected a schema object")
	}
	if !n.typeDeclared {
		return errorf(n, "missing `type` field")
	}
	if n.typeNotString {
		return errorf(n, "`type` field must be a string")
	}

	switch n.Type {
	case TypeObject:
		if !n.propsDeclared {
			return errorf(n, "missing `properties` field in object")
		}
		if n.propsInvalid {
			return errorf(n, "`properties` field must be an object")
		}
		for _, p := range n.Properties {
			if err := p.Schema.Validate(); err != nil {
				return err
			}
		}
	case TypeArray:
		if n.Items == nil {
			return errorf(n, "missing `items` field in array")
		}
		return n.Items.Validate()
	case TypeString, TypeNumber, TypeBoolean:
	default:
		return errorf(n, "invalid `type` value %q", n.Type)
	}
	return nil
}

// JSON serializes the node compactly, preserving declaration order.
// Parsed nodes render their original bytes; built nodes are synthesized.
func (n *Node) JSON() json.RawMessage {
	if n == nil {
		return json.RawMessage("null")
	}
	if n.raw != nil {
		return n.raw
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField := func(name string, value []byte) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}

	typ, _ := json.Marshal(n.Type)
	writeField("type", typ)
	if n.Type == TypeObject {
		var props bytes.Buffer
		props.WriteByte('{')
		for i, p := range n.Properties {
			if i > 0 {
				props.WriteByte(',')
			}
			key, _ := json.Marshal(p.Name)
			props.Write(key)
			props.WriteByte(':')
			props.Write(p.Schema.JSON())
		}
		props.WriteByte('}')
		writeField("properties", props.Bytes())
	}
	if n.Items != nil {
		writeField("items", n.Items.JSON())
	}
	for _, f := range n.Extra {
		writeField(f.Name, f.Value)
	}
	buf.WriteByte('}')
	return json.RawMessage(buf.Bytes())
}

// MarshalJSON implements json.Marshaler, preserving property order.
func (n *Node) MarshalJSON() ([]byte, error) {
	return n.JSON(), nil
}

// String returns the compact JSON form.
func (n *Node) String() string {
	return string(n.JSON())
}
