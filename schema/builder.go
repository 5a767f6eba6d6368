package schema

import "encoding/json"

// Object creates an object node. Properties keep the order they are given,
// which is the order generated objects will emit them.
//
// Example:
//
//	schema.Object(
//	    schema.Prop("name", schema.String()),
//	    schema.Prop("age", schema.Number()),
//	    schema.Prop("courses", schema.Array(schema.String()).
//	        WithExtra("allowed_empty", true)),
//	)
func Object(properties ...Property) *Node {
	return &Node{
		Type:          TypeObject,
		Properties:    properties,
		typeDeclared:  true,
		propsDeclared: true,
	}
}

// Prop pairs a property name with its schema.
func Prop(name string, n *Node) Property {
	return Property{Name: name, Schema: n}
}

// String creates a string node.
func String() *Node {
	return &Node{Type: TypeString, typeDeclared: true}
}

// Number creates a number node.
func Number() *Node {
	return &Node{Type: TypeNumber, typeDeclared: true}
}

// Boolean creates a boolean node.
func Boolean() *Node {
	return &Node{Type: TypeBoolean, typeDeclared: true}
}

// Array creates an array node with the given item schema.
func Array(items *Node) *Node {
	return &Node{Type: TypeArray, Items: items, typeDeclared: true}
}

// WithExtra attaches an extra field to the node. The engine ignores extra
// fields, but they are serialized into guided prompts and can steer the
// model (e.g. "allowed_empty" on arrays, "description" anywhere).
// Values that fail to marshal are dropped. Returns the node for chaining.
func (n *Node) WithExtra(name string, value any) *Node {
	raw, err := json.Marshal(value)
	if err != nil {
		return n
	}
	n.Extra = append(n.Extra, ExtraField{Name: name, Value: raw})
	return n
}
