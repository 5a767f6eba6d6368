package schema

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Compiled is a node compiled into a full JSON Schema validator. The
// generator itself only needs the recursive shape check in [Node.Validate];
// compiling is for callers that want to verify a produced document, extra
// hint fields included.
type Compiled struct {
	node     *Node
	compiled *jsonschema.Schema
}

// ValidationError wraps a JSON Schema validation failure with a cleaner
// message.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("schema validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Compile compiles the node for document validation.
func (n *Node) Compile() (*Compiled, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(n.JSON()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Compiled{node: n, compiled: compiled}, nil
}

// ValidateDocument validates a JSON document against the compiled schema.
// Returns nil if the document conforms, or a *[ValidationError].
func (c *Compiled) ValidateDocument(document string) error {
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(document))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	if err := c.compiled.Validate(instance); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// Node returns the node this validator was compiled from.
func (c *Compiled) Node() *Node {
	return c.node
}
