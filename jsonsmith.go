// Package jsonsmith forces free-form language model output into valid JSON
// conforming to a schema.
//
// The model is treated as an opaque generation oracle: jsonsmith walks the
// schema tree, asks the oracle for small bursts of text, truncates each burst
// at the first syntactically meaningful boundary with a stopping pattern, and
// assembles the pieces into a single growing JSON document. The oracle never
// needs to know JSON exists.
//
// See [Session] for the entry point and the schema subpackage for building
// and validating schema trees.
package jsonsmith
