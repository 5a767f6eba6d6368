package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndValidate(t *testing.T) {
	type input struct {
		document string
	}

	type expected struct {
		parseErr bool
		reason   string // substring of the validation error, "" for valid
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "full schema validates",
			input: input{document: `{
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"age": {"type": "number"},
					"is_student": {"type": "boolean"},
					"courses": {
						"type": "array",
						"items": {"type": "string"},
						"allowed_empty": true
					}
				}
			}`},
			expected: expected{},
		},
		{
			name:     "leaf schema validates",
			input:    input{document: `{"type": "boolean"}`},
			expected: expected{},
		},
		{
			name:     "empty properties validates",
			input:    input{document: `{"type": "object", "properties": {}}`},
			expected: expected{},
		},
		{
			name:     "malformed JSON is a parse error",
			input:    input{document: `{"type": `},
			expected: expected{parseErr: true},
		},
		{
			name:     "non-object root",
			input:    input{document: `[1, 2]`},
			expected: expected{reason: "expected a schema object"},
		},
		{
			name:     "missing type field",
			input:    input{document: `{"properties": {}}`},
			expected: expected{reason: "missing `type` field"},
		},
		{
			name:     "non-string type field",
			input:    input{document: `{"type": 3}`},
			expected: expected{reason: "`type` field must be a string"},
		},
		{
			name:     "unsupported type",
			input:    input{document: `{"type": "tuple"}`},
			expected: expected{reason: "invalid `type` value \"tuple\""},
		},
		{
			name:     "object missing properties",
			input:    input{document: `{"type": "object"}`},
			expected: expected{reason: "missing `properties` field in object"},
		},
		{
			name:     "properties not an object",
			input:    input{document: `{"type": "object", "properties": [1]}`},
			expected: expected{reason: "`properties` field must be an object"},
		},
		{
			name:     "array missing items",
			input:    input{document: `{"type": "array"}`},
			expected: expected{reason: "missing `items` field in array"},
		},
		{
			name: "nested property failure surfaces",
			input: input{document: `{
				"type": "object",
				"properties": {"tags": {"type": "array"}}
			}`},
			expected: expected{reason: "missing `items` field in array"},
		},
		{
			name: "non-object property schema",
			input: input{document: `{
				"type": "object",
				"properties": {"name": "string"}
			}`},
			expected: expected{reason: "expected a schema object"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			node, err := ParseString(tc.input.document)

			if tc.expected.parseErr {
				require.Error(t, err)
				var schemaErr *Error
				assert.ErrorAs(t, err, &schemaErr)
				return
			}
			require.NoError(t, err)

			err = node.Validate()
			if tc.expected.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var schemaErr *Error
			require.ErrorAs(t, err, &schemaErr)
			assert.Contains(t, schemaErr.Reason, tc.expected.reason)
		})
	}
}

func TestParse_PropertyOrder(t *testing.T) {
	node, err := ParseString(`{
		"type": "object",
		"properties": {
			"zebra": {"type": "string"},
			"alpha": {"type": "number"},
			"middle": {"type": "boolean"}
		}
	}`)
	require.NoError(t, err)
	require.NoError(t, node.Validate())

	names := make([]string, 0, len(node.Properties))
	for _, p := range node.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"zebra", "alpha", "middle"}, names)
}

func TestParse_ExtraFieldsPreserved(t *testing.T) {
	node, err := ParseString(`{
		"type": "array",
		"items": {"type": "string"},
		"allowed_empty": true,
		"description": "tags"
	}`)
	require.NoError(t, err)
	require.NoError(t, node.Validate())

	require.Len(t, node.Extra, 2)
	assert.Equal(t, "allowed_empty", node.Extra[0].Name)
	assert.Equal(t, "true", string(node.Extra[0].Value))
	assert.Equal(t, "description", node.Extra[1].Name)

	// Extra fields survive serialization, where they can hint the model.
	assert.Contains(t, node.String(), `"allowed_empty":true`)
}

func TestNode_JSON_PreservesDocument(t *testing.T) {
	document := `{"type":"object","properties":{"b":{"type":"string"},"a":{"type":"number"}}}`
	node, err := ParseString(document)
	require.NoError(t, err)
	assert.Equal(t, document, node.String())
}

func TestBuilders(t *testing.T) {
	node := Object(
		Prop("name", String()),
		Prop("age", Number()),
		Prop("courses", Array(String()).WithExtra("allowed_empty", true)),
		Prop("active", Boolean()),
	)

	require.NoError(t, node.Validate())
	assert.Equal(t,
		`{"type":"object","properties":{`+
			`"name":{"type":"string"},`+
			`"age":{"type":"number"},`+
			`"courses":{"type":"array","items":{"type":"string"},"allowed_empty":true},`+
			`"active":{"type":"boolean"}}}`,
		node.String(),
	)
}

func TestFromType(t *testing.T) {
	type Course struct {
		Title string `json:"title"`
		Hours int    `json:"hours"`
	}
	type Person struct {
		Name     string   `json:"name" description:"Full name"`
		Age      float64  `json:"age"`
		Student  bool     `json:"is_student"`
		Courses  []Course `json:"courses"`
		Internal string   `json:"-"`
		hidden   int
	}
	_ = Person{hidden: 0}

	node, err := FromType[Person]()
	require.NoError(t, err)
	require.NoError(t, node.Validate())

	names := make([]string, 0, len(node.Properties))
	for _, p := range node.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"name", "age", "is_student", "courses"}, names)

	assert.Equal(t, TypeString, node.Properties[0].Schema.Type)
	assert.Contains(t, node.Properties[0].Schema.String(), `"description":"Full name"`)
	assert.Equal(t, TypeNumber, node.Properties[1].Schema.Type)
	assert.Equal(t, TypeBoolean, node.Properties[2].Schema.Type)

	courses := node.Properties[3].Schema
	require.Equal(t, TypeArray, courses.Type)
	require.Equal(t, TypeObject, courses.Items.Type)
	assert.Equal(t, "title", courses.Items.Properties[0].Name)
	assert.Equal(t, "hours", courses.Items.Properties[1].Name)
}

func TestFromType_Unsupported(t *testing.T) {
	_, err := FromType[map[string]int]()
	require.Error(t, err)
	var schemaErr *Error
	assert.ErrorAs(t, err, &schemaErr)
}

func TestCompile_ValidateDocument(t *testing.T) {
	node, err := ParseString(`{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"age": {"type": "number"}
		}
	}`)
	require.NoError(t, err)

	compiled, err := node.Compile()
	require.NoError(t, err)

	assert.NoError(t, compiled.ValidateDocument(`{"name": "Ann", "age": 30.0}`))

	err = compiled.ValidateDocument(`{"name": 42, "age": "old"}`)
	require.Error(t, err)
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}
