package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// FromType derives a schema node from a Go type. Struct fields map to object
// properties in field-declaration order, honoring `json` tags (name and "-")
// and attaching `description` tags as extra fields.
//
// Supported: strings, booleans, all int/uint/float kinds (number), slices
// and arrays, nested structs, pointers (dereferenced), time.Time and
// time.Duration (string). Anything else fails: the generator can only emit
// the five schema kinds.
//
//	type Person struct {
//	    Name    string   `json:"name" description:"Full name"`
//	    Age     float64  `json:"age"`
//	    Courses []string `json:"courses"`
//	}
//	node, err := schema.FromType[Person]()
func FromType[T any]() (*Node, error) {
	var zero T
	return fromReflectType(reflect.TypeOf(zero))
}

func fromReflectType(t reflect.Type) (*Node, error) {
	if t == nil {
		return nil, &Error{Reason: "cannot derive schema from nil type"}
	}
	if t.Kind() == reflect.Ptr {
		return fromReflectType(t.Elem())
	}

	if t == reflect.TypeFor[time.Time]() || t == reflect.TypeFor[time.Duration]() {
		return String(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return String(), nil

	case reflect.Bool:
		return Boolean(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return Number(), nil

	case reflect.Slice, reflect.Array:
		items, err := fromReflectType(t.Elem())
		if err != nil {
			return nil, err
		}
		return Array(items), nil

	case reflect.Struct:
		var props []Property
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			name := field.Name
			if tag := field.Tag.Get("json"); tag != "" {
				parts := strings.Split(tag, ",")
				if parts[0] == "-" {
					continue
				}
				if parts[0] != "" {
					name = parts[0]
				}
			}

			child, err := fromReflectType(field.Type)
			if err != nil {
				return nil, err
			}
			if desc := field.Tag.Get("description"); desc != "" {
				child = child.WithExtra("description", desc)
			}
			props = append(props, Prop(name, child))
		}
		return Object(props...), nil

	default:
		return nil, &Error{
			Reason: fmt.Sprintf("cannot derive schema from type %s (kind %s)", t, t.Kind()),
		}
	}
}
