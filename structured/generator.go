package structured

import (
	"reflect"
	"strconv"
	"strings"
)

// FromType derives a Schema from a Go type via reflection.
//
// Field names come from the "yaml" struct tag, defaulting to the lowercased
// field name to match yaml.v3 decoding. Constraints come from the "schema"
// tag, a comma-separated option list:
//
//	required            mark the field as required
//	min=N / max=N       numeric bounds
//	minLength=N / maxLength=N
//	minItems=N / maxItems=N
//	pattern=RE          regular expression for strings
//	format=NAME         named string format (email, uri, uuid, ...)
//	enum=a|b|c          allowed values, pipe-separated
//	default=V           placeholder value for example rendering
//	description=TEXT    field description
//
// Tag values go through Go's quoted-string unescaping before they reach
// this package, so a backslash in a pattern must be doubled: write
// `schema:"pattern=^\\d+$"`, not `pattern=^\d+$` (the latter makes the
// whole tag unreadable and its options are lost). Named formats avoid the
// escaping entirely for common cases.
//
// Kinds with no structured representation (funcs, channels) map to string;
// interface fields map to an unconstrained schema.
func FromType(t reflect.Type) *Schema {
	g := &generator{visited: make(map[reflect.Type]bool)}
	return g.schemaFor(t)
}

// FromTypeOf derives a Schema from the type parameter T.
func FromTypeOf[T any]() *Schema {
	return FromType(reflect.TypeOf((*T)(nil)).Elem())
}

type generator struct {
	visited map[reflect.Type]bool
}

func (g *generator) schemaFor(t reflect.Type) *Schema {
	if t == nil {
		return &Schema{}
	}
	if t.Kind() == reflect.Ptr {
		return g.schemaFor(t.Elem())
	}
	if g.visited[t] {
		// Recursive type; leave the nested occurrence unconstrained.
		return NewObject()
	}

	switch t.Kind() {
	case reflect.String:
		return NewString()
	case reflect.Bool:
		return NewBoolean()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewInteger()
	case reflect.Float32, reflect.Float64:
		return NewNumber()
	case reflect.Slice, reflect.Array:
		return NewList(g.schemaFor(t.Elem()))
	case reflect.Map:
		return NewObject()
	case reflect.Struct:
		return g.structSchema(t)
	case reflect.Interface:
		return &Schema{}
	default:
		return NewString()
	}
}

func (g *generator) structSchema(t reflect.Type) *Schema {
	g.visited[t] = true
	defer delete(g.visited, t)

	schema := NewObject()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := yamlFieldName(field)
		if name == "-" {
			continue
		}

		fieldSchema := g.schemaFor(field.Type)
		applySchemaTag(fieldSchema, field)
		if hasOption(field, "required") {
			schema.AddRequired(name)
		}
		schema.AddProperty(name, fieldSchema)
	}
	return schema
}

func yamlFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("yaml")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}

func hasOption(field reflect.StructField, name string) bool {
	_, ok := parseTagOptions(field.Tag.Get("schema"))[name]
	return ok
}

func applySchemaTag(schema *Schema, field reflect.StructField) {
	options := parseTagOptions(field.Tag.Get("schema"))
	if len(options) == 0 {
		return
	}

	if desc, ok := options["description"]; ok {
		schema.Description = desc
	}
	if def, ok := options["default"]; ok {
		schema.Default = parseDefault(def, field.Type)
	}
	if enum, ok := options["enum"]; ok {
		values := strings.Split(enum, "|")
		schema.Enum = make([]any, len(values))
		for i, v := range values {
			schema.Enum[i] = strings.TrimSpace(v)
		}
	}
	if pattern, ok := options["pattern"]; ok {
		schema.Pattern = pattern
	}
	if format, ok := options["format"]; ok {
		schema.Format = Format(format)
	}
	if v, ok := floatOption(options, "min"); ok {
		schema.Minimum = &v
	}
	if v, ok := floatOption(options, "max"); ok {
		schema.Maximum = &v
	}
	if v, ok := intOption(options, "minLength"); ok {
		schema.MinLength = &v
	}
	if v, ok := intOption(options, "maxLength"); ok {
		schema.MaxLength = &v
	}
	if v, ok := intOption(options, "minItems"); ok {
		schema.MinItems = &v
	}
	if v, ok := intOption(options, "maxItems"); ok {
		schema.MaxItems = &v
	}
}

func floatOption(options map[string]string, key string) (float64, bool) {
	raw, ok := options[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, err == nil
}

func intOption(options map[string]string, key string) (int, bool) {
	raw, ok := options[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}

// parseTagOptions splits "required,min=1,pattern=^[a-z]{2,5}$" into a map.
// Segments without "=" that are not known boolean options are rejoined to
// the previous value, so commas inside patterns survive.
func parseTagOptions(tag string) map[string]string {
	options := make(map[string]string)
	if tag == "" {
		return options
	}

	var lastKey string
	for _, part := range strings.Split(tag, ",") {
		if key, value, found := strings.Cut(part, "="); found && isOptionKey(key) {
			key = strings.TrimSpace(key)
			options[key] = value
			lastKey = key
			continue
		}
		trimmed := strings.TrimSpace(part)
		if trimmed == "required" {
			options[trimmed] = ""
			lastKey = ""
			continue
		}
		if lastKey != "" {
			options[lastKey] += "," + part
		}
	}
	return options
}

func isOptionKey(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func parseDefault(value string, t reflect.Type) any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return value == "true"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return value
}
