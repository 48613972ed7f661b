package structured

// FieldType enumerates the value kinds a schema field can take.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Format names well-known string shapes with built-in validators.
type Format string

const (
	FormatEmail    Format = "email"
	FormatURI      Format = "uri"
	FormatUUID     Format = "uuid"
	FormatDate     Format = "date"
	FormatDateTime Format = "date-time"
)

// Schema describes the contract a decoded value must satisfy: field names,
// types, and constraints. A zero Type means any value is acceptable at that
// position. Schemas are built once and treated as immutable afterwards.
type Schema struct {
	Type        FieldType
	Description string

	// Object fields.
	Properties map[string]*Schema
	Required   []string
	order      []string // insertion order, for deterministic rendering

	// Array element schema.
	Items *Schema

	// Value constraints.
	Enum      []any
	Pattern   string
	Format    Format
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	MinItems  *int
	MaxItems  *int
	Default   any
}

// NewObject creates an object schema with no fields.
func NewObject() *Schema {
	return &Schema{Type: TypeObject, Properties: make(map[string]*Schema)}
}

// NewString creates a string schema.
func NewString() *Schema { return &Schema{Type: TypeString} }

// NewInteger creates an integer schema.
func NewInteger() *Schema { return &Schema{Type: TypeInteger} }

// NewNumber creates a floating-point number schema.
func NewNumber() *Schema { return &Schema{Type: TypeNumber} }

// NewBoolean creates a boolean schema.
func NewBoolean() *Schema { return &Schema{Type: TypeBoolean} }

// NewList creates an array schema whose elements match items.
func NewList(items *Schema) *Schema { return &Schema{Type: TypeArray, Items: items} }

// AddProperty adds a named field to an object schema and returns the schema
// for chaining. Re-adding a name replaces the field but keeps its position.
func (s *Schema) AddProperty(name string, prop *Schema) *Schema {
	if s.Properties == nil {
		s.Properties = make(map[string]*Schema)
	}
	if _, exists := s.Properties[name]; !exists {
		s.order = append(s.order, name)
	}
	s.Properties[name] = prop
	return s
}

// AddRequired marks field names as required on an object schema.
func (s *Schema) AddRequired(names ...string) *Schema {
	s.Required = append(s.Required, names...)
	return s
}

// WithDescription sets the field description.
func (s *Schema) WithDescription(desc string) *Schema {
	s.Description = desc
	return s
}

// WithEnum restricts the value to the given set.
func (s *Schema) WithEnum(values ...any) *Schema {
	s.Enum = values
	return s
}

// WithPattern sets a regular expression a string value must match.
func (s *Schema) WithPattern(pattern string) *Schema {
	s.Pattern = pattern
	return s
}

// WithFormat sets a named string format.
func (s *Schema) WithFormat(format Format) *Schema {
	s.Format = format
	return s
}

// WithMinimum sets the lower bound for numeric values.
func (s *Schema) WithMinimum(min float64) *Schema {
	s.Minimum = &min
	return s
}

// WithMaximum sets the upper bound for numeric values.
func (s *Schema) WithMaximum(max float64) *Schema {
	s.Maximum = &max
	return s
}

// WithMinLength sets the minimum string length.
func (s *Schema) WithMinLength(min int) *Schema {
	s.MinLength = &min
	return s
}

// WithMaxLength sets the maximum string length.
func (s *Schema) WithMaxLength(max int) *Schema {
	s.MaxLength = &max
	return s
}

// WithMinItems sets the minimum array length.
func (s *Schema) WithMinItems(min int) *Schema {
	s.MinItems = &min
	return s
}

// WithMaxItems sets the maximum array length.
func (s *Schema) WithMaxItems(max int) *Schema {
	s.MaxItems = &max
	return s
}

// WithDefault sets the placeholder value used when rendering examples.
func (s *Schema) WithDefault(def any) *Schema {
	s.Default = def
	return s
}

// Fields returns the object field names in the order they were added.
func (s *Schema) Fields() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Property returns the schema for a named field, or nil.
func (s *Schema) Property(name string) *Schema {
	if s.Properties == nil {
		return nil
	}
	return s.Properties[name]
}

// IsRequired reports whether a field name is required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
