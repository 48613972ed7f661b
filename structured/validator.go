package structured

import (
	"fmt"
	"math"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ParseError reports malformed YAML syntax. The message is the underlying
// parser's, unmodified.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// SchemaError reports content that parsed but violates the schema. Path
// names the offending field; it is empty for document-level violations.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator checks raw YAML content against a Schema.
type Validator struct {
	formatValidators map[Format]func(string) bool
}

// NewValidator creates a Validator with the built-in format validators
// registered.
func NewValidator() *Validator {
	v := &Validator{formatValidators: make(map[Format]func(string) bool)}
	v.registerBuiltinFormats()
	return v
}

func (v *Validator) registerBuiltinFormats() {
	v.formatValidators[FormatEmail] = matchPattern(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	v.formatValidators[FormatURI] = matchPattern(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	v.formatValidators[FormatUUID] = matchPattern(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	v.formatValidators[FormatDate] = matchPattern(`^\d{4}-\d{2}-\d{2}$`)
	v.formatValidators[FormatDateTime] = matchPattern(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)
}

func matchPattern(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}

// RegisterFormat registers a custom format validator.
func (v *Validator) RegisterFormat(format Format, fn func(string) bool) {
	v.formatValidators[format] = fn
}

// Validate parses raw YAML and checks it against the schema. A syntax
// failure returns *ParseError; the first contract violation returns
// *SchemaError. On success it returns the decoded generic value.
func (v *Validator) Validate(raw string, schema *Schema) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if err := v.check(value, schema, ""); err != nil {
		return nil, err
	}
	return value, nil
}

// check walks the value against the schema and returns the first violation.
func (v *Validator) check(value any, schema *Schema, path string) error {
	if schema == nil {
		return nil
	}

	if len(schema.Enum) > 0 {
		found := false
		for _, allowed := range schema.Enum {
			if equalValues(value, allowed) {
				found = true
				break
			}
		}
		if !found {
			return &SchemaError{Path: path, Message: fmt.Sprintf("value must be one of: %v", schema.Enum)}
		}
	}

	switch schema.Type {
	case TypeString:
		return v.checkString(value, schema, path)
	case TypeInteger:
		return v.checkInteger(value, schema, path)
	case TypeNumber:
		return v.checkNumber(value, schema, path)
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return &SchemaError{Path: path, Message: fmt.Sprintf("expected boolean, got %T", value)}
		}
	case TypeObject:
		return v.checkObject(value, schema, path)
	case TypeArray:
		return v.checkArray(value, schema, path)
	}
	return nil
}

func (v *Validator) checkString(value any, schema *Schema, path string) error {
	str, ok := value.(string)
	if !ok {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected string, got %T", value)}
	}
	if schema.MinLength != nil && len(str) < *schema.MinLength {
		return &SchemaError{Path: path, Message: fmt.Sprintf("string length %d is less than minimum %d", len(str), *schema.MinLength)}
	}
	if schema.MaxLength != nil && len(str) > *schema.MaxLength {
		return &SchemaError{Path: path, Message: fmt.Sprintf("string length %d exceeds maximum %d", len(str), *schema.MaxLength)}
	}
	if schema.Pattern != "" {
		matched, err := regexp.MatchString(schema.Pattern, str)
		if err != nil {
			return &SchemaError{Path: path, Message: fmt.Sprintf("invalid pattern %q: %v", schema.Pattern, err)}
		}
		if !matched {
			return &SchemaError{Path: path, Message: fmt.Sprintf("string does not match pattern %q", schema.Pattern)}
		}
	}
	if schema.Format != "" {
		if fn, ok := v.formatValidators[schema.Format]; ok && !fn(str) {
			return &SchemaError{Path: path, Message: fmt.Sprintf("string does not match format %q", schema.Format)}
		}
	}
	return nil
}

func (v *Validator) checkInteger(value any, schema *Schema, path string) error {
	num, ok := toFloat64(value)
	if !ok {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected integer, got %T", value)}
	}
	if num != math.Trunc(num) {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected integer, got %v", num)}
	}
	return checkBounds(num, schema, path)
}

func (v *Validator) checkNumber(value any, schema *Schema, path string) error {
	num, ok := toFloat64(value)
	if !ok {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected number, got %T", value)}
	}
	return checkBounds(num, schema, path)
}

func checkBounds(num float64, schema *Schema, path string) error {
	if schema.Minimum != nil && num < *schema.Minimum {
		return &SchemaError{Path: path, Message: fmt.Sprintf("value %v is less than minimum %v", num, *schema.Minimum)}
	}
	if schema.Maximum != nil && num > *schema.Maximum {
		return &SchemaError{Path: path, Message: fmt.Sprintf("value %v exceeds maximum %v", num, *schema.Maximum)}
	}
	return nil
}

func (v *Validator) checkObject(value any, schema *Schema, path string) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected object, got %T", value)}
	}

	for _, req := range schema.Required {
		val, exists := obj[req]
		if !exists {
			return &SchemaError{Path: joinPath(path, req), Message: "required field is missing"}
		}
		if val == nil {
			return &SchemaError{Path: joinPath(path, req), Message: "required field must not be null"}
		}
	}

	for _, name := range schema.Fields() {
		val, exists := obj[name]
		if !exists || val == nil {
			continue
		}
		if err := v.check(val, schema.Property(name), joinPath(path, name)); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkArray(value any, schema *Schema, path string) error {
	arr, ok := value.([]any)
	if !ok {
		return &SchemaError{Path: path, Message: fmt.Sprintf("expected list, got %T", value)}
	}
	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		return &SchemaError{Path: path, Message: fmt.Sprintf("list has %d items, minimum is %d", len(arr), *schema.MinItems)}
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		return &SchemaError{Path: path, Message: fmt.Sprintf("list has %d items, maximum is %d", len(arr), *schema.MaxItems)}
	}
	if schema.Items != nil {
		for i, item := range arr {
			if err := v.check(item, schema.Items, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func equalValues(a, b any) bool {
	aNum, aIsNum := toFloat64(a)
	bNum, bIsNum := toFloat64(b)
	if aIsNum && bIsNum {
		return aNum == bNum
	}
	aStr, aIsStr := a.(string)
	bStr, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return aStr == bStr
	}
	aBool, aIsBool := a.(bool)
	bBool, bIsBool := b.(bool)
	if aIsBool && bIsBool {
		return aBool == bBool
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	// Composite enum values are unusual; compare by rendering.
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}
