package structured

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddress struct {
	City    string `yaml:"city" schema:"required"`
	Country string `yaml:"country"`
}

type testProfile struct {
	Name    string      `yaml:"name" schema:"required,minLength=1"`
	Age     int         `yaml:"age" schema:"required,min=0,max=150"`
	Email   string      `yaml:"email" schema:"required,format=email"`
	Score   float64     `yaml:"score" schema:"min=0"`
	Tags    []string    `yaml:"tags" schema:"maxItems=10"`
	Address testAddress `yaml:"address"`
	Role    string      `yaml:"role" schema:"enum=admin|editor|viewer,default=viewer"`
	Code    string      `yaml:"code" schema:"pattern=^[a-z]{2,5}$"`

	Ignored string `yaml:"-"`
	hidden  string
}

func TestFromTypeOf_Struct(t *testing.T) {
	schema := FromTypeOf[testProfile]()
	require.Equal(t, TypeObject, schema.Type)

	assert.Equal(t,
		[]string{"name", "age", "email", "score", "tags", "address", "role", "code"},
		schema.Fields())

	assert.True(t, schema.IsRequired("name"))
	assert.True(t, schema.IsRequired("age"))
	assert.True(t, schema.IsRequired("email"))
	assert.False(t, schema.IsRequired("score"))

	name := schema.Property("name")
	require.NotNil(t, name)
	assert.Equal(t, TypeString, name.Type)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, 1, *name.MinLength)

	age := schema.Property("age")
	assert.Equal(t, TypeInteger, age.Type)
	require.NotNil(t, age.Minimum)
	assert.Equal(t, 0.0, *age.Minimum)
	require.NotNil(t, age.Maximum)
	assert.Equal(t, 150.0, *age.Maximum)

	assert.Equal(t, FormatEmail, schema.Property("email").Format)
	assert.Equal(t, TypeNumber, schema.Property("score").Type)

	tags := schema.Property("tags")
	require.Equal(t, TypeArray, tags.Type)
	assert.Equal(t, TypeString, tags.Items.Type)
	require.NotNil(t, tags.MaxItems)
	assert.Equal(t, 10, *tags.MaxItems)

	addr := schema.Property("address")
	require.Equal(t, TypeObject, addr.Type)
	assert.True(t, addr.IsRequired("city"))
	assert.Equal(t, []string{"city", "country"}, addr.Fields())

	role := schema.Property("role")
	assert.Equal(t, []any{"admin", "editor", "viewer"}, role.Enum)
	assert.Equal(t, "viewer", role.Default)

	assert.Nil(t, schema.Property("ignored"))
	assert.Nil(t, schema.Property("hidden"))
}

func TestFromTypeOf_PatternWithComma(t *testing.T) {
	// The {2,5} repetition contains a comma and must survive tag parsing.
	schema := FromTypeOf[testProfile]()
	assert.Equal(t, `^[a-z]{2,5}$`, schema.Property("code").Pattern)
}

func TestFromTypeOf_PatternWithEscapedBackslash(t *testing.T) {
	// Struct tags are unquoted with Go string rules, so regex escapes must
	// be doubled to survive reflect.StructTag.Get.
	type ticket struct {
		Ref string `yaml:"ref" schema:"required,pattern=^\\d{3}$"`
	}
	schema := FromTypeOf[ticket]()

	require.True(t, schema.IsRequired("ref"))
	assert.Equal(t, `^\d{3}$`, schema.Property("ref").Pattern)

	v := NewValidator()
	_, err := v.Validate("ref: \"123\"\n", schema)
	assert.NoError(t, err)
	_, err = v.Validate("ref: \"12a\"\n", schema)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "ref", schemaErr.Path)
}

func TestFromTypeOf_EmailFormatEnforced(t *testing.T) {
	schema := FromTypeOf[testProfile]()
	require.True(t, schema.IsRequired("email"))

	v := NewValidator()
	_, err := v.Validate("name: Ann\nage: 30\nemail: not-an-email\n", schema)
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "email", schemaErr.Path)

	_, err = v.Validate("name: Ann\nage: 30\nemail: ann@example.com\n", schema)
	assert.NoError(t, err)
}

func TestFromTypeOf_DefaultFieldName(t *testing.T) {
	type plain struct {
		FullName string
		Count    int
	}
	schema := FromTypeOf[plain]()
	// Untagged fields follow yaml.v3's lowercasing convention.
	assert.Equal(t, []string{"fullname", "count"}, schema.Fields())
}

func TestFromTypeOf_NonStructRoots(t *testing.T) {
	assert.Equal(t, TypeArray, FromTypeOf[[]int]().Type)
	assert.Equal(t, TypeInteger, FromTypeOf[[]int]().Items.Type)
	assert.Equal(t, TypeObject, FromTypeOf[map[string]string]().Type)
	assert.Equal(t, TypeString, FromTypeOf[string]().Type)
	assert.Equal(t, TypeBoolean, FromTypeOf[bool]().Type)
}

func TestFromTypeOf_PointerAndRecursive(t *testing.T) {
	type node struct {
		Value    int     `yaml:"value"`
		Children []*node `yaml:"children"`
	}
	schema := FromTypeOf[*node]()
	require.Equal(t, TypeObject, schema.Type)

	children := schema.Property("children")
	require.Equal(t, TypeArray, children.Type)
	// The recursive occurrence is left unconstrained rather than expanded.
	assert.Equal(t, TypeObject, children.Items.Type)
	assert.Empty(t, children.Items.Fields())
}

func TestFromTypeOf_InterfaceFieldUnconstrained(t *testing.T) {
	type doc struct {
		Meta any `yaml:"meta"`
	}
	schema := FromTypeOf[doc]()
	meta := schema.Property("meta")
	require.NotNil(t, meta)
	assert.Equal(t, FieldType(""), meta.Type)
}

func TestSchemaBuilder(t *testing.T) {
	schema := NewObject().
		AddProperty("name", NewString().WithMinLength(1)).
		AddProperty("port", NewInteger().WithMinimum(1).WithMaximum(65535)).
		AddProperty("hosts", NewList(NewString()).WithMinItems(1)).
		AddRequired("name", "port")

	assert.Equal(t, []string{"name", "port", "hosts"}, schema.Fields())
	assert.True(t, schema.IsRequired("port"))
	assert.False(t, schema.IsRequired("hosts"))

	// Re-adding a field keeps its position.
	schema.AddProperty("port", NewInteger())
	assert.Equal(t, []string{"name", "port", "hosts"}, schema.Fields())
}
