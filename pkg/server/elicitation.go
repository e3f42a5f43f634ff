package server

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	js "github.com/invopop/jsonschema"

	"github.com/mcp-use/mcp-go/pkg/protocol"
)

// Elicitation schemas are deliberately flat: an object of primitive
// properties, nothing nested. Struct types handed to Context.Elicit are
// projected into that shape here, and accepted content is decoded back into
// the struct with the same metadata.

type elicitField struct {
	name     string
	index    []int
	required bool
	kind     reflect.Kind
	enum     map[string]struct{}
	min, max *float64
	def      interface{}
	pointer  bool
}

type elicitProjection struct {
	schema protocol.ElicitationSchema
	fields []elicitField
}

var elicitCache sync.Map // reflect.Type -> *elicitProjection

// projectElicitSchema derives the wire schema and decode metadata for a
// struct type. Results are cached per type.
func projectElicitSchema(t reflect.Type) (*elicitProjection, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("elicitation schema requires a struct type, got %s", t.Kind())
	}
	if cached, ok := elicitCache.Load(t); ok {
		return cached.(*elicitProjection), nil
	}

	byName := make(map[string]reflect.StructField)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := jsonFieldName(f)
		if name == "-" {
			continue
		}
		byName[name] = f
	}

	reflector := &js.Reflector{DoNotReference: true, ExpandedStruct: true}
	root := reflector.Reflect(reflect.New(t).Interface())
	if root == nil || root.Type != "object" {
		return nil, fmt.Errorf("elicitation schema for %s did not project to an object", t)
	}

	required := make(map[string]struct{}, len(root.Required))
	for _, name := range root.Required {
		required[name] = struct{}{}
	}

	proj := &elicitProjection{
		schema: protocol.ElicitationSchema{
			Type:       "object",
			Properties: make(map[string]protocol.PrimitiveSchemaDefinition),
		},
	}

	if root.Properties != nil {
		for el := root.Properties.Oldest(); el != nil; el = el.Next() {
			name, prop := el.Key, el.Value
			if prop == nil {
				return nil, fmt.Errorf("field %s projected to a nil schema", name)
			}
			if prop.Type == "object" || prop.Type == "array" || prop.Ref != "" ||
				len(prop.AllOf) > 0 || len(prop.AnyOf) > 0 || len(prop.OneOf) > 0 ||
				prop.Items != nil {
				return nil, fmt.Errorf("field %s is not a flat primitive; elicitation schemas cannot nest", name)
			}

			sf, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("schema property %s has no matching struct field", name)
			}
			ft := sf.Type
			pointer := ft.Kind() == reflect.Pointer
			if pointer {
				ft = ft.Elem()
			}
			wireType, ok := elicitWireType(prop.Type, ft.Kind())
			if !ok {
				return nil, fmt.Errorf("field %s has unsupported type %s", name, ft.Kind())
			}

			def := protocol.PrimitiveSchemaDefinition{
				Type:        wireType,
				Title:       prop.Title,
				Description: prop.Description,
				Default:     prop.Default,
			}

			meta := elicitField{
				name:    name,
				index:   sf.Index,
				kind:    ft.Kind(),
				def:     prop.Default,
				pointer: pointer,
			}

			if len(prop.Enum) > 0 {
				if wireType != "string" {
					return nil, fmt.Errorf("field %s: enums are only supported on strings", name)
				}
				def.Enum = make([]interface{}, len(prop.Enum))
				meta.enum = make(map[string]struct{}, len(prop.Enum))
				for i, ev := range prop.Enum {
					sv, ok := ev.(string)
					if !ok {
						return nil, fmt.Errorf("field %s has a non-string enum value", name)
					}
					def.Enum[i] = sv
					meta.enum[sv] = struct{}{}
				}
			}
			if prop.Minimum != "" {
				if f, err := strconv.ParseFloat(string(prop.Minimum), 64); err == nil {
					def.Minimum = &f
					meta.min = &f
				}
			}
			if prop.Maximum != "" {
				if f, err := strconv.ParseFloat(string(prop.Maximum), 64); err == nil {
					def.Maximum = &f
					meta.max = &f
				}
			}

			_, isRequired := required[name]
			// Pointer fields and fields with a default are always optional
			// on the wire.
			meta.required = isRequired && !pointer && meta.def == nil
			if meta.required {
				proj.schema.Required = append(proj.schema.Required, name)
			}

			proj.schema.Properties[name] = def
			proj.fields = append(proj.fields, meta)
		}
	}

	if len(proj.schema.Properties) == 0 {
		return nil, fmt.Errorf("elicitation schema for %s has no usable fields", t)
	}

	actual, _ := elicitCache.LoadOrStore(t, proj)
	return actual.(*elicitProjection), nil
}

// decodeElicitContent populates target (a pointer to struct) from the
// accepted content, enforcing required fields, enum membership, and numeric
// bounds, and applying projected defaults for absent optional fields.
func decodeElicitContent(proj *elicitProjection, target interface{}, content json.RawMessage) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("elicitation decode target must be a non-nil pointer")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("elicitation decode target must point to a struct")
	}

	var values map[string]interface{}
	if len(content) > 0 {
		if err := json.Unmarshal(content, &values); err != nil {
			return fmt.Errorf("failed to decode elicitation content: %w", err)
		}
	}
	if values == nil {
		values = map[string]interface{}{}
	}

	for _, fm := range proj.fields {
		val, present := values[fm.name]
		if !present || val == nil {
			if fm.required {
				return fmt.Errorf("elicitation content is missing required field %s", fm.name)
			}
			if fm.def != nil {
				val = fm.def
			} else {
				continue
			}
		}

		fv := rv.FieldByIndex(fm.index)
		if fm.pointer {
			if fv.IsNil() {
				fv.Set(reflect.New(fv.Type().Elem()))
			}
			fv = fv.Elem()
		}
		if err := setElicitField(fm, fv, val); err != nil {
			return err
		}
	}
	return nil
}

func setElicitField(fm elicitField, fv reflect.Value, val interface{}) error {
	switch fm.kind {
	case reflect.String:
		s, ok := val.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", fm.name, val)
		}
		if fm.enum != nil {
			if _, ok := fm.enum[s]; !ok {
				return fmt.Errorf("field %s: %q is not one of the allowed values", fm.name, s)
			}
		}
		fv.SetString(s)
	case reflect.Bool:
		b, ok := val.(bool)
		if !ok {
			return fmt.Errorf("field %s: expected boolean, got %T", fm.name, val)
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := numericValue(val)
		if !ok {
			return fmt.Errorf("field %s: expected number, got %T", fm.name, val)
		}
		if err := checkElicitBounds(fm, f); err != nil {
			return err
		}
		fv.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := numericValue(val)
		if !ok || f < 0 {
			return fmt.Errorf("field %s: expected non-negative number, got %v", fm.name, val)
		}
		if err := checkElicitBounds(fm, f); err != nil {
			return err
		}
		fv.SetUint(uint64(f))
	case reflect.Float32, reflect.Float64:
		f, ok := numericValue(val)
		if !ok {
			return fmt.Errorf("field %s: expected number, got %T", fm.name, val)
		}
		if err := checkElicitBounds(fm, f); err != nil {
			return err
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("field %s: unsupported kind %s", fm.name, fm.kind)
	}
	return nil
}

func checkElicitBounds(fm elicitField, v float64) error {
	if fm.min != nil && v < *fm.min {
		return fmt.Errorf("field %s: %v is below the minimum %v", fm.name, v, *fm.min)
	}
	if fm.max != nil && v > *fm.max {
		return fmt.Errorf("field %s: %v is above the maximum %v", fm.name, v, *fm.max)
	}
	return nil
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
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
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" {
		return lowerFirst(f.Name)
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return lowerFirst(f.Name)
	}
	return name
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func elicitWireType(schemaType string, kind reflect.Kind) (string, bool) {
	switch schemaType {
	case "string":
		if kind == reflect.String {
			return "string", true
		}
	case "integer":
		if isIntegerKind(kind) {
			return "integer", true
		}
	case "number":
		if isIntegerKind(kind) || kind == reflect.Float32 || kind == reflect.Float64 {
			return "number", true
		}
	case "boolean":
		if kind == reflect.Bool {
			return "boolean", true
		}
	}
	return "", false
}

func isIntegerKind(kind reflect.Kind) bool {
	return (kind >= reflect.Int && kind <= reflect.Int64) ||
		(kind >= reflect.Uint && kind <= reflect.Uint64)
}
