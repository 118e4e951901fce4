package amf

import "fmt"

// FieldSpec declares a known field of a decoded object.
type FieldSpec struct {
	Key      string
	Kind     Kind
	Required bool
}

// Schema lists the fields a call site expects in a response object.
type Schema struct {
	Fields []FieldSpec
}

// Record is an object whose declared fields were checked against a Schema.
type Record struct {
	ClassName string
	Fields    map[string]Value
	Unknown   []Property
}

// ParseObject validates v against schema. v may be an Object, an ECMAArray,
// or either of those behind a switch marker. KindNumber accepts Integer
// values too, since AMF3 peers send small numbers as integers.
func ParseObject(v Value, schema Schema) (*Record, error) {
	className, props, err := objectProperties(v)
	if err != nil {
		return nil, err
	}
	known := make(map[string]FieldSpec, len(schema.Fields))
	for _, spec := range schema.Fields {
		known[spec.Key] = spec
	}

	rec := &Record{
		ClassName: className,
		Fields:    make(map[string]Value, len(schema.Fields)),
	}
	for _, p := range props {
		spec, ok := known[p.Key]
		if !ok {
			rec.Unknown = append(rec.Unknown, p)
			continue
		}
		if _, seen := rec.Fields[p.Key]; seen {
			continue
		}
		if !kindMatches(p.Value, spec.Kind) {
			return nil, WrongKindError{Key: p.Key, Want: spec.Kind, Got: kindOf(p.Value)}
		}
		rec.Fields[p.Key] = unwrap(p.Value)
	}
	for _, spec := range schema.Fields {
		if !spec.Required {
			continue
		}
		if _, ok := rec.Fields[spec.Key]; !ok {
			return nil, MissingFieldError{Key: spec.Key}
		}
	}
	return rec, nil
}

// Has reports whether the declared field was present.
func (r *Record) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

func (r *Record) field(key string) (Value, error) {
	v, ok := r.Fields[key]
	if !ok {
		return nil, MissingFieldError{Key: key}
	}
	return v, nil
}

func (r *Record) Number(key string) (float64, error) {
	v, err := r.field(key)
	if err != nil {
		return 0, err
	}
	return asNumber(key, v)
}

func (r *Record) String(key string) (string, error) {
	v, err := r.field(key)
	if err != nil {
		return "", err
	}
	return asString(key, v)
}

func (r *Record) Bool(key string) (bool, error) {
	v, err := r.field(key)
	if err != nil {
		return false, err
	}
	return asBool(key, v)
}

// Object parses a nested object field against its own schema.
func (r *Record) Object(key string, schema Schema) (*Record, error) {
	v, err := r.field(key)
	if err != nil {
		return nil, err
	}
	return ParseObject(v, schema)
}

// Lookup returns the named property of an object value.
func Lookup(v Value, key string) (Value, error) {
	_, props, err := objectProperties(v)
	if err != nil {
		return nil, err
	}
	if found, ok := findProperty(props, key); ok {
		return unwrap(found), nil
	}
	return nil, MissingFieldError{Key: key}
}

// AsNumber returns a Number or Integer value as float64.
func AsNumber(v Value) (float64, error) {
	return asNumber("", v)
}

func AsString(v Value) (string, error) {
	return asString("", v)
}

func AsBool(v Value) (bool, error) {
	return asBool("", v)
}

func asNumber(key string, v Value) (float64, error) {
	switch v := unwrap(v).(type) {
	case Number:
		return float64(v), nil
	case Integer:
		return float64(v), nil
	default:
		return 0, WrongKindError{Key: key, Want: KindNumber, Got: kindOf(v)}
	}
}

func asString(key string, v Value) (string, error) {
	if s, ok := unwrap(v).(String); ok {
		return string(s), nil
	}
	return "", WrongKindError{Key: key, Want: KindString, Got: kindOf(v)}
}

func asBool(key string, v Value) (bool, error) {
	if b, ok := unwrap(v).(Boolean); ok {
		return bool(b), nil
	}
	return false, WrongKindError{Key: key, Want: KindBoolean, Got: kindOf(v)}
}

func objectProperties(v Value) (string, []Property, error) {
	switch v := unwrap(v).(type) {
	case Object:
		return v.ClassName, v.Properties, nil
	case ECMAArray:
		return "", v.Properties, nil
	default:
		return "", nil, fmt.Errorf("%w: got %s", ErrNotObject, kindOf(v))
	}
}

func kindMatches(v Value, want Kind) bool {
	got := kindOf(v)
	switch want {
	case KindNumber:
		return got == KindNumber || got == KindInteger
	case KindObject:
		return got == KindObject || got == KindECMAArray
	default:
		return got == want
	}
}

// unwrap strips switch markers.
func unwrap(v Value) Value {
	for {
		s, ok := v.(Switch)
		if !ok {
			return v
		}
		v = s.Value
	}
}

func kindOf(v Value) Kind {
	v = unwrap(v)
	if v == nil {
		return KindNull
	}
	return v.Kind()
}
