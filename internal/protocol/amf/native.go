package amf

import (
	"math"
	"strconv"
	"time"
)

// ToNative converts a value tree into plain Go values suitable for JSON
// output: maps, slices, strings, numbers, booleans, times and nil. Typed
// objects carry their class under the "$class" key. NaN and infinities
// become the strings "NaN", "+Inf" and "-Inf".
func ToNative(v Value) any {
	switch v := v.(type) {
	case nil, Null, Undefined:
		return nil
	case Boolean:
		return bool(v)
	case Number:
		return floatNative(float64(v))
	case Integer:
		return int32(v)
	case String:
		return string(v)
	case XMLDocument:
		return string(v)
	case XML:
		return string(v)
	case ByteArray:
		return []byte(v)
	case Date:
		return time.UnixMilli(int64(v.Millis)).UTC()
	case Object:
		m := propsNative(v.Properties)
		if v.ClassName != "" {
			m["$class"] = v.ClassName
		}
		return m
	case ECMAArray:
		return propsNative(v.Properties)
	case Array:
		if len(v.Properties) == 0 {
			return valuesNative(v.Items)
		}
		m := propsNative(v.Properties)
		for i, item := range v.Items {
			m[strconv.Itoa(i)] = ToNative(item)
		}
		return m
	case IntVector:
		return v.Items
	case UintVector:
		return v.Items
	case DoubleVector:
		out := make([]any, 0, len(v.Items))
		for _, f := range v.Items {
			out = append(out, floatNative(f))
		}
		return out
	case ObjectVector:
		return valuesNative(v.Items)
	case Dictionary:
		out := make([]map[string]any, 0, len(v.Entries))
		for _, e := range v.Entries {
			out = append(out, map[string]any{"key": ToNative(e.Key), "value": ToNative(e.Value)})
		}
		return out
	case Switch:
		return ToNative(v.Value)
	default:
		return nil
	}
}

func propsNative(props []Property) map[string]any {
	m := make(map[string]any, len(props))
	for _, p := range props {
		m[p.Key] = ToNative(p.Value)
	}
	return m
}

func valuesNative(items []Value) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, ToNative(item))
	}
	return out
}

func floatNative(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}
