package amf

import "math"

// u29Max is the widest U29 encoding. Hints always assume it, and assume no
// string references are taken, so they never under-estimate.
const u29Max = 4

// SizeHint returns an upper bound on len(Encode(v)). It never fails; values
// of unknown type contribute zero.
func SizeHint(v Value) int {
	return size0(v)
}

// SizeHintMode returns an upper bound on len(EncodeMode(v, mode)).
func SizeHintMode(v Value, mode Version) int {
	if mode == Format3 {
		return size3(v)
	}
	return size0(v)
}

func size0(v Value) int {
	switch v := v.(type) {
	case nil, Null, Undefined:
		return 1
	case Boolean:
		return 2
	case Number, Integer:
		return 1 + 8
	case String:
		if len(v) <= math.MaxUint16 {
			return 1 + 2 + len(v)
		}
		return 1 + 4 + len(v)
	case XMLDocument:
		return 1 + 4 + len(v)
	case Date:
		return 1 + 8 + 2
	case Object:
		n := 1 + props0(v.Properties)
		if v.ClassName != "" {
			n += 2 + len(v.ClassName)
		}
		return n
	case ECMAArray:
		return 1 + 4 + props0(v.Properties)
	case Array:
		if len(v.Properties) > 0 {
			return 1 + size3(v)
		}
		n := 1 + 4
		for _, item := range v.Items {
			n += size0(item)
		}
		return n
	case Switch:
		return 1 + size3(v.Value)
	case XML, ByteArray, IntVector, UintVector, DoubleVector, ObjectVector, Dictionary:
		return 1 + size3(v)
	default:
		return 0
	}
}

// props0 covers the key/value pairs plus the 3-byte object end.
func props0(props []Property) int {
	n := 3
	for _, p := range props {
		n += 2 + len(p.Key) + size0(p.Value)
	}
	return n
}

func size3(v Value) int {
	switch v := v.(type) {
	case nil, Null, Undefined, Boolean:
		return 1
	case Number, Integer:
		return 1 + 8
	case String:
		return 1 + str3(string(v))
	case XMLDocument:
		return 1 + str3(string(v))
	case XML:
		return 1 + str3(string(v))
	case ByteArray:
		return 1 + u29Max + len(v)
	case Date:
		return 1 + u29Max + 8
	case Array:
		n := 1 + u29Max + props3(v.Properties)
		for _, item := range v.Items {
			n += size3(item)
		}
		return n
	case ECMAArray:
		return 1 + u29Max + props3(v.Properties)
	case Object:
		return 1 + u29Max + str3(v.ClassName) + props3(v.Properties)
	case IntVector:
		return 1 + u29Max + 1 + 4*len(v.Items)
	case UintVector:
		return 1 + u29Max + 1 + 4*len(v.Items)
	case DoubleVector:
		return 1 + u29Max + 1 + 8*len(v.Items)
	case ObjectVector:
		n := 1 + u29Max + 1 + str3(v.ClassName)
		for _, item := range v.Items {
			n += size3(item)
		}
		return n
	case Dictionary:
		n := 1 + u29Max + 1
		for _, e := range v.Entries {
			n += size3(e.Key) + size3(e.Value)
		}
		return n
	case Switch:
		return size3(v.Value)
	default:
		return 0
	}
}

func str3(s string) int {
	return u29Max + len(s)
}

// props3 covers the key/value pairs plus the empty-string terminator.
func props3(props []Property) int {
	n := 1
	for _, p := range props {
		n += str3(p.Key) + size3(p.Value)
	}
	return n
}
