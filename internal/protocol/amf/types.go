package amf

import "fmt"

// Version selects an AMF dialect. It doubles as the packet-level version tag.
type Version uint16

const (
	Format0 Version = 0
	Format3 Version = 3
)

// ParseVersion maps a wire value to a Version.
func ParseVersion(v uint16) (Version, bool) {
	switch Version(v) {
	case Format0, Format3:
		return Version(v), true
	default:
		return 0, false
	}
}

func (v Version) String() string {
	switch v {
	case Format0:
		return "amf0"
	case Format3:
		return "amf3"
	default:
		return fmt.Sprintf("amf(%d)", uint16(v))
	}
}

// Kind identifies the shape of a Value independent of dialect.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindInteger
	KindString
	KindObject
	KindECMAArray
	KindArray
	KindDate
	KindXMLDocument
	KindXML
	KindByteArray
	KindIntVector
	KindUintVector
	KindDoubleVector
	KindObjectVector
	KindDictionary
	KindSwitch
)

var kindNames = [...]string{
	KindUndefined:    "undefined",
	KindNull:         "null",
	KindBoolean:      "boolean",
	KindNumber:       "number",
	KindInteger:      "integer",
	KindString:       "string",
	KindObject:       "object",
	KindECMAArray:    "ecma-array",
	KindArray:        "array",
	KindDate:         "date",
	KindXMLDocument:  "xml-document",
	KindXML:          "xml",
	KindByteArray:    "byte-array",
	KindIntVector:    "int-vector",
	KindUintVector:   "uint-vector",
	KindDoubleVector: "double-vector",
	KindObjectVector: "object-vector",
	KindDictionary:   "dictionary",
	KindSwitch:       "switch",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one node of a decoded or caller-built value tree.
type Value interface {
	Kind() Kind
}

type Undefined struct{}

type Null struct{}

type Boolean bool

type Number float64

// Integer is the AMF3 29-bit signed integer. In AMF0 it is written as a Number.
type Integer int32

type String string

type XMLDocument string

type XML string

// ByteArray aliases the buffer it was decoded from.
type ByteArray []byte

// Property is one key/value member of an object or associative array.
type Property struct {
	Key   string
	Value Value
}

// Object is an anonymous (empty ClassName) or typed object. Properties keep
// wire order.
type Object struct {
	ClassName  string
	Properties []Property
}

type ECMAArray struct {
	Properties []Property
}

// Array is an AMF0 strict array or an AMF3 array. Properties holds the AMF3
// associative part; a non-empty associative part forces AMF3 encoding.
type Array struct {
	Items      []Value
	Properties []Property
}

// Date holds milliseconds since the Unix epoch. TimeZone only exists in AMF0.
type Date struct {
	Millis   float64
	TimeZone int16
}

type IntVector struct {
	Fixed bool
	Items []int32
}

type UintVector struct {
	Fixed bool
	Items []uint32
}

type DoubleVector struct {
	Fixed bool
	Items []float64
}

type ObjectVector struct {
	ClassName string
	Fixed     bool
	Items     []Value
}

type DictEntry struct {
	Key   Value
	Value Value
}

type Dictionary struct {
	Weak    bool
	Entries []DictEntry
}

// Switch is the AMF0 avmplus marker: the wrapped value is AMF3 encoded.
type Switch struct {
	Value Value
}

func (Undefined) Kind() Kind    { return KindUndefined }
func (Null) Kind() Kind         { return KindNull }
func (Boolean) Kind() Kind      { return KindBoolean }
func (Number) Kind() Kind       { return KindNumber }
func (Integer) Kind() Kind      { return KindInteger }
func (String) Kind() Kind       { return KindString }
func (XMLDocument) Kind() Kind  { return KindXMLDocument }
func (XML) Kind() Kind          { return KindXML }
func (ByteArray) Kind() Kind    { return KindByteArray }
func (Object) Kind() Kind       { return KindObject }
func (ECMAArray) Kind() Kind    { return KindECMAArray }
func (Array) Kind() Kind        { return KindArray }
func (Date) Kind() Kind         { return KindDate }
func (IntVector) Kind() Kind    { return KindIntVector }
func (UintVector) Kind() Kind   { return KindUintVector }
func (DoubleVector) Kind() Kind { return KindDoubleVector }
func (ObjectVector) Kind() Kind { return KindObjectVector }
func (Dictionary) Kind() Kind   { return KindDictionary }
func (Switch) Kind() Kind       { return KindSwitch }

// Get returns the first property named key.
func (o Object) Get(key string) (Value, bool) {
	return findProperty(o.Properties, key)
}

// Get returns the first property named key.
func (a ECMAArray) Get(key string) (Value, bool) {
	return findProperty(a.Properties, key)
}

func findProperty(props []Property, key string) (Value, bool) {
	for _, p := range props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

func NewNumber(f float64) Number { return Number(f) }

func NewString(s string) String { return String(s) }

// Prop builds a Property.
func Prop(key string, v Value) Property {
	return Property{Key: key, Value: v}
}

// NewObject builds an anonymous object with properties in the given order.
func NewObject(props ...Property) Object {
	return Object{Properties: props}
}

// NewTypedObject builds an object carrying a class name.
func NewTypedObject(className string, props ...Property) Object {
	return Object{ClassName: className, Properties: props}
}

// NewArray builds a dense array.
func NewArray(items ...Value) Array {
	return Array{Items: items}
}

// Numbers builds a dense array of numbers, the usual shape of call arguments.
func Numbers(values ...float64) Array {
	items := make([]Value, len(values))
	for i, v := range values {
		items[i] = Number(v)
	}
	return Array{Items: items}
}
