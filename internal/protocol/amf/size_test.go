package amf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sizeSamples() map[string]Value {
	return map[string]Value{
		"null":      Null{},
		"number":    Number(3),
		"integer":   Integer(-5),
		"big int":   Integer(1 << 29),
		"string":    String("hello"),
		"long":      String(strings.Repeat("z", 70000)),
		"date":      Date{Millis: 5},
		"bytes":     ByteArray{1, 2, 3},
		"xml":       XML("<x/>"),
		"vectors":   NewArray(IntVector{Items: []int32{1}}, DoubleVector{Items: []float64{1, 2}}),
		"dict":      Dictionary{Entries: []DictEntry{{Key: Integer(1), Value: String("one")}}},
		"ecma":      ECMAArray{Properties: []Property{Prop("a", Number(1))}},
		"mixed":     Array{Items: []Value{Null{}}, Properties: []Property{Prop("k", Boolean(true))}},
		"typed":     NewTypedObject("Plant", Prop("id", Integer(300000))),
		"switch":    Switch{Value: NewObject(Prop("deep", NewArray(String("a"), String("a"))))},
		"objvector": ObjectVector{ClassName: "T", Items: []Value{Null{}}},
		"nested": NewObject(
			Prop("name", String("Mike")),
			Prop("age", Number(16)),
			Prop("pets", NewArray(NewObject(Prop("kind", String("cat"))))),
		),
	}
}

func TestSizeHintIsUpperBound(t *testing.T) {
	for name, v := range sizeSamples() {
		for _, mode := range []Version{Format0, Format3} {
			b, err := EncodeMode(v, mode)
			require.NoError(t, err, name)
			require.LessOrEqual(t, len(b), SizeHintMode(v, mode), "%s in %s", name, mode)
		}
		b, err := Encode(v)
		require.NoError(t, err, name)
		require.LessOrEqual(t, len(b), SizeHint(v), name)
	}
}

func TestSizeHintExactForAMF0Scalars(t *testing.T) {
	require.Equal(t, 9, SizeHint(Number(1)))
	require.Equal(t, 5, SizeHint(String("hi")))
	require.Equal(t, 1, SizeHint(Null{}))
}
