package amf

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var rewardSchema = Schema{Fields: []FieldSpec{
	{Key: "integral", Kind: KindNumber, Required: true},
	{Key: "name", Kind: KindString},
	{Key: "medal", Kind: KindObject},
	{Key: "ok", Kind: KindBoolean},
}}

func TestParseObject(t *testing.T) {
	v := NewObject(
		Prop("integral", Integer(40)),
		Prop("name", String("x")),
		Prop("medal", NewObject(Prop("amount", Number(3)))),
		Prop("extra", Null{}),
	)
	rec, err := ParseObject(v, rewardSchema)
	require.NoError(t, err)

	n, err := rec.Number("integral")
	require.NoError(t, err)
	require.Equal(t, 40.0, n)

	s, err := rec.String("name")
	require.NoError(t, err)
	require.Equal(t, "x", s)

	require.False(t, rec.Has("ok"))
	_, err = rec.Bool("ok")
	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "ok", missing.Key)

	medal, err := rec.Object("medal", Schema{Fields: []FieldSpec{{Key: "amount", Kind: KindNumber, Required: true}}})
	require.NoError(t, err)
	amount, err := medal.Number("amount")
	require.NoError(t, err)
	require.Equal(t, 3.0, amount)

	require.Equal(t, []Property{Prop("extra", Null{})}, rec.Unknown)
}

func TestParseObjectMissingRequired(t *testing.T) {
	_, err := ParseObject(NewObject(Prop("name", String("x"))), rewardSchema)
	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "integral", missing.Key)
}

func TestParseObjectWrongKind(t *testing.T) {
	_, err := ParseObject(NewObject(Prop("integral", String("40"))), rewardSchema)
	var wrong WrongKindError
	require.True(t, errors.As(err, &wrong))
	require.Equal(t, "integral", wrong.Key)
	require.Equal(t, KindNumber, wrong.Want)
	require.Equal(t, KindString, wrong.Got)
}

func TestParseObjectThroughSwitch(t *testing.T) {
	v := Switch{Value: ECMAArray{Properties: []Property{Prop("integral", Number(1))}}}
	rec, err := ParseObject(v, rewardSchema)
	require.NoError(t, err)
	require.True(t, rec.Has("integral"))
}

func TestParseObjectNotObject(t *testing.T) {
	_, err := ParseObject(Number(1), rewardSchema)
	require.ErrorIs(t, err, ErrNotObject)
}

func TestLookupAndAccessors(t *testing.T) {
	v := Switch{Value: NewObject(
		Prop("now_id", Integer(12)),
		Prop("tools", NewArray()),
		Prop("flag", Boolean(true)),
	)}

	id, err := Lookup(v, "now_id")
	require.NoError(t, err)
	n, err := AsNumber(id)
	require.NoError(t, err)
	require.Equal(t, 12.0, n)

	flag, err := Lookup(v, "flag")
	require.NoError(t, err)
	b, err := AsBool(flag)
	require.NoError(t, err)
	require.True(t, b)

	_, err = AsString(flag)
	var wrong WrongKindError
	require.True(t, errors.As(err, &wrong))
	require.Equal(t, KindString, wrong.Want)

	_, err = Lookup(v, "absent")
	var missing MissingFieldError
	require.True(t, errors.As(err, &missing))
}

func TestToNative(t *testing.T) {
	v := NewTypedObject("Reward",
		Prop("items", NewArray(Number(1), String("two"))),
		Prop("when", Date{Millis: 0}),
		Prop("inner", Switch{Value: NewObject(Prop("n", Integer(4)))}),
	)
	got := ToNative(v)
	require.Equal(t, map[string]any{
		"$class": "Reward",
		"items":  []any{1.0, "two"},
		"when":   time.UnixMilli(0).UTC(),
		"inner":  map[string]any{"n": int32(4)},
	}, got)
}

func TestToNativeNonFiniteFloats(t *testing.T) {
	v := NewObject(
		Prop("nan", Number(math.NaN())),
		Prop("up", Number(math.Inf(1))),
		Prop("down", Number(math.Inf(-1))),
		Prop("vec", DoubleVector{Items: []float64{1.5, math.NaN()}}),
	)
	require.Equal(t, map[string]any{
		"nan":  "NaN",
		"up":   "+Inf",
		"down": "-Inf",
		"vec":  []any{1.5, "NaN"},
	}, ToNative(v))
}
