package ctyconv

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestFromGo(t *testing.T) {
	t.Run("primitives", func(t *testing.T) {
		cases := []struct {
			in   any
			want cty.Value
		}{
			{"hi", cty.StringVal("hi")},
			{true, cty.True},
			{42, cty.NumberIntVal(42)},
			{int64(7), cty.NumberIntVal(7)},
			{1.5, cty.NumberFloatVal(1.5)},
			{json.Number("12"), cty.NumberIntVal(12)},
		}
		for _, tc := range cases {
			got, err := FromGo(tc.in)
			require.NoError(t, err)
			assert.True(t, tc.want.RawEquals(got), "want %#v, got %#v", tc.want, got)
		}
	})

	t.Run("nested collections", func(t *testing.T) {
		got, err := FromGo(map[string]any{
			"name": "grid",
			"tags": []any{"a", 1},
		})
		require.NoError(t, err)
		assert.True(t, got.Type().IsObjectType())
		assert.True(t, got.GetAttr("tags").Type().IsTupleType())
	})

	t.Run("nil is a dynamic null", func(t *testing.T) {
		got, err := FromGo(nil)
		require.NoError(t, err)
		assert.True(t, got.IsNull())
	})

	t.Run("unsupported values", func(t *testing.T) {
		_, err := FromGo(make(chan int))
		assert.Error(t, err)
	})

	t.Run("non-finite floats are rejected", func(t *testing.T) {
		for _, in := range []any{math.NaN(), math.Inf(1), float32(math.Inf(-1)), []any{1, math.NaN()}} {
			_, err := FromGo(in)
			require.Error(t, err, "input %v", in)
			assert.Contains(t, err.Error(), "cannot be represented")
		}
	})
}

func TestToGo(t *testing.T) {
	val := cty.ObjectVal(map[string]cty.Value{
		"count": cty.NumberIntVal(3),
		"ratio": cty.NumberFloatVal(0.25),
		"ok":    cty.True,
		"names": cty.ListVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
		"none":  cty.NullVal(cty.String),
	})

	got, err := ToGo(val)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"count": int64(3),
		"ratio": 0.25,
		"ok":    true,
		"names": []any{"a", "b"},
		"none":  nil,
	}, got)
}

func TestToGo_Unknown(t *testing.T) {
	_, err := ToGo(cty.UnknownVal(cty.String))
	assert.Error(t, err)
}

func TestConforms(t *testing.T) {
	t.Run("dynamic passes through", func(t *testing.T) {
		in := map[string]any{"x": 1}
		got, err := Conforms(in, cty.DynamicPseudoType)
		require.NoError(t, err)
		assert.Equal(t, in, got)
	})

	t.Run("safe conversion", func(t *testing.T) {
		got, err := Conforms(12, cty.String)
		require.NoError(t, err)
		assert.Equal(t, "12", got)
	})

	t.Run("tuple to list", func(t *testing.T) {
		got, err := Conforms([]any{"a", "b"}, cty.List(cty.String))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, got)
	})

	t.Run("object to typed object", func(t *testing.T) {
		ty := cty.Object(map[string]cty.Type{"n": cty.Number})
		got, err := Conforms(map[string]any{"n": "5"}, ty)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": int64(5)}, got)
	})

	t.Run("mismatch", func(t *testing.T) {
		_, err := Conforms(true, cty.Number)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not conform to number")
	})
}

func TestPlain(t *testing.T) {
	t.Run("cty values become plain Go", func(t *testing.T) {
		got, err := Plain(map[string]any{"greeting": cty.StringVal("hello"), "n": []any{cty.NumberIntVal(2)}})

		require.NoError(t, err)
		assert.Equal(t, map[string]any{"greeting": "hello", "n": []any{int64(2)}}, got)
	})

	t.Run("JSON encodable values pass", func(t *testing.T) {
		type payload struct {
			Name string `json:"name"`
		}
		got, err := Plain(payload{Name: "x"})

		require.NoError(t, err)
		assert.Equal(t, payload{Name: "x"}, got)
	})

	t.Run("unrepresentable values", func(t *testing.T) {
		cases := map[string]any{
			"nan":           math.NaN(),
			"infinity":      math.Inf(1),
			"nested nan":    map[string]any{"a": []any{math.NaN()}},
			"channel":       make(chan int),
			"cty infinity":  cty.PositiveInfinity,
			"nan in struct": struct{ F float64 }{F: math.NaN()},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := Plain(in)
				assert.Error(t, err)
			})
		}
	})

	t.Run("results survive JSON encoding", func(t *testing.T) {
		got, err := Conforms(map[string]any{"v": cty.StringVal("hello")}, cty.DynamicPseudoType)
		require.NoError(t, err)

		raw, err := json.Marshal(got)

		require.NoError(t, err)
		assert.JSONEq(t, `{"v":"hello"}`, string(raw))
	})
}
