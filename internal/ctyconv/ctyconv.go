// Package ctyconv converts between the plain Go values handlers exchange and
// cty values, so that declared handle types can be checked and enforced.
package ctyconv

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromGo converts a Go value into its cty.Value equivalent. Maps become
// objects and slices become tuples so that heterogeneous collections survive.
func FromGo(data any) (cty.Value, error) {
	if data == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}
	switch v := data.(type) {
	case cty.Value:
		return v, nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case float64:
		if err := checkFloat(v); err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(v), nil
	case float32:
		if err := checkFloat(float64(v)); err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(float64(v)), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int32:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case uint:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint64:
		return cty.NumberUIntVal(v), nil
	case json.Number:
		n, err := cty.ParseNumberVal(v.String())
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid number %q: %w", v.String(), err)
		}
		return n, nil
	case map[string]any:
		attrs := make(map[string]cty.Value, len(v))
		for key, val := range v {
			ctyVal, err := FromGo(val)
			if err != nil {
				return cty.NilVal, fmt.Errorf("key '%s': %w", key, err)
			}
			attrs[key] = ctyVal
		}
		return cty.ObjectVal(attrs), nil
	case map[string]string:
		attrs := make(map[string]cty.Value, len(v))
		for key, val := range v {
			attrs[key] = cty.StringVal(val)
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		elems := make([]cty.Value, 0, len(v))
		for i, val := range v {
			ctyVal, err := FromGo(val)
			if err != nil {
				return cty.NilVal, fmt.Errorf("index %d: %w", i, err)
			}
			elems = append(elems, ctyVal)
		}
		return cty.TupleVal(elems), nil
	case []string:
		elems := make([]cty.Value, 0, len(v))
		for _, val := range v {
			elems = append(elems, cty.StringVal(val))
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(data)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported type for conversion to cty.Value: %T", data)
	}
	return gocty.ToCtyValue(data, ty)
}

// ToGo converts a cty.Value back into plain Go values: string, float64 (or
// int64 for whole numbers), bool, map[string]any, []any or nil.
func ToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("cannot convert an unknown value of type %s", val.Type().FriendlyName())
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		f := val.AsBigFloat()
		if f.IsInf() {
			return nil, fmt.Errorf("infinite numbers cannot be represented")
		}
		return numberToGo(f), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			goVal, err := ToGo(v)
			if err != nil {
				return nil, fmt.Errorf("key '%s': %w", k.AsString(), err)
			}
			out[k.AsString()] = goVal
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			goVal, err := ToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, goVal)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}

func numberToGo(f *big.Float) any {
	if f.IsInt() {
		if i, acc := f.Int64(); acc == big.Exact {
			return i
		}
	}
	v, _ := f.Float64()
	return v
}

// Conforms converts data to the given type and returns the converted value as
// plain Go. A DynamicPseudoType accepts any value Plain accepts.
func Conforms(data any, ty cty.Type) (any, error) {
	if ty == cty.DynamicPseudoType {
		return Plain(data)
	}
	val, err := FromGo(data)
	if err != nil {
		return nil, err
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return nil, fmt.Errorf("value of type %s does not conform to %s: %w", val.Type().FriendlyName(), ty.FriendlyName(), err)
	}
	return ToGo(converted)
}

// Plain normalizes an untyped value so that it survives JSON encoding:
// cty values become plain Go, NaN and infinite floats are rejected, and any
// other value must be accepted by encoding/json.
func Plain(data any) (any, error) {
	switch v := data.(type) {
	case nil, string, bool, int, int32, int64, uint, uint64, json.Number:
		return v, nil
	case float64:
		return v, checkFloat(v)
	case float32:
		return v, checkFloat(float64(v))
	case cty.Value:
		return ToGo(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			plain, err := Plain(val)
			if err != nil {
				return nil, fmt.Errorf("key '%s': %w", key, err)
			}
			out[key] = plain
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for i, val := range v {
			plain, err := Plain(val)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, plain)
		}
		return out, nil
	}
	if _, err := json.Marshal(data); err != nil {
		return nil, fmt.Errorf("value of type %T cannot be represented: %w", data, err)
	}
	return data, nil
}

func checkFloat(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("number %v cannot be represented", f)
	}
	return nil
}
