package striped

import (
	"fmt"
	"math"
	"sort"
)

// Attributes is the attribute map of a shard set's root object. Values are
// int64, uint64, float64, string, or slices of those.
type Attributes map[string]any

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Attributes) lookup(key string) (any, error) {
	v, ok := a[key]
	if !ok {
		return nil, fmt.Errorf("%q: %w", key, ErrNoAttribute)
	}
	return v, nil
}

// Float64s returns a numeric attribute as a slice; scalars become one
// element.
func (a Attributes) Float64s(key string) ([]float64, error) {
	v, err := a.lookup(key)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case float64:
		return []float64{t}, nil
	case int64:
		return []float64{float64(t)}, nil
	case uint64:
		return []float64{float64(t)}, nil
	case []float64:
		return append([]float64(nil), t...), nil
	case []int64:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	case []uint64:
		out := make([]float64, len(t))
		for i, x := range t {
			out[i] = float64(x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("attribute %q: %T is not numeric", key, v)
}

// Float64 returns a numeric attribute as a scalar. One-element arrays are
// accepted.
func (a Attributes) Float64(key string) (float64, error) {
	vals, err := a.Float64s(key)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("attribute %q: expected a scalar, got %d values", key, len(vals))
	}
	return vals[0], nil
}

// Int64s returns an integer attribute as a slice. Float values must be
// integral.
func (a Attributes) Int64s(key string) ([]int64, error) {
	v, err := a.lookup(key)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case int64:
		return []int64{t}, nil
	case uint64:
		return []int64{int64(t)}, nil
	case []int64:
		return append([]int64(nil), t...), nil
	case []uint64:
		out := make([]int64, len(t))
		for i, x := range t {
			out[i] = int64(x)
		}
		return out, nil
	}

	floats, err := a.Float64s(key)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(floats))
	for i, f := range floats {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("attribute %q: %v is not an integer", key, f)
		}
		out[i] = int64(f)
	}
	return out, nil
}

// Int64 returns an integer attribute as a scalar.
func (a Attributes) Int64(key string) (int64, error) {
	vals, err := a.Int64s(key)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, fmt.Errorf("attribute %q: expected a scalar, got %d values", key, len(vals))
	}
	return vals[0], nil
}

// String returns a string attribute.
func (a Attributes) String(key string) (string, error) {
	v, err := a.lookup(key)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case []string:
		if len(t) == 1 {
			return t[0], nil
		}
	}
	return "", fmt.Errorf("attribute %q: %T is not a string", key, v)
}

// Clone returns a shallow copy of a.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
