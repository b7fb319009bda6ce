package striped

import "fmt"

// Slice is an index in the style of a Python slice. Nil fields take their
// defaults: Start 0, Stop the size, Step 1. Negative Start and Stop count
// from the end.
type Slice struct {
	Start, Stop, Step *int64
}

// Span returns the slice [start:stop].
func Span(start, stop int64) Slice {
	return Slice{Start: &start, Stop: &stop}
}

// SliceOf builds a slice from optional bounds; pass nil for a default.
func SliceOf(start, stop, step *int64) Slice {
	return Slice{Start: start, Stop: stop, Step: step}
}

// All is the full slice [:].
var All = Slice{}

func (s Slice) String() string {
	f := func(p *int64) string {
		if p == nil {
			return ""
		}
		return fmt.Sprint(*p)
	}
	if s.Step == nil {
		return f(s.Start) + ":" + f(s.Stop)
	}
	return f(s.Start) + ":" + f(s.Stop) + ":" + f(s.Step)
}

// indices normalizes s against a sequence of length size. Out of range
// bounds are clamped, and a stop before start yields an empty range.
// Only unit steps are accepted.
func (s Slice) indices(size int64) (start, stop int64, err error) {
	if s.Step != nil && *s.Step != 1 {
		return 0, 0, &UnsupportedIndexError{Reason: fmt.Sprintf("step %d in slice %s; only step 1 is supported", *s.Step, s)}
	}

	clamp := func(p *int64, def int64) int64 {
		if p == nil {
			return def
		}
		v := *p
		if v < 0 {
			v += size
		}
		return min(max(v, 0), size)
	}

	start = clamp(s.Start, 0)
	stop = clamp(s.Stop, size)
	if stop < start {
		stop = start
	}
	return start, stop, nil
}
