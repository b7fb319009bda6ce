package striped

import (
	"errors"
	"fmt"
)

var (
	ErrSchema           = errors.New("schema mismatch")
	ErrRange            = errors.New("range out of bounds")
	ErrUnsupportedIndex = errors.New("unsupported index")
	ErrIO               = errors.New("shard i/o failed")
	ErrNoAttribute      = errors.New("attribute not found")
)

// SchemaError reports columns that are missing, non-numeric, or that
// disagree between shards.
type SchemaError struct {
	Shard  int // -1 when not tied to one shard
	Column string
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := "schema: "
	if e.Shard >= 0 {
		msg += fmt.Sprintf("shard %d: ", e.Shard)
	}
	if e.Column != "" {
		msg += fmt.Sprintf("column %q: ", e.Column)
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }
func (e *SchemaError) Unwrap() error        { return e.Err }

// RangeError reports a row range or shard index outside the valid bounds.
type RangeError struct {
	What       string
	Start, End int64
	Size       int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s [%d, %d) outside [0, %d)", e.What, e.Start, e.End, e.Size)
}

func (e *RangeError) Is(target error) bool { return target == ErrRange }

// UnsupportedIndexError reports an index form other than a single
// contiguous unit-step slice.
type UnsupportedIndexError struct {
	Reason string
}

func (e *UnsupportedIndexError) Error() string {
	return "unsupported index: " + e.Reason
}

func (e *UnsupportedIndexError) Is(target error) bool { return target == ErrUnsupportedIndex }

// IOError reports a shard that could not be opened or read.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Is(target error) bool { return target == ErrIO }
func (e *IOError) Unwrap() error        { return e.Err }

// errorKind labels err for metrics.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrRange):
		return "range"
	case errors.Is(err, ErrUnsupportedIndex):
		return "index"
	case errors.Is(err, ErrSchema):
		return "schema"
	}
	return "other"
}
