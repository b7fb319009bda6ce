package convert

import (
	"fmt"

	"go.uber.org/zap"
)

// Columns are the particle columns every conversion reads, in output order.
var Columns = []string{"Position", "Velocity", "ParticleID"}

// Options configures a conversion.
type Options struct {
	// NPerFile is the target number of particles per output file.
	NPerFile int64

	// Precision of floating point output, "f4" or "f8". Only Gadget
	// output is converted; HDF5 output keeps the source dtypes.
	Precision string

	// IDColumn names the particle id column of the input view.
	IDColumn string

	// ChunkRows, when positive, stores HDF5 output datasets in chunks of
	// this many rows instead of contiguously.
	ChunkRows int64

	// Workers is the number of files written concurrently.
	Workers int

	Logger *zap.Logger
}

// DefaultOptions returns single precision output with 2^20 particles per
// file, written one file at a time.
func DefaultOptions() Options {
	return Options{
		NPerFile:  1 << 20,
		Precision: "f4",
		IDColumn:  "ParticleID",
		Workers:   1,
		Logger:    zap.NewNop(),
	}
}

func (o *Options) validate() error {
	if o.NPerFile < 1 {
		return fmt.Errorf("particles per file must be positive, got %d", o.NPerFile)
	}
	switch o.Precision {
	case "f4", "f8":
	default:
		return fmt.Errorf("unsupported precision %q (want f4 or f8)", o.Precision)
	}
	if o.IDColumn == "" {
		o.IDColumn = "ParticleID"
	}
	if o.ChunkRows < 0 {
		return fmt.Errorf("chunk rows must not be negative, got %d", o.ChunkRows)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return nil
}
