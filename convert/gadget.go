package convert

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/robert-malhotra/cosmohdf5/gadget"
	"github.com/robert-malhotra/cosmohdf5/striped"
)

// ToGadget writes the particles of view as Gadget-1 files dest.0, dest.1,
// and so on, with header fields taken from attrs. Positions and velocities
// are written at opts.Precision and ids as little-endian uint64. Velocities
// are multiplied by a^-1/2, the Gadget peculiar velocity convention.
func ToGadget(ctx context.Context, view *striped.View, attrs striped.Attributes, dest string, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := requireColumns(view, "Position", "Velocity", opts.IDColumn); err != nil {
		return nil, err
	}

	header, err := gadget.HeaderFromAttrs(attrs)
	if err != nil {
		return nil, fmt.Errorf("building gadget header: %w", err)
	}
	if err := makeParent(dest); err != nil {
		return nil, err
	}

	chunks := Plan(view.Size(), opts.NPerFile)
	header.NumFiles = int32(len(chunks))
	velScale := 1 / math.Sqrt(header.Time)

	return run(ctx, view, chunks, opts, func(c Chunk, recs *striped.Records) (string, error) {
		pos, err := recs.Float64s("Position")
		if err != nil {
			return "", err
		}
		vel, err := recs.Float64s("Velocity")
		if err != nil {
			return "", err
		}
		ids, err := recs.Uint64s(opts.IDColumn)
		if err != nil {
			return "", err
		}
		for i := range vel {
			vel[i] *= velScale
		}

		h := *header
		h.Npart[1] = uint32(c.Len())

		path := fmt.Sprintf("%s.%d", dest, c.Index)
		if err := gadget.WriteFile(path, &h, encodeFloats(pos, opts.Precision), encodeFloats(vel, opts.Precision), encodeIDs(ids)); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return path, nil
	})
}

// encodeFloats packs vals little-endian as float32 for "f4" and float64
// otherwise.
func encodeFloats(vals []float64, precision string) []byte {
	if precision == "f4" {
		out := make([]byte, 4*len(vals))
		for i, v := range vals {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
		}
		return out
	}
	out := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

func encodeIDs(ids []uint64) []byte {
	out := make([]byte, 8*len(ids))
	for i, id := range ids {
		binary.LittleEndian.PutUint64(out[8*i:], id)
	}
	return out
}
