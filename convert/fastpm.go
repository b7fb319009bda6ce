package convert

import (
	"fmt"

	"github.com/robert-malhotra/cosmohdf5/striped"
)

// FastPMHeader maps the attributes of a FastPM Header block to snapshot
// header attributes. FastPM stores most scalars as arrays; their first
// element is used. NP.Matter and ParticleMass.Matter come from the dark
// matter slot (index 1) of TotNumPart and MassTable.
func FastPMHeader(attrs striped.Attributes) (striped.Attributes, error) {
	get := func(key string, i int) (float64, error) {
		vals, err := attrs.Float64s(key)
		if err != nil {
			return 0, err
		}
		if i >= len(vals) {
			return 0, fmt.Errorf("attribute %s has %d values, need index %d", key, len(vals), i)
		}
		return vals[i], nil
	}

	var (
		out = striped.Attributes{}
		err error
		v   float64
	)

	h, err := get("HubbleParam", 0)
	if err != nil {
		return nil, err
	}
	out["H0"] = h * 100

	a, err := get("Time", 0)
	if err != nil {
		return nil, err
	}
	if a <= 0 {
		return nil, fmt.Errorf("scale factor %g is not positive", a)
	}
	out["InitialRedshift"] = 1/a - 1
	out["Redshift"] = 1/a - 1

	counts, err := attrs.Int64s("TotNumPart")
	if err != nil {
		return nil, err
	}
	if len(counts) < 2 {
		return nil, fmt.Errorf("attribute TotNumPart has %d values, need index 1", len(counts))
	}
	out["NP.Matter"] = counts[1]

	hubbleE, err := get("HubbleE", 0)
	if err != nil {
		return nil, err
	}
	out["HubbleNow"] = hubbleE * h * 100

	for _, m := range []struct {
		from, to string
		index    int
	}{
		{"BoxSize", "BoxSize", 0},
		{"MassTable", "ParticleMass.Matter", 1},
		{"OmegaM", "Omega_M", 0},
		{"OmegaLambda", "Omega_DE", 0},
		{"GrowthFactor", "GrowthRatio", 0},
		{"GrowthRate", "f_growth", 0},
		{"RSDFactor", "RSDFactor", 0},
	} {
		if v, err = get(m.from, m.index); err != nil {
			return nil, err
		}
		out[m.to] = v
	}
	return out, nil
}
