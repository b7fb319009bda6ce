package striped

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributes(t *testing.T) {
	a := Attributes{
		"BoxSize":   1000.0,
		"NP.Matter": []int64{100, 50},
		"HubbleE":   []float64{1.25},
		"NumFiles":  int64(4),
		"Seed":      uint64(7),
		"Half":      2.5,
		"Name":      "run",
		"Names":     []string{"a", "b"},
	}

	assert.Equal(t, []string{"BoxSize", "Half", "HubbleE", "NP.Matter", "Name", "Names", "NumFiles", "Seed"}, a.Keys())

	f, err := a.Float64("BoxSize")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, f)

	f, err = a.Float64("HubbleE")
	require.NoError(t, err, "one-element arrays read as scalars")
	assert.Equal(t, 1.25, f)

	f, err = a.Float64("NumFiles")
	require.NoError(t, err)
	assert.Equal(t, 4.0, f)

	_, err = a.Float64("NP.Matter")
	assert.Error(t, err, "two values are not a scalar")

	fs, err := a.Float64s("NP.Matter")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 50}, fs)

	n, err := a.Int64("Seed")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	n, err = a.Int64("BoxSize")
	require.NoError(t, err, "integral floats convert")
	assert.Equal(t, int64(1000), n)

	_, err = a.Int64("Half")
	assert.Error(t, err)

	ns, err := a.Int64s("NP.Matter")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 50}, ns)

	s, err := a.String("Name")
	require.NoError(t, err)
	assert.Equal(t, "run", s)

	_, err = a.String("Names")
	assert.Error(t, err)
	_, err = a.Float64("Name")
	assert.Error(t, err)

	_, err = a.Float64("Missing")
	assert.ErrorIs(t, err, ErrNoAttribute)

	c := a.Clone()
	c["BoxSize"] = 1.0
	assert.Equal(t, 1000.0, a["BoxSize"])
}
