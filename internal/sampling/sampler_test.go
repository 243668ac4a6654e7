package sampling

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// fixedSource returns a scripted sequence of floats.
type fixedSource struct {
	vals []float64
	i    int
}

func (f *fixedSource) Float64() (float64, error) {
	if f.i >= len(f.vals) {
		f.i = 0
	}
	v := f.vals[f.i]
	f.i++
	return v, nil
}

func TestPickEmptyCandidateSet(t *testing.T) {
	src := &fixedSource{vals: []float64{0.5}}

	_, err := Pick(nil, src)
	assert.True(t, errors.Is(err, model.ErrEmptyCandidateSet))

	_, err = Pick(map[string]float64{}, src)
	assert.True(t, errors.Is(err, model.ErrEmptyCandidateSet))

	_, err = Pick(map[string]float64{"a": 0, "b": 0}, src)
	assert.True(t, errors.Is(err, model.ErrEmptyCandidateSet))
}

func TestPickDeterministicWithInjectedSource(t *testing.T) {
	w := map[string]float64{"watercolor": 2.0, "oil_painting": 1.0}

	// Sorted candidate order: oil_painting (cum 1.0), watercolor (cum 3.0).
	got, err := Pick(w, &fixedSource{vals: []float64{0.0}})
	require.NoError(t, err)
	assert.Equal(t, "oil_painting", got)

	got, err = Pick(w, &fixedSource{vals: []float64{0.5}}) // target 1.5
	require.NoError(t, err)
	assert.Equal(t, "watercolor", got)

	got, err = Pick(w, &fixedSource{vals: []float64{0.999999}})
	require.NoError(t, err)
	assert.Equal(t, "watercolor", got)
}

func TestPickNeverSelectsZeroWeight(t *testing.T) {
	w := map[string]float64{"a": 0, "b": 1.0, "c": -2}
	for _, u := range []float64{0, 0.25, 0.5, 0.75, 0.999} {
		got, err := Pick(w, &fixedSource{vals: []float64{u}})
		require.NoError(t, err)
		assert.Equal(t, "b", got)
	}
}

func TestPickProportionalDistribution(t *testing.T) {
	// Scenario: element=water rule with watercolor 2.0, oil_painting 1.0.
	// watercolor should win ~2/3 of draws over large n.
	w := map[string]float64{"watercolor": 2.0, "oil_painting": 1.0}
	src := CryptoSource{}

	const n = 30000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		got, err := Pick(w, src)
		require.NoError(t, err)
		counts[got]++
	}

	assert.Equal(t, n, counts["watercolor"]+counts["oil_painting"])
	ratio := float64(counts["watercolor"]) / n
	assert.InDelta(t, 2.0/3.0, ratio, 0.02)
}

func TestCryptoSourceRange(t *testing.T) {
	src := CryptoSource{}
	for i := 0; i < 1000; i++ {
		u, err := src.Float64()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestUniform(t *testing.T) {
	w := Uniform([]string{"a", "b", "c"})
	assert.Equal(t, map[string]float64{"a": 1, "b": 1, "c": 1}, w)
}
