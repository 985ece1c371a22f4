package outcome

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedSource devolve sempre o mesmo valor (limitado a n-1)
type fixedSource int64

func (f fixedSource) Int63n(n int64) int64 {
	if int64(f) >= n {
		return n - 1
	}
	return int64(f)
}

func out(id, weight int64, mult string) Outcome {
	return Outcome{ID: id, Label: mult + "x", Multiplier: decimal.RequireFromString(mult), Weight: weight, Visible: true}
}

func TestSelectEmptySnapshot(t *testing.T) {
	_, err := Select(nil, fixedSource(0))
	require.ErrorIs(t, err, ErrNoOutcomesAvailable)
}

func TestSelectAllWeightsNonPositive(t *testing.T) {
	_, err := Select([]Outcome{out(1, 0, "2"), out(2, -3, "1")}, fixedSource(0))
	require.ErrorIs(t, err, ErrInvalidWeights)
}

func TestSelectBoundaries(t *testing.T) {
	snap := []Outcome{out(1, 1, "0"), out(2, 3, "2")}

	cases := []struct {
		draw  int64
		id    int64
		index int
	}{
		{0, 1, 0},
		{1, 2, 1},
		{3, 2, 1},
	}
	for _, c := range cases {
		sel, err := Select(snap, fixedSource(c.draw))
		require.NoError(t, err)
		assert.Equal(t, c.id, sel.Outcome.ID, "draw %d", c.draw)
		assert.Equal(t, c.index, sel.Index, "draw %d", c.draw)
	}
}

func TestSelectOrdersByIDNotInputOrder(t *testing.T) {
	// mesma tabela em ordens diferentes + mesmo sorteio => mesmo resultado
	a := []Outcome{out(3, 5, "3"), out(1, 5, "1"), out(2, 5, "2")}
	b := []Outcome{out(1, 5, "1"), out(2, 5, "2"), out(3, 5, "3")}

	for draw := int64(0); draw < 15; draw++ {
		sa, err := Select(a, fixedSource(draw))
		require.NoError(t, err)
		sb, err := Select(b, fixedSource(draw))
		require.NoError(t, err)
		assert.Equal(t, sb.Outcome.ID, sa.Outcome.ID)
		assert.Equal(t, sb.Index, sa.Index)
	}
	// snapshot de entrada não é reordenado
	assert.Equal(t, int64(3), a[0].ID)
}

func TestSelectSkipsZeroWeight(t *testing.T) {
	snap := []Outcome{out(1, 0, "5"), out(2, 1, "1")}
	for draw := int64(0); draw < 3; draw++ {
		sel, err := Select(snap, fixedSource(draw))
		require.NoError(t, err)
		assert.Equal(t, int64(2), sel.Outcome.ID)
		assert.Equal(t, 1, sel.Index)
	}
}

func TestSelectWeightedLaw(t *testing.T) {
	snap := []Outcome{out(1, 1, "0"), out(2, 3, "2")}
	src := NewSeededSource(42)

	const trials = 100_000
	hitsB := 0
	for i := 0; i < trials; i++ {
		sel, err := Select(snap, src)
		require.NoError(t, err)
		if sel.Outcome.ID == 2 {
			hitsB++
		}
	}

	freq := float64(hitsB) / trials
	assert.InDelta(t, 0.75, freq, 0.01)
}

func TestCryptoSourceRange(t *testing.T) {
	var src CryptoSource
	for i := 0; i < 1000; i++ {
		v := src.Int63n(7)
		require.GreaterOrEqual(t, v, int64(0))
		require.Less(t, v, int64(7))
	}
}

func TestSeededSourceIsReproducible(t *testing.T) {
	a, b := NewSeededSource(7), NewSeededSource(7)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Int63n(1000), b.Int63n(1000))
	}
}
