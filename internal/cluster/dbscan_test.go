package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

// denseFromRows builds a matrix from row vectors of equal length.
func denseFromRows(rows [][]float64) *mat.Dense {
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}

func TestMinPointsFor(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		expected int
	}{
		{"tiny dataset uses floor", 10, 3},
		{"floor boundary", 60, 3},
		{"ratio takes over", 100, 5},
		{"large dataset", 1000, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MinPointsFor(tt.n))
		})
	}
}

func TestFitSeparatesClusters(t *testing.T) {
	// Two tight groups far apart, plus one outlier.
	data := denseFromRows([][]float64{
		{0.0, 0.0},
		{0.1, 0.0},
		{0.0, 0.1},
		{0.1, 0.1},
		{10.0, 10.0},
		{10.1, 10.0},
		{10.0, 10.1},
		{10.1, 10.1},
		{50.0, 50.0},
	})

	d := &DBSCAN{Eps: 0.5, MinPoints: 3}
	labels := d.Fit(data)

	assert.Equal(t, []int{0, 0, 0, 0, 1, 1, 1, 1, Noise}, labels)
}

func TestFitAllNoiseWhenSparse(t *testing.T) {
	data := denseFromRows([][]float64{
		{0, 0},
		{5, 5},
		{10, 10},
		{15, 15},
	})

	d := &DBSCAN{Eps: 0.5, MinPoints: 3}
	labels := d.Fit(data)

	assert.Equal(t, []int{Noise, Noise, Noise, Noise}, labels)
}

func TestFitDeterministic(t *testing.T) {
	data := denseFromRows([][]float64{
		{0.0, 0.0},
		{0.2, 0.1},
		{0.1, 0.2},
		{3.0, 3.0},
		{3.1, 3.0},
		{3.0, 3.1},
		{1.5, 1.5},
	})

	first := NewDBSCAN(0.5, 7).Fit(data)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, NewDBSCAN(0.5, 7).Fit(data))
	}
}

func TestFitBorderPointJoinsFirstCluster(t *testing.T) {
	// The middle point is a border point reachable from core points of both
	// groups but is not core itself; index-order expansion must always assign
	// it to the cluster discovered first.
	data := denseFromRows([][]float64{
		{0.0}, {0.1}, {0.2}, {0.3},
		{1.1},
		{1.9}, {2.0}, {2.1}, {2.2},
	})

	d := &DBSCAN{Eps: 0.85, MinPoints: 4}
	labels := d.Fit(data)

	assert.Equal(t, []int{0, 0, 0, 0, 0, 1, 1, 1, 1}, labels)
}

func TestFitSinglePoint(t *testing.T) {
	data := mat.NewDense(1, 2, []float64{0, 0})
	d := &DBSCAN{Eps: 0.5, MinPoints: 3}

	labels := d.Fit(data)
	assert.Equal(t, []int{Noise}, labels)
}
