// Package cluster implements deterministic density-based clustering over
// feature matrices.
package cluster

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Noise is the label assigned to points that belong to no cluster.
const Noise = -1

// minPointsRatio derives the minimum neighborhood size from the dataset
// size; minPointsFloor is the absolute minimum.
const (
	minPointsRatio = 0.05
	minPointsFloor = 3
)

// DBSCAN is a density-based clusterer with a fixed neighborhood radius. It
// uses no randomized initialization: given identical input order and
// parameters the labeling is identical, which the detector's validation
// audit relies on.
type DBSCAN struct {
	Eps       float64
	MinPoints int
}

// NewDBSCAN creates a clusterer for a dataset of n points, deriving the
// minimum neighborhood size from the dataset size with a floor of 3.
func NewDBSCAN(eps float64, n int) *DBSCAN {
	return &DBSCAN{Eps: eps, MinPoints: MinPointsFor(n)}
}

// MinPointsFor returns the minimum neighborhood size for a dataset of n points.
func MinPointsFor(n int) int {
	pts := int(float64(n) * minPointsRatio)
	if pts < minPointsFloor {
		pts = minPointsFloor
	}
	return pts
}

// Fit labels every row of the matrix with a cluster id starting at 0, or
// Noise. Rows are visited in index order and neighborhoods expand in index
// order, so the result is deterministic.
func (d *DBSCAN) Fit(data *mat.Dense) []int {
	n, _ := data.Dims()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	visited := make([]bool, n)

	cluster := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := d.regionQuery(data, i)
		if len(neighbors) < d.MinPoints {
			continue // stays noise unless reached from a core point later
		}

		labels[i] = cluster
		d.expand(data, neighbors, labels, visited, cluster)
		cluster++
	}

	return labels
}

// expand grows a cluster outward from a core point's neighborhood.
func (d *DBSCAN) expand(data *mat.Dense, seeds []int, labels []int, visited []bool, cluster int) {
	for qi := 0; qi < len(seeds); qi++ {
		p := seeds[qi]
		if labels[p] == Noise {
			labels[p] = cluster
		}
		if visited[p] {
			continue
		}
		visited[p] = true

		neighbors := d.regionQuery(data, p)
		if len(neighbors) >= d.MinPoints {
			seeds = append(seeds, neighbors...)
		}
	}
}

// regionQuery returns the indices of all points within Eps of point i,
// including i itself, in ascending index order.
func (d *DBSCAN) regionQuery(data *mat.Dense, i int) []int {
	n, _ := data.Dims()
	row := data.RawRowView(i)
	var neighbors []int
	for j := 0; j < n; j++ {
		if floats.Distance(row, data.RawRowView(j), 2) <= d.Eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
