package fdiversity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/indicator.report/internal/hull"
)

// Indicator short names.
const (
	IndicatorCVH  = "cvh"
	IndicatorMNND = "mnnd"
	IndicatorFE   = "fe"
	IndicatorFDIV = "fdiv"
)

var (
	errTooFewSamples     = errors.New("too few samples")
	errEmptySpanningTree = errors.New("minimum spanning tree has no edges")
	errSingleEdge        = errors.New("minimum spanning tree has a single edge")
)

// metric computes one diversity value from a window's retained samples,
// given as points in trait space. A failed metric yields an error and the
// window is written as NaN for it alone.
type metric struct {
	name string
	fn   func(samples [][]float64) (float64, error)
}

var metrics = []metric{
	{IndicatorCVH, convexHullVolume},
	{IndicatorMNND, meanNearestNeighbourDistance},
	{IndicatorFE, functionalEvenness},
	{IndicatorFDIV, functionalDivergence},
}

func hullOf(samples [][]float64) (*hull.Hull, error) {
	pts := make([]hull.Point, len(samples))
	for i, s := range samples {
		if len(s) != 3 {
			return nil, fmt.Errorf("convex hull needs 3 traits, got %d", len(s))
		}
		pts[i] = hull.Point{s[0], s[1], s[2]}
	}
	return hull.New(pts)
}

// convexHullVolume is the trait-space volume spanned by the samples.
func convexHullVolume(samples [][]float64) (float64, error) {
	h, err := hullOf(samples)
	if err != nil {
		return math.NaN(), err
	}
	return h.Volume(), nil
}

// meanNearestNeighbourDistance standardizes the samples and averages the
// distance of each sample to its nearest other sample.
func meanNearestNeighbourDistance(samples [][]float64) (float64, error) {
	if len(samples) < 2 {
		return math.NaN(), errTooFewSamples
	}
	std := standardizeColumns(samples)
	pts := make(kdtree.Points, len(std))
	for i, s := range std {
		pts[i] = kdtree.Point(s)
	}
	tree := kdtree.New(append(kdtree.Points(nil), pts...), false)

	var sum float64
	for _, q := range pts {
		keep := kdtree.NewNKeeper(2)
		tree.NearestSet(keep, q)
		// The heap holds the query itself and its nearest neighbour.
		second := 0.0
		for _, c := range keep.Heap {
			second = math.Max(second, c.Dist)
		}
		sum += math.Sqrt(second)
	}
	return sum / float64(len(pts)), nil
}

// functionalEvenness measures how regularly the samples are spread along
// their minimum spanning tree.
func functionalEvenness(samples [][]float64) (float64, error) {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := range samples {
		g.AddNode(simple.Node(i))
	}
	for i := range samples {
		for j := i + 1; j < len(samples); j++ {
			d := euclidean(samples[i], samples[j])
			if d == 0 {
				continue
			}
			g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(i), T: simple.Node(j), W: d})
		}
	}
	mst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(mst, g)

	// Edges come back in map order; sums run over sorted weights so the
	// result is reproducible to the last bit.
	var weights []float64
	edges := mst.WeightedEdges()
	for edges.Next() {
		weights = append(weights, edges.WeightedEdge().Weight())
	}
	switch len(weights) {
	case 0:
		return math.NaN(), errEmptySpanningTree
	case 1:
		return math.NaN(), errSingleEdge
	}
	sort.Float64s(weights)
	var total float64
	for _, w := range weights {
		total += w
	}
	even := 1 / float64(len(weights))
	var sum float64
	for _, w := range weights {
		sum += math.Min(w/total, even)
	}
	return (sum - even) / (1 - even), nil
}

// functionalDivergence is the mean distance of all samples to the centroid
// of the convex hull boundary.
func functionalDivergence(samples [][]float64) (float64, error) {
	h, err := hullOf(samples)
	if err != nil {
		return math.NaN(), err
	}
	c := h.SimplexCentroid()
	var sum float64
	for _, s := range samples {
		sum += euclidean(s, c[:])
	}
	return sum / float64(len(samples)), nil
}

func euclidean(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
