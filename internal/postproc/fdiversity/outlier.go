package fdiversity

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var errSingularCovariance = errors.New("kernel covariance is not positive definite")

// gaussianKDE evaluates a Gaussian kernel density estimate of samples at
// each sample. The kernel covariance is the unbiased sample covariance
// scaled by Scott's factor n^(-1/(d+4)).
func gaussianKDE(samples [][]float64) ([]float64, error) {
	n := len(samples)
	if n == 0 {
		return nil, errors.New("no samples")
	}
	d := len(samples[0])
	if n <= d {
		return nil, errSingularCovariance
	}
	x := mat.NewDense(n, d, nil)
	for i, s := range samples {
		x.SetRow(i, s)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, x, nil)
	factor := math.Pow(float64(n), -1/float64(d+4))
	cov.ScaleSym(factor*factor, &cov)

	var chol mat.Cholesky
	if ok := chol.Factorize(&cov); !ok {
		return nil, errSingularCovariance
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, err
	}
	norm := math.Sqrt(math.Pow(2*math.Pi, float64(d)) * chol.Det())

	density := make([]float64, n)
	diff := mat.NewVecDense(d, nil)
	for i := range samples {
		var sum float64
		for j := range samples {
			for k := 0; k < d; k++ {
				diff.SetVec(k, samples[i][k]-samples[j][k])
			}
			sum += math.Exp(-0.5 * mat.Inner(diff, &inv, diff))
		}
		density[i] = sum / norm / float64(n)
	}
	return density, nil
}

// linearPercentile returns the p-th percentile of values interpolating
// linearly between closest ranks, (n-1)*p/100 being the fractional rank.
// Any NaN in values yields NaN.
func linearPercentile(values []float64, p float64) float64 {
	sorted := append([]float64(nil), values...)
	for _, v := range sorted {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	sort.Float64s(sorted)
	h := float64(len(sorted)-1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// rejectOutliers drops low-density samples. Starting at startPercentile the
// density cut is lowered one percentile at a time until the kept count
// reaches threshold/numValid or the percentile drops below zero. Samples are
// kept unchanged when the density cannot be estimated or is nowhere finite.
func rejectOutliers(samples [][]float64, numValid, threshold, startPercentile int) [][]float64 {
	if len(samples) == 0 {
		return samples
	}
	density, err := gaussianKDE(samples)
	if err != nil {
		return samples
	}
	finite := 0
	for _, v := range density {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite++
		}
	}
	if finite == 0 {
		return samples
	}

	var keep []bool
	kept := 0
	target := float64(threshold) / float64(numValid)
	for percentile := startPercentile; float64(kept) < target && percentile > -1; percentile-- {
		cut := linearPercentile(density, float64(percentile))
		keep = make([]bool, len(density))
		kept = 0
		for i, v := range density {
			if v > cut {
				keep[i] = true
				kept++
			}
		}
	}
	if keep == nil {
		return samples
	}
	out := make([][]float64, 0, kept)
	for i, ok := range keep {
		if ok {
			out = append(out, samples[i])
		}
	}
	return out
}
