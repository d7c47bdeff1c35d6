package fdiversity

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/indicator.report/internal/config"
	"github.com/banshee-data/indicator.report/internal/postproc"
	"github.com/banshee-data/indicator.report/internal/raster"
)

// traitFixture is nine samples of three traits.
func traitFixture() [][]float64 {
	traits := [3][9]float64{
		{0.1, 0.2, 0.3, 0.4, 0.4, 0.3, 0.1, 0.1, 0.2},
		{0.2, 0.3, 0.2, 0.1, 0.5, 0.3, 0.5, 0.7, 0.2},
		{0.4, 0.2, 0.2, 0.4, 0.6, 0.6, 0.3, 0.3, 0.2},
	}
	out := make([][]float64, 9)
	for i := range out {
		out[i] = []float64{traits[0][i], traits[1][i], traits[2][i]}
	}
	return out
}

func defaultSettings() Settings {
	return SettingsFromConfig(config.EmptyProcessingConfig())
}

func TestStandardizeTrait(t *testing.T) {
	got := standardizeTrait(raster.MustFromRows([][]float64{{0, 1, 2, 3}}))

	want := []float64{math.NaN(), -math.Sqrt(1.5), 0, math.Sqrt(1.5)}
	if diff := cmp.Diff(want, got.Data, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("standardized trait mismatch (-want +got):\n%s", diff)
	}
}

func TestStandardizeTrait_TwoDimensional(t *testing.T) {
	in := raster.MustFromRows([][]float64{{2, 4}, {0, 6}})
	got := standardizeTrait(in)

	// Population std of {2,4,6} is sqrt(8/3).
	s := math.Sqrt(8.0 / 3)
	want := []float64{-2 / s, 0, math.NaN(), 2 / s}
	if diff := cmp.Diff(want, got.Data, cmpopts.EquateNaNs(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("standardized trait mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, in.At(1, 0), "input must not be modified")
}

func TestStandardizeTrait_Constant(t *testing.T) {
	got := standardizeTrait(raster.MustFromRows([][]float64{{5, 5, 0}}))
	if diff := cmp.Diff([]float64{0, 0, math.NaN()}, got.Data, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMetrics_Fixture(t *testing.T) {
	samples := traitFixture()
	want := map[string]float64{
		IndicatorCVH:  0.02,
		IndicatorMNND: 1.1353556579106137,
		IndicatorFE:   0.8506660240031859,
		IndicatorFDIV: 0.252741939118282,
	}
	for _, m := range metrics {
		t.Run(m.name, func(t *testing.T) {
			got, err := m.fn(samples)
			require.NoError(t, err)
			assert.InDelta(t, want[m.name], got, 1e-9)
		})
	}
}

func TestMetrics_Degenerate(t *testing.T) {
	flat := [][]float64{{0, 0, 1}, {1, 0, 1}, {0, 1, 1}, {1, 1, 1}}
	same := [][]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	pair := [][]float64{{0, 0, 0}, {1, 1, 1}}

	cases := []struct {
		name    string
		fn      func([][]float64) (float64, error)
		samples [][]float64
	}{
		{"cvh coplanar", convexHullVolume, flat},
		{"cvh two dims", convexHullVolume, [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
		{"fdiv coplanar", functionalDivergence, flat},
		{"mnnd single", meanNearestNeighbourDistance, [][]float64{{1, 2, 3}}},
		{"fe identical", functionalEvenness, same},
		{"fe single edge", functionalEvenness, pair},
		{"fe empty", functionalEvenness, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := tc.fn(tc.samples)
			assert.Error(t, err)
			assert.True(t, math.IsNaN(v))
		})
	}
	_, err := functionalEvenness(same)
	assert.True(t, errors.Is(err, errEmptySpanningTree))
}

func TestLinearPercentile(t *testing.T) {
	v := []float64{4, 1, 3, 2}
	assert.InDelta(t, 2.5, linearPercentile(v, 50), 1e-15)
	assert.InDelta(t, 1.0, linearPercentile(v, 0), 1e-15)
	assert.InDelta(t, 1.15, linearPercentile(v, 5), 1e-12)
	assert.InDelta(t, 4.0, linearPercentile(v, 100), 1e-15)
	assert.True(t, math.IsNaN(linearPercentile([]float64{1, math.NaN()}, 5)))
	assert.Equal(t, []float64{4, 1, 3, 2}, v)
}

func TestGaussianKDE_OneDimension(t *testing.T) {
	density, err := gaussianKDE([][]float64{{0}, {1}})
	require.NoError(t, err)

	variance := 0.5 * math.Pow(2, -2.0/5)
	want := (1 + math.Exp(-0.5/variance)) / math.Sqrt(2*math.Pi*variance) / 2
	assert.InDelta(t, want, density[0], 1e-12)
	assert.InDelta(t, want, density[1], 1e-12)
}

func randomCloud(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
	}
	return out
}

func TestFunctionalEvenness_Reproducible(t *testing.T) {
	samples := randomCloud(95, 7)
	first, err := functionalEvenness(samples)
	require.NoError(t, err)
	for i := 0; i < 200; i++ {
		got, err := functionalEvenness(samples)
		require.NoError(t, err)
		require.Equal(t, first, got, "call %d", i)
	}
}

// The traits are stacked cw, cab, lai, the order the reference values were
// computed in. Grids are used as given, without standardization.
func TestEvaluate_ReferenceWindow(t *testing.T) {
	lai := raster.MustFromRows([][]float64{
		{0.87938678, 1.16446712, 1.22641223, 0.91329112, 1.51065969, 1.22097301, 0.85111759, 1.59934332, 1.12270911, 1.5701302},
		{1.10951792, 1.30872184, 1.19120714, 1.32458738, 0.93088555, 1.49808699, 1.57594138, 1.44594414, 0.91541966, 1.46568688},
		{0.88668766, 1.33503956, 1.45993834, 0.98021515, 0.86927832, 1.37552177, 0.86927602, 0.84557555, 0.87699175, 1.57778646},
		{1.53492533, 1.52005562, 0.87759379, 1.29141713, 1.29742173, 1.41679098, 1.57653808, 1.26925031, 1.50252092, 0.82244487},
		{1.53654894, 1.53208312, 1.48550786, 1.58223853, 1.15228171, 1.48642302, 1.51603717, 1.55718918, 0.87509568, 1.45378371},
		{0.97760941, 1.2237723, 1.23745615, 1.52805101, 1.58248682, 0.8363865, 1.13917848, 1.57457709, 0.90368241, 1.56440414},
		{1.14370198, 0.98871949, 0.83849553, 1.28032683, 0.89171812, 1.42943354, 1.53807144, 0.87983198, 0.82465269, 0.9512418},
		{0.86825614, 0.92547698, 1.1118817, 1.26763699, 0.86674554, 0.95593675, 0.8508761, 1.59323323, 0.83288445, 0.99263613},
		{1.48326121, 1.15251358, 1.50958625, 0.86958476, 1.16161352, 0.89559247, 1.51967839, 0.8163617, 1.50590506, 1.40443048},
		{1.40416266, 0.91458109, 1.56877472, 0.8411787, 0.85582287, 1.58993945, 1.43804445, 0.85035615, 1.42556831, 0.88719372},
	})
	cw := raster.MustFromRows([][]float64{
		{0.50583365, 0.36237748, 0.49032708, 0.10173301, 0.92792562, 0.94923578, 0.40834234, 0.38602451, 0.43298894, 0.00109016},
		{0.93020825, 0.79476352, 0.36177725, 0.81055002, 0.2128568, 0.97154312, 0.21546082, 0.71900572, 0.72117734, 0.03635445},
		{0.24553259, 0.41212087, 0.28888077, 0.49815259, 0.56391852, 0.23507629, 0.99193694, 0.90933921, 0.13763819, 0.39191802},
		{0.97522586, 0.63265333, 0.60910541, 0.61618778, 0.61565575, 0.86244576, 0.22756964, 0.95050188, 0.23530484, 0.96252923},
		{0.71415863, 0.95106815, 0.42450392, 0.63878779, 0.59704219, 0.78879161, 0.08453717, 0.09000347, 0.90412677, 0.35907961},
		{0.6200917, 0.18683279, 0.15765154, 0.26007168, 0.96021244, 0.19420245, 0.27872852, 0.50023529, 0.62837065, 0.62335185},
		{0.75616754, 0.98318038, 0.04922419, 0.41519254, 0.90551963, 0.05493066, 0.5359981, 0.56202856, 0.52101045, 0.07447384},
		{0.40137711, 0.3974881, 0.69912321, 0.98979935, 0.72946066, 0.34658135, 0.34841877, 0.2256088, 0.51256302, 0.68354124},
		{0.42196108, 0.24635111, 0.02894214, 0.10739165, 0.39564489, 0.39795154, 0.79642257, 0.5865653, 0.05525797, 0.26143202},
		{0.17002306, 0.69433121, 0.47829224, 0.56357375, 0.63415934, 0.59728232, 0.47128022, 0.66802419, 0.70903515, 0.03642678},
	})
	cab := raster.MustFromRows([][]float64{
		{0.02941798, 0.8640849, 0.33103182, 0.81502056, 0.21802795, 0.52221852, 0.93351023, 0.25749816, 0.36857807, 0.12229718},
		{0.83180554, 0.27555442, 0.49088614, 0.35693636, 0.96902993, 0.61005762, 0.67133881, 0.84172272, 0.12455516, 0.8978595},
		{0.48537038, 0.42603801, 0.55467215, 0.45784111, 0.53571247, 0.68527041, 0.70287854, 0.63841539, 0.55872211, 0.02078435},
		{0.11249342, 0.01218412, 0.02806516, 0.17727885, 0.08494202, 0.74768757, 0.5032687, 0.44523994, 0.76053097, 0.47228294},
		{0.96533917, 0.92116133, 0.50656305, 0.51449833, 0.88677528, 0.79942681, 0.46220967, 0.50136665, 0.0624617, 0.11754491},
		{0.6660223, 0.86980625, 0.27779489, 0.80088845, 0.232831, 0.13696704, 0.43306557, 0.91163307, 0.06285888, 0.81072612},
		{0.80168946, 0.20274405, 0.67145501, 0.13029482, 0.37146871, 0.507429, 0.88701391, 0.77776377, 0.53365525, 0.55858227},
		{0.58564618, 0.97090466, 0.21743641, 0.99886593, 0.05189815, 0.05839001, 0.94562788, 0.66540929, 0.02514091, 0.83510228},
		{0.56234932, 0.63044499, 0.19530644, 0.84202734, 0.56493981, 0.24473101, 0.72317209, 0.45049538, 0.79147526, 0.17959897},
		{0.08305292, 0.10973638, 0.88852854, 0.42643293, 0.09990597, 0.15200276, 0.5775525, 0.73609367, 0.82047272, 0.57943779},
	})

	p, err := New(nil, defaultSettings())
	require.NoError(t, err)
	wins := windows(lai.Rows, lai.Cols, 10, 5)
	require.Len(t, wins, 1)

	samples := wins[0].samples([]*raster.Grid{cw, cab, lai})
	require.Len(t, samples, 100)
	assert.Len(t, rejectOutliers(samples, 100, 95, 5), 95)

	got := p.evaluate(wins[0], lai, []*raster.Grid{cw, cab, lai}, p.activeMetrics())
	require.Len(t, got, 4)
	want := windowResult{0.5543484553465773, 0.391185794479155, 0.8162409410523356, 0.4698261066849253}
	for k, m := range p.activeMetrics() {
		assert.InDelta(t, want[k], got[k], 1e-9, m.name)
	}
}

func TestRejectOutliers_DropsLowDensity(t *testing.T) {
	samples := randomCloud(99, 1)
	samples = append(samples, []float64{25, 25, 25})

	kept := rejectOutliers(samples, 100, 95, 5)
	assert.Len(t, kept, 95)
	for _, s := range kept {
		assert.NotEqual(t, 25.0, s[0])
	}
}

func TestRejectOutliers_KeepsAllWhenKDEFails(t *testing.T) {
	same := make([][]float64, 10)
	for i := range same {
		same[i] = []float64{1, 2, 3}
	}
	assert.Len(t, rejectOutliers(same, 100, 95, 5), 10)

	few := randomCloud(3, 2)
	assert.Len(t, rejectOutliers(few, 100, 95, 5), 3)
}

func TestWindows(t *testing.T) {
	got := windows(25, 12, 10, 5)
	want := []window{
		{row: 5, col: 5, r0: 0, r1: 10, c0: 0, c1: 10},
		{row: 15, col: 5, r0: 10, r1: 20, c0: 0, c1: 10},
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(window{})); diff != "" {
		t.Errorf("windows mismatch (-want +got):\n%s", diff)
	}

	clipped := windows(8, 8, 10, 5)
	require.Len(t, clipped, 1)
	assert.Equal(t, 8, clipped[0].r1)
	assert.Equal(t, 8, clipped[0].c1)
}

func TestWindowSamples_DropsAnyMissingTrait(t *testing.T) {
	a := raster.MustFromRows([][]float64{{1, 2}, {3, math.NaN()}})
	b := raster.MustFromRows([][]float64{{5, math.NaN()}, {7, 8}})
	w := window{r0: 0, r1: 2, c0: 0, c1: 2}

	got := w.samples([]*raster.Grid{a, b})
	assert.Equal(t, [][]float64{{1, 5}, {3, 7}}, got)
}

func traitGrids(rows, cols int) map[string]*raster.Grid {
	lai := raster.NewGrid(rows, cols)
	cw := raster.NewGrid(rows, cols)
	cab := raster.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			fr, fc := float64(r), float64(c)
			lai.Set(r, c, 2+math.Sin(0.7*fr+1.3*fc))
			cw.Set(r, c, 2+math.Cos(1.1*fr-0.4*fc))
			cab.Set(r, c, 2+math.Sin(0.3*fr*fc+0.5))
		}
	}
	return map[string]*raster.Grid{VariableLAI: lai, VariableCW: cw, VariableCAB: cab}
}

func TestProcessVariables_BlocksAndSkippedWindows(t *testing.T) {
	vars := traitGrids(20, 20)
	// Six missing lai pixels leave 94 valid in the top-right window.
	for c := 10; c < 16; c++ {
		vars[VariableLAI].Set(2, c, 0)
	}

	p, err := New(nil, defaultSettings())
	require.NoError(t, err)
	out, err := p.ProcessVariables(vars)
	require.NoError(t, err)
	require.Len(t, out, 4)

	for name, g := range out {
		require.Equal(t, 20, g.Rows, name)
		for r := 0; r < 10; r++ {
			for c := 10; c < 20; c++ {
				assert.True(t, math.IsNaN(g.At(r, c)), "%s (%d,%d) should be NaN", name, r, c)
			}
		}
		for _, blk := range [][4]int{{0, 10, 0, 10}, {10, 20, 0, 10}, {10, 20, 10, 20}} {
			first := g.At(blk[0], blk[2])
			assert.False(t, math.IsNaN(first), "%s block %v", name, blk)
			for r := blk[0]; r < blk[1]; r++ {
				for c := blk[2]; c < blk[3]; c++ {
					assert.Equal(t, first, g.At(r, c), "%s block %v not constant", name, blk)
				}
			}
		}
	}
	assert.Greater(t, out[IndicatorCVH].At(0, 0), 0.0)
}

func TestProcessVariables_WorkersMatchSequential(t *testing.T) {
	vars := traitGrids(30, 30)
	seq, err := New(nil, defaultSettings())
	require.NoError(t, err)
	parSettings := defaultSettings()
	parSettings.Workers = 4
	par, err := New(nil, parSettings)
	require.NoError(t, err)

	a, err := seq.ProcessVariables(vars)
	require.NoError(t, err)
	b, err := par.ProcessVariables(vars)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("parallel result differs (-seq +par):\n%s", diff)
	}
}

func TestProcessVariables_SelectedSubset(t *testing.T) {
	p, err := New([]string{IndicatorFE, "GeoCBI"}, defaultSettings())
	require.NoError(t, err)
	out, err := p.ProcessVariables(traitGrids(10, 10))
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, IndicatorFE)
}

func TestProcessVariables_NothingSelected(t *testing.T) {
	p, err := New([]string{"GeoCBI"}, defaultSettings())
	require.NoError(t, err)
	out, err := p.ProcessVariables(traitGrids(10, 10))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestProcessVariables_InputErrors(t *testing.T) {
	p, err := New(nil, defaultSettings())
	require.NoError(t, err)

	missing := traitGrids(10, 10)
	delete(missing, VariableCW)
	_, err = p.ProcessVariables(missing)
	assert.True(t, errors.Is(err, postproc.ErrMissingInput), "got %v", err)

	ragged := traitGrids(10, 10)
	ragged[VariableCAB] = raster.NewFilledGrid(10, 11, 1)
	_, err = p.ProcessVariables(ragged)
	assert.True(t, errors.Is(err, postproc.ErrInputShape), "got %v", err)
}

func TestNew_InvalidSettings(t *testing.T) {
	s := defaultSettings()
	s.Stride = 0
	_, err := New(nil, s)
	assert.Error(t, err)
}

func TestCreator(t *testing.T) {
	c := Creator{}
	assert.Equal(t, Name, c.Name())
	assert.Equal(t, postproc.VariablePostProcessor, c.Type())
	assert.Equal(t, []string{"cvh", "mnnd", "fe", "fdiv"}, c.Indicators())
	assert.Equal(t, []string{"lai", "cw", "cab"}, c.RequiredInputTypes())

	pp, err := c.Create([]string{IndicatorCVH})
	require.NoError(t, err)
	vp, ok := pp.(postproc.VariableProcessor)
	require.True(t, ok)
	assert.Equal(t, []string{IndicatorCVH}, vp.ActiveIndicators())
	assert.Equal(t, 1, vp.NumTimeSteps())
}
