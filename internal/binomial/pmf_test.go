package binomial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

var testProbabilities = []float64{0, 1e-6, 0.1, 1 / 5.90, 1 / 5.66, 0.5, 0.9, 1}

// symmetryProbabilities avoid p where 1-(1-p) drifts far from p in float64
var symmetryProbabilities = []float64{0, 0.1, 1 / 5.90, 1 / 5.66, 0.5, 0.9, 1}

// assertClose compares with a relative tolerance, falling back to an absolute
// floor for values at or near the subnormal range
func assertClose(t *testing.T, want, got, rel float64, msgAndArgs ...interface{}) {
	t.Helper()
	if math.Abs(want) < 1e-290 || math.Abs(got) < 1e-290 {
		assert.InDelta(t, want, got, 1e-300, msgAndArgs...)
		return
	}
	assert.InEpsilon(t, want, got, rel, msgAndArgs...)
}

func TestCoefficient(t *testing.T) {
	tests := []struct {
		n, k int
		want string
	}{
		{0, 0, "1"},
		{5, 2, "10"},
		{5, 5, "1"},
		{5, 6, "0"},
		{5, -1, "0"},
		{-3, 0, "0"},
		{60, 30, "118264581564861424"},
	}
	for _, tt := range tests {
		got := Coefficient(tt.n, tt.k)
		assert.Equal(t, tt.want, got.String(), "C(%d,%d)", tt.n, tt.k)
	}
}

func TestPMF_EdgeValues(t *testing.T) {
	assert.Equal(t, 1.0, PMF(0, 0, 0.3), "n=k=0 is certain")
	assert.Equal(t, 1.0, PMF(0, 0, 0), "n=k=0 is certain even with p=0")
	assert.Equal(t, 0.0, PMF(5, 2, 0), "p=0 cannot produce successes")
	assert.Equal(t, 1.0, PMF(5, 0, 0), "p=0 produces no successes")
	assert.Equal(t, 0.0, PMF(5, 3, 1), "p=1 cannot produce failures")
	assert.Equal(t, 1.0, PMF(5, 5, 1), "p=1 succeeds every trial")
	assert.Equal(t, 0.0, PMF(5, 2, math.NaN()))
	assert.Equal(t, 0.0, PMF(5, 2, 1.5))
	assert.Equal(t, 0.0, PMF(5, 2, -0.1))
	assert.InDelta(t, 0.3125, PMF(5, 2, 0.5), 1e-15)
}

func TestPMF_ZeroAndFullSuccess(t *testing.T) {
	for n := 0; n <= 120; n += 7 {
		for _, p := range testProbabilities {
			assertClose(t, math.Pow(1-p, float64(n)), PMF(n, 0, p), 1e-12, "n=%d p=%v k=0", n, p)
			assertClose(t, math.Pow(p, float64(n)), PMF(n, n, p), 1e-12, "n=%d p=%v k=n", n, p)
		}
	}
}

func TestPMF_OutOfRangeIsZero(t *testing.T) {
	for n := 0; n <= 30; n++ {
		for _, p := range testProbabilities {
			for _, k := range []int{-5, -1, n + 1, n + 10} {
				assert.Equal(t, 0.0, PMF(n, k, p), "n=%d k=%d p=%v", n, k, p)
			}
		}
	}
}

func TestPMF_Symmetry(t *testing.T) {
	for _, n := range []int{0, 1, 2, 10, 57, 300} {
		for k := 0; k <= n; k++ {
			for _, p := range symmetryProbabilities {
				assertClose(t, PMF(n, k, p), PMF(n, n-k, 1-p), 1e-9, "n=%d k=%d p=%v", n, k, p)
			}
		}
	}
}

func TestPMF_SumsToOne(t *testing.T) {
	for _, n := range []int{1, 10, 200} {
		for _, p := range testProbabilities {
			total := 0.0
			for k := 0; k <= n; k++ {
				total += PMF(n, k, p)
			}
			assert.InDelta(t, 1.0, total, 1e-12, "n=%d p=%v", n, p)
		}
	}
}

func TestPMF_MatchesGonum(t *testing.T) {
	tests := []struct {
		n, k int
		p    float64
	}{
		{2000, 345, 1 / 5.90},
		{2000, 345, 1 / 5.66},
		{8000, 1400, 1 / 5.78},
		{100, 17, 0.2},
		{37, 20, 0.55},
	}
	for _, tt := range tests {
		oracle := distuv.Binomial{N: float64(tt.n), P: tt.p}
		assertClose(t, oracle.Prob(float64(tt.k)), PMF(tt.n, tt.k, tt.p), 1e-8, "n=%d k=%d p=%v", tt.n, tt.k, tt.p)
	}
}

func TestPMF_LongSessionsStayFinite(t *testing.T) {
	for _, n := range []int{20000, 100000} {
		k := n / 6
		v := PMF(n, k, 1/5.80)
		require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "n=%d", n)
		assert.GreaterOrEqual(t, v, 0.0)

		lv := NewTally(n, k).LogPMF(1 / 5.80)
		require.False(t, math.IsNaN(lv) || math.IsInf(lv, 0), "n=%d", n)
	}
}

func TestLogPMF(t *testing.T) {
	assert.InDelta(t, math.Log(0.3125), NewTally(5, 2).LogPMF(0.5), 1e-12)
	assert.True(t, math.IsInf(NewTally(5, 6).LogPMF(0.5), -1))
	assert.True(t, math.IsInf(NewTally(5, 2).LogPMF(0), -1))
	assert.True(t, math.IsInf(NewTally(5, 2).LogPMF(math.NaN()), -1))

	// 2^-100000 underflows float64 but not the log
	assert.Equal(t, 0.0, PMF(100000, 0, 0.5))
	assert.InEpsilon(t, -100000*math.Ln2, NewTally(100000, 0).LogPMF(0.5), 1e-12)
}

func TestTallyReusesCoefficient(t *testing.T) {
	tally := NewTally(2000, 345)
	for _, p := range testProbabilities {
		assert.Equal(t, PMF(2000, 345, p), tally.PMF(p), "p=%v", p)
	}
	// evaluating must not disturb the shared coefficient
	first := tally.PMF(1 / 5.80)
	tally.PMF(0.9)
	tally.LogPMF(0.3)
	assert.Equal(t, first, tally.PMF(1/5.80))
	want := newFloat().SetInt(Coefficient(2000, 345))
	assert.Zero(t, want.Cmp(tally.coef))
}
