package setting

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jugglerbayes/domain/core"
)

func TestLabelsNaturalOrder(t *testing.T) {
	table := Table{"S10": 0.1, "S2": 0.2, "S1": 0.3, "設定3": 0.1, "設定1": 0.1}
	got := table.Labels()
	assert.Equal(t, []Label{"S1", "S2", "S10", "設定1", "設定3"}, got)
}

func TestLabelsDeterministic(t *testing.T) {
	table := MyJugglerV().Probabilities
	first := table.Labels()
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, table.Labels())
	}
	assert.Equal(t, Label("設定1"), first[0])
	assert.Equal(t, Label("設定6"), first[5])
}

func TestUniformPrior(t *testing.T) {
	prior := UniformPrior([]Label{"a", "b", "c", "d", "e", "f"})
	require.Len(t, prior, 6)
	for _, w := range prior {
		assert.InDelta(t, 1.0/6.0, w, 1e-15)
	}
	assert.InDelta(t, 1.0, prior.Sum(), 1e-12)

	assert.Empty(t, UniformPrior(nil))
}

func TestObservationValidate(t *testing.T) {
	tests := []struct {
		name    string
		obs     Observation
		wantErr bool
	}{
		{"typical session", Observation{Trials: 2000, Successes: 345}, false},
		{"no games", Observation{Trials: 0, Successes: 0}, false},
		{"all hits", Observation{Trials: 10, Successes: 10}, false},
		{"more hits than games", Observation{Trials: 100, Successes: 150}, true},
		{"negative trials", Observation{Trials: -1, Successes: 0}, true},
		{"negative successes", Observation{Trials: 10, Successes: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.obs.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, core.ErrInvalidObservation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestObservationRate(t *testing.T) {
	rate, ok := Observation{Trials: 2000, Successes: 345}.Rate()
	require.True(t, ok)
	assert.InDelta(t, 0.1725, rate, 1e-12)

	odds, ok := Observation{Trials: 2000, Successes: 345}.Odds()
	require.True(t, ok)
	assert.InDelta(t, 5.797, odds, 1e-3)

	_, ok = Observation{}.Rate()
	assert.False(t, ok)

	_, ok = Observation{Trials: 50}.Odds()
	assert.False(t, ok)
}

func TestCatalogValidate(t *testing.T) {
	require.NoError(t, MyJugglerV().Validate())

	tests := []struct {
		name    string
		catalog Catalog
		target  error
	}{
		{
			name:    "empty",
			catalog: Catalog{Name: "empty"},
			target:  core.ErrEmptyCatalog,
		},
		{
			name: "prior missing",
			catalog: Catalog{
				Probabilities: Table{"S1": 0.2, "S2": 0.3},
				Priors:        Table{"S1": 1},
			},
			target: core.ErrConfigMismatch,
		},
		{
			name: "extra prior",
			catalog: Catalog{
				Probabilities: Table{"S1": 0.2},
				Priors:        Table{"S1": 0.5, "S9": 0.5},
			},
			target: core.ErrConfigMismatch,
		},
		{
			name: "zero success probability",
			catalog: Catalog{
				Probabilities: Table{"S1": 0},
				Priors:        Table{"S1": 1},
			},
			target: core.ErrInvalidProbability,
		},
		{
			name: "negative prior",
			catalog: Catalog{
				Probabilities: Table{"S1": 0.2, "S2": 0.2},
				Priors:        Table{"S1": 1.5, "S2": -0.5},
			},
			target: core.ErrInvalidProbability,
		},
		{
			name: "priors do not sum to one",
			catalog: Catalog{
				Probabilities: Table{"S1": 0.2, "S2": 0.3},
				Priors:        Table{"S1": 0.3, "S2": 0.3},
			},
			target: core.ErrPriorSum,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.catalog.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.True(t, core.IsConfigError(err))
		})
	}
}

func TestParseProbability(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"1/5.90", 1 / 5.90, false},
		{" 1 / 5.66 ", 1 / 5.66, false},
		{"0.25", 0.25, false},
		{"", 0, true},
		{"1/0", 0, true},
		{"abc", 0, true},
		{"x/2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProbability(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidProbability)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-15)
		})
	}
}

func TestNewCatalog(t *testing.T) {
	half := 0.5

	c, err := NewCatalog("pair", []Entry{
		{Label: "S1", Probability: 0.2},
		{Label: "S2", Probability: 0.3},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c.Priors["S1"], 1e-15)
	assert.Equal(t, []Label{"S1", "S2"}, c.Labels())

	c, err = NewCatalog("explicit", []Entry{
		{Label: "S1", Probability: 0.2, Prior: &half},
		{Label: "S2", Probability: 0.3, Prior: &half},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.Priors["S2"])

	_, err = NewCatalog("partial", []Entry{
		{Label: "S1", Probability: 0.2, Prior: &half},
		{Label: "S2", Probability: 0.3},
	})
	assert.ErrorIs(t, err, core.ErrConfigMismatch)

	_, err = NewCatalog("dup", []Entry{
		{Label: "S1", Probability: 0.2},
		{Label: "S1", Probability: 0.3},
	})
	assert.ErrorIs(t, err, core.ErrConfigMismatch)

	_, err = NewCatalog("blank", []Entry{{Label: "", Probability: 0.2}})
	assert.ErrorIs(t, err, core.ErrConfigMismatch)
}
