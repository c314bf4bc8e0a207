package setting

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"jugglerbayes/domain/core"
)

// PriorSumTolerance bounds how far a prior table may drift from summing to 1
const PriorSumTolerance = 1e-9

// Catalog bundles the two configuration tables an estimate needs
type Catalog struct {
	Name          string `json:"name" yaml:"name"`
	Probabilities Table  `json:"probabilities" yaml:"probabilities"`
	Priors        Table  `json:"priors" yaml:"priors"`
}

// Labels returns the catalog's setting labels in natural order
func (c *Catalog) Labels() []Label {
	return c.Probabilities.Labels()
}

// Validate checks the tables are consistent before any estimate runs.
// INVARIANTS:
// - every success probability lies in (0, 1]
// - every prior lies in [0, 1] and the priors sum to 1
// - both tables name exactly the same settings
func (c *Catalog) Validate() error {
	if len(c.Probabilities) == 0 {
		return fmt.Errorf("%w: %s", core.ErrEmptyCatalog, c.Name)
	}

	for _, l := range c.Probabilities.Labels() {
		p := c.Probabilities[l]
		if math.IsNaN(p) || p <= 0 || p > 1 {
			return core.NewProbabilityError("probabilities", string(l), p)
		}
		if _, ok := c.Priors[l]; !ok {
			return core.NewMismatchError(string(l), "priors")
		}
	}

	priors := make([]float64, 0, len(c.Priors))
	for _, l := range c.Priors.Labels() {
		w := c.Priors[l]
		if math.IsNaN(w) || w < 0 || w > 1 {
			return core.NewProbabilityError("priors", string(l), w)
		}
		if _, ok := c.Probabilities[l]; !ok {
			return core.NewMismatchError(string(l), "probabilities")
		}
		priors = append(priors, w)
	}

	total, err := stats.Sum(priors)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPriorSum, err)
	}
	if math.Abs(total-1) > PriorSumTolerance {
		return fmt.Errorf("%w: got %.12f", core.ErrPriorSum, total)
	}
	return nil
}

// MyJugglerV returns the built-in grape table for the six published settings
// with a uniform prior
func MyJugglerV() *Catalog {
	probs := Table{
		"設定1": 1 / 5.90,
		"設定2": 1 / 5.85,
		"設定3": 1 / 5.80,
		"設定4": 1 / 5.78,
		"設定5": 1 / 5.76,
		"設定6": 1 / 5.66,
	}
	return &Catalog{
		Name:          "myjuggler5",
		Probabilities: probs,
		Priors:        UniformPrior(probs.Labels()),
	}
}

// ParseProbability accepts either a decimal ("0.1695") or odds written as "1/5.90"
func ParseProbability(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", core.ErrInvalidProbability)
	}
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", core.ErrInvalidProbability, s, err)
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", core.ErrInvalidProbability, s, err)
		}
		if d == 0 {
			return 0, fmt.Errorf("%w: %q divides by zero", core.ErrInvalidProbability, s)
		}
		return n / d, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", core.ErrInvalidProbability, s, err)
	}
	return v, nil
}

// Entry is one row of a catalog file. A nil Prior means the row did not give one.
type Entry struct {
	Label       Label
	Probability float64
	Prior       *float64
}

// NewCatalog assembles and validates a catalog from file rows.
// When no row carries a prior the catalog gets a uniform prior; when only
// some rows do, validation reports the mismatch.
func NewCatalog(name string, entries []Entry) (*Catalog, error) {
	c := &Catalog{
		Name:          name,
		Probabilities: make(Table, len(entries)),
		Priors:        make(Table, len(entries)),
	}

	anyPrior := false
	for _, e := range entries {
		if e.Label == "" {
			return nil, fmt.Errorf("%w: row with empty setting label", core.ErrConfigMismatch)
		}
		if _, dup := c.Probabilities[e.Label]; dup {
			return nil, fmt.Errorf("%w: setting %s listed twice", core.ErrConfigMismatch, e.Label)
		}
		c.Probabilities[e.Label] = e.Probability
		if e.Prior != nil {
			anyPrior = true
			c.Priors[e.Label] = *e.Prior
		}
	}
	if !anyPrior {
		c.Priors = UniformPrior(c.Probabilities.Labels())
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
