package setting

import (
	"math"
	"sort"
	"strconv"
	"unicode"

	"jugglerbayes/domain/core"
)

// Label names one hypothesis about the machine's hidden configuration
type Label string

func (l Label) String() string { return string(l) }

// Table maps setting labels to probabilities.
// The same shape holds theoretical success rates, priors, likelihoods and posteriors.
type Table map[Label]float64

// Labels returns the table's labels in natural order (S2 before S10)
func (t Table) Labels() []Label {
	labels := make([]Label, 0, len(t))
	for l := range t {
		labels = append(labels, l)
	}
	SortLabels(labels)
	return labels
}

// Sum returns the total of all values in the table
func (t Table) Sum() float64 {
	total := 0.0
	for _, l := range t.Labels() {
		total += t[l]
	}
	return total
}

// Clone returns an independent copy
func (t Table) Clone() Table {
	if t == nil {
		return nil
	}
	out := make(Table, len(t))
	for l, v := range t {
		out[l] = v
	}
	return out
}

// UniformPrior assigns equal weight to every label
func UniformPrior(labels []Label) Table {
	prior := make(Table, len(labels))
	if len(labels) == 0 {
		return prior
	}
	w := 1.0 / float64(len(labels))
	for _, l := range labels {
		prior[l] = w
	}
	return prior
}

// Observation is a session's tally: how many trials were played and how many hit
type Observation struct {
	Trials    int `json:"trials"`
	Successes int `json:"successes"`
}

// Validate rejects negative counts and more successes than trials
func (o Observation) Validate() error {
	switch {
	case o.Trials < 0:
		return core.NewObservationError(o.Trials, o.Successes, "trials must be non-negative")
	case o.Successes < 0:
		return core.NewObservationError(o.Trials, o.Successes, "successes must be non-negative")
	case o.Successes > o.Trials:
		return core.NewObservationError(o.Trials, o.Successes, "successes cannot exceed trials")
	}
	return nil
}

// Rate returns the observed success rate. ok is false when no trials were played.
func (o Observation) Rate() (rate float64, ok bool) {
	if o.Trials <= 0 {
		return 0, false
	}
	return float64(o.Successes) / float64(o.Trials), true
}

// Odds returns the observed rate as "one in x". ok is false when there is no rate or no success.
func (o Observation) Odds() (float64, bool) {
	rate, ok := o.Rate()
	if !ok || rate == 0 {
		return math.Inf(1), false
	}
	return 1 / rate, true
}

// SortLabels orders labels naturally: runs of digits compare by numeric value
func SortLabels(labels []Label) {
	sort.SliceStable(labels, func(i, j int) bool {
		return naturalLess(string(labels[i]), string(labels[j]))
	})
}

func naturalLess(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	i, j := 0, 0
	for i < len(ra) && j < len(rb) {
		if unicode.IsDigit(ra[i]) && unicode.IsDigit(rb[j]) {
			si := i
			for i < len(ra) && unicode.IsDigit(ra[i]) {
				i++
			}
			sj := j
			for j < len(rb) && unicode.IsDigit(rb[j]) {
				j++
			}
			na, errA := strconv.ParseUint(string(ra[si:i]), 10, 64)
			nb, errB := strconv.ParseUint(string(rb[sj:j]), 10, 64)
			if errA == nil && errB == nil && na != nb {
				return na < nb
			}
			if errA != nil || errB != nil {
				if da, db := string(ra[si:i]), string(rb[sj:j]); da != db {
					return da < db
				}
			}
			continue
		}
		if ra[i] != rb[j] {
			return ra[i] < rb[j]
		}
		i++
		j++
	}
	if len(ra)-i != len(rb)-j {
		return len(ra)-i < len(rb)-j
	}
	// equal under natural order; fall back to bytes so the order stays total
	return a < b
}
