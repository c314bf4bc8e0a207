// Package posterior turns an observed tally into a posterior distribution over
// machine settings under a binomial model.
package posterior

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"jugglerbayes/domain/setting"
	"jugglerbayes/internal/binomial"
)

// Result is the outcome of one estimate. It is never mutated after Estimate returns.
// INVARIANTS:
// - Likelihoods has one entry per label of the probability table
// - Indeterminate is true exactly when Evidence == 0; then Posteriors is nil and MAP is empty
// - otherwise Posteriors sums to 1 and MAP is one of its labels
// - LogLikelihoods holds the natural log for every label whose likelihood
//   underflowed float64 to 0 while still being possible
type Result struct {
	Observation    setting.Observation `json:"observation"`
	Likelihoods    setting.Table       `json:"likelihoods"`
	LogLikelihoods setting.Table       `json:"log_likelihoods,omitempty"`
	Evidence       float64             `json:"evidence"`
	Posteriors     setting.Table       `json:"posteriors,omitempty"`
	MAP            setting.Label       `json:"map_setting,omitempty"`
	Indeterminate  bool                `json:"indeterminate"`
}

// newTally is swapped in tests to count coefficient computations
var newTally = binomial.NewTally

// Estimate computes per-setting likelihoods, the evidence and the posterior.
//
// probs maps each setting to its success probability; priors maps each
// setting to its prior weight. A setting absent from priors carries zero
// weight; keeping the two tables consistent is the catalog's job
// (see setting.Catalog.Validate).
//
// An invalid observation is rejected before any computation. Zero evidence
// is not an error: the result comes back Indeterminate.
func Estimate(obs setting.Observation, probs, priors setting.Table) (*Result, error) {
	if err := obs.Validate(); err != nil {
		return nil, err
	}

	// one coefficient for the whole table
	tally := newTally(obs.Trials, obs.Successes)

	labels := probs.Labels()
	likelihoods := make(setting.Table, len(labels))
	var logLikelihoods setting.Table
	weighted := make([]float64, len(labels))
	for i, l := range labels {
		lk := tally.PMF(probs[l])
		likelihoods[l] = lk
		weighted[i] = lk * priors[l]
		if lk == 0 {
			if ll := tally.LogPMF(probs[l]); !math.IsInf(ll, -1) {
				if logLikelihoods == nil {
					logLikelihoods = make(setting.Table)
				}
				logLikelihoods[l] = ll
			}
		}
	}

	result := &Result{
		Observation:    obs,
		Likelihoods:    likelihoods,
		LogLikelihoods: logLikelihoods,
		Evidence:       floats.Sum(weighted),
	}

	if !(result.Evidence > 0) {
		result.Evidence = 0
		result.Indeterminate = true
		return result, nil
	}

	result.Posteriors = make(setting.Table, len(labels))
	best := -1.0
	for i, l := range labels {
		post := weighted[i] / result.Evidence
		result.Posteriors[l] = post
		// strictly greater: the first label in natural order wins a tie
		if post > best {
			best = post
			result.MAP = l
		}
	}

	return result, nil
}

// Ranked returns labels ordered by posterior, highest first. Ties keep natural label order.
// An indeterminate result ranks nothing.
func (r *Result) Ranked() []setting.Label {
	if r.Indeterminate {
		return nil
	}
	labels := r.Posteriors.Labels()
	sort.SliceStable(labels, func(i, j int) bool {
		return r.Posteriors[labels[i]] > r.Posteriors[labels[j]]
	})
	return labels
}

// Entropy is the Shannon entropy of the posterior in nats.
// 0 means all mass sits on one setting; ln(len) means the data could not separate them.
func (r *Result) Entropy() float64 {
	if r.Indeterminate {
		return 0
	}
	labels := r.Posteriors.Labels()
	p := make([]float64, len(labels))
	for i, l := range labels {
		p[i] = r.Posteriors[l]
	}
	return stat.Entropy(p)
}

// Posterior returns one setting's posterior. ok is false when the result is
// indeterminate or the label is unknown.
func (r *Result) Posterior(l setting.Label) (float64, bool) {
	if r.Indeterminate {
		return 0, false
	}
	v, ok := r.Posteriors[l]
	return v, ok
}
