package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"jugglerbayes/domain/core"
	"jugglerbayes/domain/setting"
	apperrors "jugglerbayes/internal/errors"
	"jugglerbayes/internal/posterior"
	"jugglerbayes/ports"
)

// EstimationService answers "which setting is this machine on?" against one loaded catalog
type EstimationService struct {
	catalog   *setting.Catalog
	workers   int
	maxPoints int
	maxTrials int
	logger    *log.Entry
}

// DefaultMaxTrials caps the games per session when ServiceOptions leaves it unset.
// Coefficient cost grows faster than linearly in trials.
const DefaultMaxTrials = 100000

// ServiceOptions bounds the estimate and sweep operations
type ServiceOptions struct {
	SweepWorkers   int
	SweepMaxPoints int
	MaxTrials      int
}

// EstimateRequest is one session tally
type EstimateRequest struct {
	Trials    int `json:"trials"`
	Successes int `json:"successes"`
}

// EstimateReport wraps a posterior result with the context a presentation layer shows
type EstimateReport struct {
	ID            core.EstimateID   `json:"id"`
	ComputedAt    core.Timestamp    `json:"computed_at"`
	Catalog       string            `json:"catalog"`
	Labels        []setting.Label   `json:"labels"`
	Probabilities setting.Table     `json:"probabilities"`
	Result        *posterior.Result `json:"result"`
	Rate          *float64          `json:"observed_rate,omitempty"`
	Odds          *float64          `json:"observed_odds,omitempty"`
	Entropy       float64           `json:"entropy"`
	RuntimeMs     int64             `json:"runtime_ms"`
}

// SweepRequest fixes the trial count and walks successes from From to To by Step
type SweepRequest struct {
	Trials int `json:"trials"`
	From   int `json:"from"`
	To     int `json:"to"`
	Step   int `json:"step"`
}

// SweepPoint is the estimate at one success count
type SweepPoint struct {
	Successes     int           `json:"successes"`
	MAP           setting.Label `json:"map_setting,omitempty"`
	MAPPosterior  float64       `json:"map_posterior"`
	Posteriors    setting.Table `json:"posteriors,omitempty"`
	Indeterminate bool          `json:"indeterminate"`
}

// SweepReport holds sweep points in ascending successes order
type SweepReport struct {
	ID         core.SweepID    `json:"id"`
	ComputedAt core.Timestamp  `json:"computed_at"`
	Catalog    string          `json:"catalog"`
	Labels     []setting.Label `json:"labels"`
	Trials     int             `json:"trials"`
	Points     []SweepPoint    `json:"points"`
	RuntimeMs  int64           `json:"runtime_ms"`
}

// NewEstimationService loads and validates the catalog once; a bad catalog fails here, not per estimate
func NewEstimationService(ctx context.Context, source ports.CatalogSource, opts ServiceOptions) (*EstimationService, error) {
	catalog, err := source.Load(ctx)
	if err != nil {
		switch {
		case core.IsNotFoundError(err):
			return nil, apperrors.WithCode(apperrors.CodeNotFound, err)
		case core.IsConfigError(err):
			return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
		default:
			return nil, apperrors.Wrap(err, "failed to load catalog")
		}
	}
	if err := catalog.Validate(); err != nil {
		return nil, apperrors.WithCode(apperrors.CodeConfigInvalid, err)
	}

	if opts.SweepWorkers <= 0 {
		opts.SweepWorkers = 1
	}
	if opts.SweepMaxPoints <= 0 {
		opts.SweepMaxPoints = 2000
	}
	if opts.MaxTrials <= 0 {
		opts.MaxTrials = DefaultMaxTrials
	}

	logger := log.WithField("component", "EstimationService")
	logger.WithFields(log.Fields{
		"catalog":  catalog.Name,
		"settings": len(catalog.Probabilities),
	}).Info("Catalog loaded")

	return &EstimationService{
		catalog:   catalog,
		workers:   opts.SweepWorkers,
		maxPoints: opts.SweepMaxPoints,
		maxTrials: opts.MaxTrials,
		logger:    logger,
	}, nil
}

// Catalog returns the loaded catalog
func (s *EstimationService) Catalog() *setting.Catalog {
	return s.catalog
}

// Estimate validates the tally and runs the posterior estimator
func (s *EstimationService) Estimate(ctx context.Context, req EstimateRequest) (*EstimateReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkTrials(req.Trials, req.Successes); err != nil {
		return nil, err
	}
	startTime := time.Now()

	obs := setting.Observation{Trials: req.Trials, Successes: req.Successes}
	result, err := posterior.Estimate(obs, s.catalog.Probabilities, s.catalog.Priors)
	if err != nil {
		if core.IsValidationError(err) {
			return nil, apperrors.InvalidObservation(err)
		}
		return nil, apperrors.Wrap(err, "estimate failed")
	}

	report := &EstimateReport{
		ID:            core.NewEstimateID(),
		ComputedAt:    core.Now(),
		Catalog:       s.catalog.Name,
		Labels:        s.catalog.Labels(),
		Probabilities: s.catalog.Probabilities,
		Result:        result,
		Entropy:       result.Entropy(),
	}
	if rate, ok := obs.Rate(); ok {
		report.Rate = &rate
	}
	if odds, ok := obs.Odds(); ok {
		report.Odds = &odds
	}
	report.RuntimeMs = time.Since(startTime).Milliseconds()

	entry := s.logger.WithFields(log.Fields{
		"estimate_id": report.ID,
		"trials":      obs.Trials,
		"successes":   obs.Successes,
	})
	if result.Indeterminate {
		entry.Warn("Evidence is zero; posterior indeterminate")
	} else {
		entry.WithField("map_setting", result.MAP).Debug("Estimate complete")
	}

	return report, nil
}

// Sweep estimates every success count in the requested range concurrently
func (s *EstimationService) Sweep(ctx context.Context, req SweepRequest) (*SweepReport, error) {
	if err := s.validateSweep(req); err != nil {
		return nil, err
	}
	startTime := time.Now()

	count := (req.To-req.From)/req.Step + 1
	points := make([]SweepPoint, count)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := 0; i < count; i++ {
		successes := req.From + i*req.Step
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			obs := setting.Observation{Trials: req.Trials, Successes: successes}
			result, err := posterior.Estimate(obs, s.catalog.Probabilities, s.catalog.Priors)
			if err != nil {
				return err
			}
			points[i] = newSweepPoint(successes, result)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if core.IsValidationError(err) {
			return nil, apperrors.InvalidObservation(err)
		}
		return nil, err
	}

	report := &SweepReport{
		ID:         core.NewSweepID(),
		ComputedAt: core.Now(),
		Catalog:    s.catalog.Name,
		Labels:     s.catalog.Labels(),
		Trials:     req.Trials,
		Points:     points,
		RuntimeMs:  time.Since(startTime).Milliseconds(),
	}
	s.logger.WithFields(log.Fields{
		"sweep_id": report.ID,
		"trials":   req.Trials,
		"points":   count,
	}).Debug("Sweep complete")

	return report, nil
}

func (s *EstimationService) checkTrials(trials, successes int) error {
	if trials > s.maxTrials {
		return apperrors.InvalidObservation(core.NewObservationError(trials, successes,
			fmt.Sprintf("trials exceed the limit of %d", s.maxTrials)))
	}
	return nil
}

func (s *EstimationService) validateSweep(req SweepRequest) error {
	if err := s.checkTrials(req.Trials, req.To); err != nil {
		return err
	}
	obsErr := setting.Observation{Trials: req.Trials, Successes: req.To}.Validate()
	switch {
	case obsErr != nil:
		return apperrors.InvalidObservation(obsErr)
	case req.Step <= 0:
		return apperrors.InvalidObservation(fmt.Errorf("%w: step must be positive", core.ErrInvalidSweep))
	case req.From < 0 || req.From > req.To:
		return apperrors.InvalidObservation(fmt.Errorf("%w: from=%d to=%d", core.ErrInvalidSweep, req.From, req.To))
	case (req.To-req.From)/req.Step+1 > s.maxPoints:
		return apperrors.InvalidObservation(fmt.Errorf("%w: more than %d points", core.ErrInvalidSweep, s.maxPoints))
	}
	return nil
}

func newSweepPoint(successes int, result *posterior.Result) SweepPoint {
	point := SweepPoint{
		Successes:     successes,
		Indeterminate: result.Indeterminate,
	}
	if !result.Indeterminate {
		point.MAP = result.MAP
		point.MAPPosterior = result.Posteriors[result.MAP]
		point.Posteriors = result.Posteriors
	}
	return point
}
