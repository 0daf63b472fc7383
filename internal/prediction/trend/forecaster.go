// Package trend projects a course's closing rank one year ahead from its cutoff history.
package trend

import (
	"math"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/stats"
)

const (
	// MinObservations is the smallest history a line is fitted to.
	MinObservations = 2

	// SlopeThreshold is in rank units per year.
	SlopeThreshold = 100.0

	highFitScore   = 0.8
	mediumFitScore = 0.5
	maxHighMSR     = 1000.0
)

// Forecaster fits a linear trend to cutoff observations. The zero value is ready to use.
type Forecaster struct{}

func NewForecaster() *Forecaster {
	return &Forecaster{}
}

// Forecast projects the closing rank for targetYear.
//
// With fewer than MinObservations points it returns the mean rank with Low confidence and
// an InsufficientData trend rather than an error. Empty input, non-positive ranks,
// duplicate years and a targetYear that is not after the last observation are ValidationErrors.
func (f *Forecaster) Forecast(observations []models.CutoffObservation, targetYear int) (models.ForecastResult, error) {
	if err := validate(observations, targetYear); err != nil {
		return models.ForecastResult{}, err
	}

	years := make([]float64, len(observations))
	ranks := make([]float64, len(observations))
	for i, obs := range observations {
		years[i] = float64(obs.Year)
		ranks[i] = float64(obs.Rank)
	}

	if len(observations) < MinObservations {
		mean := int(math.Round(stats.Mean(ranks)))
		return models.ForecastResult{
			PredictedCutoff:  mean,
			ConfidenceLevel:  models.ConfidenceLow,
			Trend:            models.TrendInsufficientData,
			UncertaintyRange: models.RankRange{Lower: mean, Upper: mean},
			ObservationCount: len(observations),
			TargetYear:       targetYear,
		}, nil
	}

	fit, _ := stats.FitLine(years, ranks)
	// A steep falling trend can extrapolate to zero or below; the raw value is
	// reported so the band stays centred on it.
	predicted := int(math.Round(fit.At(float64(targetYear))))
	sigma := int(math.Round(stats.PopulationStdDev(ranks)))
	fitScore := fit.RSquared

	return models.ForecastResult{
		PredictedCutoff: predicted,
		ConfidenceLevel: confidence(fit),
		Trend:           direction(fit.Slope),
		UncertaintyRange: models.RankRange{
			Lower: predicted - sigma,
			Upper: predicted + sigma,
		},
		FitScore:         &fitScore,
		ObservationCount: len(observations),
		TargetYear:       targetYear,
		SlopePerYear:     fit.Slope,
		ResidualStdDev:   fit.ResidualStdDev(),
	}, nil
}

// NextYear returns the year after the latest observation.
func NextYear(observations []models.CutoffObservation) int {
	latest := 0
	for _, obs := range observations {
		if obs.Year > latest {
			latest = obs.Year
		}
	}
	return latest + 1
}

func validate(observations []models.CutoffObservation, targetYear int) error {
	if len(observations) == 0 {
		return errors.NewValidationError("observations", 0, "at least one observation is required")
	}

	seen := make(map[int]struct{}, len(observations))
	latest := math.MinInt
	for _, obs := range observations {
		if obs.Rank <= 0 {
			return errors.NewValidationError("observations.rank", obs.Rank, "rank must be positive")
		}
		if _, dup := seen[obs.Year]; dup {
			return errors.NewValidationError("observations.year", obs.Year, "duplicate year")
		}
		seen[obs.Year] = struct{}{}
		if obs.Year > latest {
			latest = obs.Year
		}
	}

	if targetYear <= latest {
		return errors.NewValidationError("targetYear", targetYear, "must be after the latest observed year")
	}
	return nil
}

func confidence(fit stats.LinearFit) models.ConfidenceLevel {
	switch {
	case fit.RSquared > highFitScore && fit.MeanSquaredResidual < maxHighMSR:
		return models.ConfidenceHigh
	case fit.RSquared > mediumFitScore:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

// A falling rank number means the course is getting more competitive.
func direction(slope float64) models.TrendDirection {
	switch {
	case slope < -SlopeThreshold:
		return models.TrendFalling
	case slope > SlopeThreshold:
		return models.TrendRising
	default:
		return models.TrendStable
	}
}
