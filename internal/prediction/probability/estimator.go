// Package probability turns a candidate rank and a course cutoff into an admission chance.
package probability

import (
	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/stats"
)

const (
	// DefaultVolatilityPercent is assumed when fewer than two historical ranks exist.
	DefaultVolatilityPercent = 5.0

	volatilityWeight = 0.3
	maxPenalty       = 15.0
)

// band is one rank-advantage tier with an inclusive lower bound.
type band struct {
	minAdvantage float64
	base         float64
	tier         models.Tier
}

var bands = []band{
	{30, 95, models.TierHighlySafe},
	{20, 85, models.TierSafe},
	{10, 70, models.TierProbable},
	{5, 55, models.TierModerate},
}

var reach = band{0, 35, models.TierReach}

// Estimator converts rank advantage and cutoff volatility into a probability percentage.
type Estimator struct{}

func NewEstimator() *Estimator {
	return &Estimator{}
}

// Estimate returns the admission chance for rank at a course whose current cutoff is cutoff.
// A rank above the cutoff is NotEligible with zero probability; advantage and
// volatility are still reported.
func (e *Estimator) Estimate(rank, cutoff int, historicalRanks []int) (models.ProbabilityResult, error) {
	if rank <= 0 {
		return models.ProbabilityResult{}, errors.NewValidationError("rank", rank, "rank must be positive")
	}
	if cutoff <= 0 {
		return models.ProbabilityResult{}, errors.NewValidationError("cutoff", cutoff, "cutoff must be positive")
	}

	volatility, err := Volatility(historicalRanks)
	if err != nil {
		return models.ProbabilityResult{}, err
	}

	advantage := RankAdvantage(rank, cutoff)
	result := models.ProbabilityResult{
		RankAdvantagePercent:        advantage,
		HistoricalVolatilityPercent: volatility,
	}

	if rank > cutoff {
		result.Tier = models.TierNotEligible
		return result, nil
	}

	b := classify(advantage)
	penalty := min(volatility*volatilityWeight, maxPenalty)

	result.Tier = b.tier
	result.BasePercent = b.base
	result.VolatilityPenalty = penalty
	result.ProbabilityPercent = stats.Clamp(b.base-penalty, 0, 100)
	return result, nil
}

// RankAdvantage is how far rank sits inside cutoff, as a percentage of cutoff.
// It is negative when rank is beyond the cutoff.
func RankAdvantage(rank, cutoff int) float64 {
	return float64(cutoff-rank) * 100 / float64(cutoff)
}

// Volatility is the coefficient of variation of ranks in percent.
func Volatility(ranks []int) (float64, error) {
	for _, r := range ranks {
		if r <= 0 {
			return 0, errors.NewValidationError("historicalRanks", r, "historical ranks must be positive")
		}
	}
	if len(ranks) < 2 {
		return DefaultVolatilityPercent, nil
	}

	xs := make([]float64, len(ranks))
	for i, r := range ranks {
		xs[i] = float64(r)
	}
	// Positive ranks guarantee a positive mean.
	return stats.PopulationStdDev(xs) / stats.Mean(xs) * 100, nil
}

// Boundaries resolve to the higher tier.
func classify(advantage float64) band {
	for _, b := range bands {
		if advantage >= b.minAdvantage {
			return b
		}
	}
	return reach
}
