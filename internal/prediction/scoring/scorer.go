// Package scoring ranks colleges with a weighted multi-factor score.
//
// Every factor is mapped to [0,100] before weighting, and the breakdown of all six
// factors is returned with the total.
package scoring

import (
	"math"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/stats"
)

// Calibration anchors for the placement and fee factors.
const (
	AveragePackageAnchor = 1_500_000
	HighestPackageAnchor = 5_000_000
	FeeBaseline          = 50_000
	FeeStep              = 2_500

	averagePackageShare = 0.7
	highestPackageShare = 0.3

	locationMatchScore   = 100.0
	locationNeutralScore = 50.0
	pointsPerBranch      = 20.0
	maxRating            = 5.0
)

type eligibilityStep struct {
	minAdvantage float64
	score        float64
}

var eligibilitySteps = []eligibilityStep{
	{30, 100},
	{20, 85},
	{10, 70},
	{5, 50},
}

// Scorer combines normalized factor scores using normalized preference weights.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns the weighted total in [0,100] rounded to two decimals.
func (s *Scorer) Score(factors models.CollegeFactors, weights models.PreferenceWeights) (models.ScoreResult, error) {
	if err := validateFactors(factors); err != nil {
		return models.ScoreResult{}, err
	}

	applied, err := NormalizeWeights(weights)
	if err != nil {
		return models.ScoreResult{}, err
	}

	breakdown := map[models.Factor]float64{
		models.FactorRankEligibility: RankEligibilityScore(factors.RankAdvantagePercent),
		models.FactorPlacements:      PlacementScore(factors.AveragePackage, factors.HighestPackage),
		models.FactorFees:            FeeScore(factors.AnnualFee),
		models.FactorRating:          factors.Rating / maxRating * 100,
		models.FactorLocation:        LocationScore(factors.MatchesPreferredLocation),
		models.FactorBranches:        math.Min(100, float64(factors.EligibleBranchCount)*pointsPerBranch),
	}

	w := applied.Values()
	var total float64
	for _, f := range models.AllFactors() {
		total += breakdown[f] * w[f]
	}

	return models.ScoreResult{
		TotalScore:     stats.Round2(stats.Clamp(total, 0, 100)),
		Breakdown:      breakdown,
		AppliedWeights: applied,
	}, nil
}

// RankEligibilityScore mirrors the probability tiers; a non-positive advantage scores 0.
func RankEligibilityScore(advantage float64) float64 {
	for _, step := range eligibilitySteps {
		if advantage >= step.minAdvantage {
			return step.score
		}
	}
	if advantage > 0 {
		return 30
	}
	return 0
}

func PlacementScore(averagePackage, highestPackage int) float64 {
	avg := math.Min(100, float64(averagePackage)/AveragePackageAnchor*100)
	top := math.Min(100, float64(highestPackage)/HighestPackageAnchor*100)
	return averagePackageShare*avg + highestPackageShare*top
}

// FeeScore decreases linearly from 100 at FeeBaseline by one point per FeeStep.
func FeeScore(annualFee int) float64 {
	return stats.Clamp(100-float64(annualFee-FeeBaseline)/FeeStep, 0, 100)
}

func LocationScore(matches bool) float64 {
	if matches {
		return locationMatchScore
	}
	return locationNeutralScore
}

func validateFactors(f models.CollegeFactors) error {
	switch {
	case math.IsNaN(f.RankAdvantagePercent) || math.IsInf(f.RankAdvantagePercent, 0):
		return errors.NewValidationError("rankAdvantagePercent", f.RankAdvantagePercent, "must be finite")
	case math.IsNaN(f.Rating) || f.Rating < 0 || f.Rating > maxRating:
		return errors.NewValidationError("rating", f.Rating, "rating must be between 0 and 5")
	case f.AveragePackage < 0:
		return errors.NewValidationError("averagePackage", f.AveragePackage, "must not be negative")
	case f.HighestPackage < 0:
		return errors.NewValidationError("highestPackage", f.HighestPackage, "must not be negative")
	case f.AnnualFee < 0:
		return errors.NewValidationError("annualFee", f.AnnualFee, "must not be negative")
	case f.EligibleBranchCount < 0:
		return errors.NewValidationError("eligibleBranchCount", f.EligibleBranchCount, "must not be negative")
	}
	return nil
}
