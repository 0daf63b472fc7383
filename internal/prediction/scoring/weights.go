package scoring

import (
	"math"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"
)

// ValidateWeights rejects negative or non-finite weights.
func ValidateWeights(w models.PreferenceWeights) error {
	values := w.Values()
	for _, f := range models.AllFactors() {
		v := values[f]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewValidationError("weights."+string(f), v, "weight must be finite")
		}
		if v < 0 {
			return errors.NewValidationError("weights."+string(f), v, "weight must not be negative")
		}
	}
	return nil
}

// NormalizeWeights scales w so the six weights sum to 1.
// All-zero weights fall back to the baseline.
func NormalizeWeights(w models.PreferenceWeights) (models.PreferenceWeights, error) {
	if err := ValidateWeights(w); err != nil {
		return models.PreferenceWeights{}, err
	}

	largest := maxWeight(w)
	if largest == 0 {
		w = models.BaselineWeights()
		largest = maxWeight(w)
	}

	// Dividing by the largest weight first keeps the sum finite for huge inputs.
	w = divide(w, largest)
	return divide(w, w.Sum()), nil
}

func maxWeight(w models.PreferenceWeights) float64 {
	largest := 0.0
	for _, v := range w.Values() {
		largest = math.Max(largest, v)
	}
	return largest
}

func divide(w models.PreferenceWeights, d float64) models.PreferenceWeights {
	return models.PreferenceWeights{
		RankEligibility: w.RankEligibility / d,
		Placements:      w.Placements / d,
		Fees:            w.Fees / d,
		Rating:          w.Rating / d,
		Location:        w.Location / d,
		Branches:        w.Branches / d,
	}
}
