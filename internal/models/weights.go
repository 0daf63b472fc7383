// internal/models/weights.go
package models

// PreferenceWeights holds the relative importance of each scoring factor.
// Values need not sum to 1; the scorer normalizes them.
type PreferenceWeights struct {
	RankEligibility float64 `json:"rankEligibility" mapstructure:"rank_eligibility"`
	Placements      float64 `json:"placements" mapstructure:"placements"`
	Fees            float64 `json:"fees" mapstructure:"fees"`
	Rating          float64 `json:"rating" mapstructure:"rating"`
	Location        float64 `json:"location" mapstructure:"location"`
	Branches        float64 `json:"branches" mapstructure:"branches"`
}

// BaselineWeights is used for any weight the caller leaves out, and in full
// when the supplied weights sum to zero.
func BaselineWeights() PreferenceWeights {
	return PreferenceWeights{
		RankEligibility: 0.30,
		Placements:      0.30,
		Fees:            0.15,
		Rating:          0.15,
		Location:        0.10,
		Branches:        0.05,
	}
}

// Sum returns the total of all six weights.
func (w PreferenceWeights) Sum() float64 {
	return w.RankEligibility + w.Placements + w.Fees + w.Rating + w.Location + w.Branches
}

// Values returns the weights keyed by factor.
func (w PreferenceWeights) Values() map[Factor]float64 {
	return map[Factor]float64{
		FactorRankEligibility: w.RankEligibility,
		FactorPlacements:      w.Placements,
		FactorFees:            w.Fees,
		FactorRating:          w.Rating,
		FactorLocation:        w.Location,
		FactorBranches:        w.Branches,
	}
}

// Scale multiplies every weight by k.
func (w PreferenceWeights) Scale(k float64) PreferenceWeights {
	return PreferenceWeights{
		RankEligibility: w.RankEligibility * k,
		Placements:      w.Placements * k,
		Fees:            w.Fees * k,
		Rating:          w.Rating * k,
		Location:        w.Location * k,
		Branches:        w.Branches * k,
	}
}

// WeightInput is the wire form of PreferenceWeights where every field is optional.
type WeightInput struct {
	RankEligibility *float64 `json:"rankEligibility,omitempty"`
	Placements      *float64 `json:"placements,omitempty"`
	Fees            *float64 `json:"fees,omitempty"`
	Rating          *float64 `json:"rating,omitempty"`
	Location        *float64 `json:"location,omitempty"`
	Branches        *float64 `json:"branches,omitempty"`
}

// Resolve fills missing fields from base. A nil receiver yields base unchanged.
func (in *WeightInput) Resolve(base PreferenceWeights) PreferenceWeights {
	if in == nil {
		return base
	}
	out := base
	pick := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	pick(&out.RankEligibility, in.RankEligibility)
	pick(&out.Placements, in.Placements)
	pick(&out.Fees, in.Fees)
	pick(&out.Rating, in.Rating)
	pick(&out.Location, in.Location)
	pick(&out.Branches, in.Branches)
	return out
}
