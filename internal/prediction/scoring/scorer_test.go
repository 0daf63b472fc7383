package scoring

import (
	"math"
	"testing"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFactors() models.CollegeFactors {
	return models.CollegeFactors{
		RankAdvantagePercent:     37.5,
		AveragePackage:           1_200_000,
		HighestPackage:           4_000_000,
		AnnualFee:                100_000,
		Rating:                   4.0,
		MatchesPreferredLocation: true,
		EligibleBranchCount:      3,
	}
}

func equalWeights() models.PreferenceWeights {
	return models.PreferenceWeights{RankEligibility: 1, Placements: 1, Fees: 1, Rating: 1, Location: 1, Branches: 1}
}

// ==========================
// Factor Normalization
// ==========================

func TestRankEligibilityScore(t *testing.T) {
	tests := []struct {
		advantage float64
		expected  float64
	}{
		{45, 100}, {30, 100}, {25, 85}, {20, 85}, {12, 70}, {10, 70},
		{5, 50}, {4.99, 30}, {0.1, 30}, {0, 0}, {-3, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RankEligibilityScore(tt.advantage), "advantage %v", tt.advantage)
	}
}

func TestPlacementScore(t *testing.T) {
	assert.InDelta(t, 100.0, PlacementScore(1_500_000, 5_000_000), 1e-9)
	assert.InDelta(t, 100.0, PlacementScore(9_000_000, 40_000_000), 1e-9)
	assert.InDelta(t, 50.0, PlacementScore(750_000, 2_500_000), 1e-9)
	assert.InDelta(t, 80.0, PlacementScore(1_200_000, 4_000_000), 1e-9)
	assert.Equal(t, 0.0, PlacementScore(0, 0))
}

func TestFeeScore(t *testing.T) {
	tests := []struct {
		fee      int
		expected float64
	}{
		{0, 100},
		{25_000, 100},
		{50_000, 100},
		{150_000, 60},
		{300_000, 0},
		{1_000_000, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, FeeScore(tt.fee), 1e-9, "fee %d", tt.fee)
	}
}

func TestLocationScore(t *testing.T) {
	assert.Equal(t, 100.0, LocationScore(true))
	assert.Equal(t, 50.0, LocationScore(false))
}

// ==========================
// Weighted Total
// ==========================

func TestScore_WeightedTotal(t *testing.T) {
	result, err := NewScorer().Score(sampleFactors(), equalWeights())

	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Breakdown[models.FactorRankEligibility])
	assert.InDelta(t, 80.0, result.Breakdown[models.FactorPlacements], 1e-9)
	assert.InDelta(t, 80.0, result.Breakdown[models.FactorFees], 1e-9)
	assert.InDelta(t, 80.0, result.Breakdown[models.FactorRating], 1e-9)
	assert.Equal(t, 100.0, result.Breakdown[models.FactorLocation])
	assert.Equal(t, 60.0, result.Breakdown[models.FactorBranches])
	// (100+80+80+80+100+60) / 6
	assert.Equal(t, 83.33, result.TotalScore)
}

func TestScore_BaselineWeightsAreNormalized(t *testing.T) {
	result, err := NewScorer().Score(sampleFactors(), models.BaselineWeights())

	require.NoError(t, err)
	// baseline sums to 1.05: (30+24+12+12+10+3) / 1.05
	assert.Equal(t, 86.67, result.TotalScore)
	assert.InDelta(t, 1.0, result.AppliedWeights.Sum(), 1e-9)
	assert.InDelta(t, 0.30/1.05, result.AppliedWeights.RankEligibility, 1e-9)
}

func TestScore_ZeroWeightsFallBackToBaseline(t *testing.T) {
	s := NewScorer()

	zero, err := s.Score(sampleFactors(), models.PreferenceWeights{})
	require.NoError(t, err)
	baseline, err := s.Score(sampleFactors(), models.BaselineWeights())
	require.NoError(t, err)

	assert.Equal(t, baseline.TotalScore, zero.TotalScore)
	assert.Equal(t, baseline.AppliedWeights, zero.AppliedWeights)
}

func TestScore_SingleFactorWeight(t *testing.T) {
	result, err := NewScorer().Score(sampleFactors(), models.PreferenceWeights{Placements: 3})

	require.NoError(t, err)
	assert.Equal(t, 80.0, result.TotalScore)
	assert.Equal(t, 1.0, result.AppliedWeights.Placements)
	assert.Equal(t, 0.0, result.AppliedWeights.Fees)
}

func TestScore_ScaleInvariance(t *testing.T) {
	s := NewScorer()
	weights := models.PreferenceWeights{RankEligibility: 0.4, Placements: 0.2, Fees: 0.1, Rating: 0.1, Location: 0.15, Branches: 0.05}

	reference, err := s.Score(sampleFactors(), weights)
	require.NoError(t, err)

	for _, k := range []float64{0.001, 0.5, 2, 17, 1e6} {
		scaled, err := s.Score(sampleFactors(), weights.Scale(k))
		require.NoError(t, err)
		assert.InDelta(t, reference.TotalScore, scaled.TotalScore, 1e-9, "k=%v", k)
	}
}

func TestScore_HugeWeightsStayNormalized(t *testing.T) {
	s := NewScorer()

	huge, err := s.Score(sampleFactors(), models.PreferenceWeights{RankEligibility: math.MaxFloat64, Placements: math.MaxFloat64})
	require.NoError(t, err)
	equal, err := s.Score(sampleFactors(), models.PreferenceWeights{RankEligibility: 1, Placements: 1})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, huge.AppliedWeights.Sum(), 1e-9)
	assert.InDelta(t, 0.5, huge.AppliedWeights.RankEligibility, 1e-9)
	assert.InDelta(t, 0.5, huge.AppliedWeights.Placements, 1e-9)
	assert.Equal(t, equal.TotalScore, huge.TotalScore)
	assert.Greater(t, huge.TotalScore, 0.0)

	half := math.MaxFloat64 / 2
	all, err := s.Score(sampleFactors(), models.PreferenceWeights{
		RankEligibility: half, Placements: half, Fees: half, Rating: half, Location: half, Branches: half,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, all.AppliedWeights.Sum(), 1e-9)
	assert.InDelta(t, 1.0/6, all.AppliedWeights.Fees, 1e-9)
}

func TestScore_BreakdownCompleteness(t *testing.T) {
	cases := []models.CollegeFactors{
		sampleFactors(),
		{RankAdvantagePercent: -20, AnnualFee: 2_000_000, Rating: 0},
		{RankAdvantagePercent: 99, AveragePackage: 50_000_000, HighestPackage: 90_000_000, Rating: 5, EligibleBranchCount: 40},
	}

	for _, factors := range cases {
		result, err := NewScorer().Score(factors, equalWeights())
		require.NoError(t, err)

		require.Len(t, result.Breakdown, 6)
		for _, f := range models.AllFactors() {
			v, ok := result.Breakdown[f]
			require.True(t, ok, "missing %s", f)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 100.0)
		}
		assert.GreaterOrEqual(t, result.TotalScore, 0.0)
		assert.LessOrEqual(t, result.TotalScore, 100.0)
	}
}

// ==========================
// Validation
// ==========================

func TestScore_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		factors models.CollegeFactors
		weights models.PreferenceWeights
		field   string
	}{
		{"negative weight", sampleFactors(), models.PreferenceWeights{Fees: -0.1, Rating: 1}, "weights.fees"},
		{"NaN weight", sampleFactors(), models.PreferenceWeights{Location: math.NaN()}, "weights.location"},
		{"infinite weight", sampleFactors(), models.PreferenceWeights{Placements: math.Inf(1)}, "weights.placements"},
		{"rating above five", models.CollegeFactors{Rating: 5.5}, equalWeights(), "rating"},
		{"negative fee", models.CollegeFactors{AnnualFee: -1}, equalWeights(), "annualFee"},
		{"negative branch count", models.CollegeFactors{EligibleBranchCount: -2}, equalWeights(), "eligibleBranchCount"},
		{"NaN advantage", models.CollegeFactors{RankAdvantagePercent: math.NaN()}, equalWeights(), "rankAdvantagePercent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScorer().Score(tt.factors, tt.weights)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, tt.field, err.(*errors.ValidationError).Field)
		})
	}
}
