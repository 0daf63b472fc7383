package trend

import (
	"testing"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(startYear int, ranks ...int) []models.CutoffObservation {
	out := make([]models.CutoffObservation, len(ranks))
	for i, r := range ranks {
		out[i] = models.CutoffObservation{Year: startYear + i, Rank: r}
	}
	return out
}

// ==========================
// Fallback and Fit Quality
// ==========================

func TestForecast_InsufficientData(t *testing.T) {
	f := NewForecaster()

	result, err := f.Forecast([]models.CutoffObservation{{Year: 2024, Rank: 500}}, 2025)

	require.NoError(t, err)
	assert.Equal(t, 500, result.PredictedCutoff)
	assert.Equal(t, models.ConfidenceLow, result.ConfidenceLevel)
	assert.Equal(t, models.TrendInsufficientData, result.Trend)
	assert.Nil(t, result.FitScore)
	assert.Equal(t, models.RankRange{Lower: 500, Upper: 500}, result.UncertaintyRange)
	assert.Equal(t, 1, result.ObservationCount)
	assert.Equal(t, 2025, result.TargetYear)
}

func TestForecast_PerfectFit(t *testing.T) {
	f := NewForecaster()

	result, err := f.Forecast(series(2020, 500, 480, 460, 440, 420), 2025)

	require.NoError(t, err)
	require.NotNil(t, result.FitScore)
	assert.InDelta(t, 1.0, *result.FitScore, 1e-9)
	assert.Equal(t, models.ConfidenceHigh, result.ConfidenceLevel)
	assert.Equal(t, models.TrendStable, result.Trend)
	assert.Equal(t, 400, result.PredictedCutoff)
	// population std-dev of the observed ranks is sqrt(800)
	assert.Equal(t, models.RankRange{Lower: 372, Upper: 428}, result.UncertaintyRange)
	assert.Equal(t, 5, result.ObservationCount)
	assert.InDelta(t, -20.0, result.SlopePerYear, 1e-9)
	assert.InDelta(t, 0.0, result.ResidualStdDev, 1e-6)
}

func TestForecast_ConstantSeries(t *testing.T) {
	result, err := NewForecaster().Forecast(series(2021, 900, 900, 900), 2024)

	require.NoError(t, err)
	require.NotNil(t, result.FitScore)
	assert.Equal(t, 1.0, *result.FitScore)
	assert.Equal(t, models.ConfidenceHigh, result.ConfidenceLevel)
	assert.Equal(t, models.TrendStable, result.Trend)
	assert.Equal(t, 900, result.PredictedCutoff)
	assert.Equal(t, models.RankRange{Lower: 900, Upper: 900}, result.UncertaintyRange)
}

func TestForecast_Classification(t *testing.T) {
	tests := []struct {
		name       string
		obs        []models.CutoffObservation
		targetYear int
		predicted  int
		confidence models.ConfidenceLevel
		trend      models.TrendDirection
	}{
		{
			name:       "falling rank number means more competitive",
			obs:        series(2020, 10000, 9800, 9600, 9400),
			targetYear: 2024,
			predicted:  9200,
			confidence: models.ConfidenceHigh,
			trend:      models.TrendFalling,
		},
		{
			name:       "rising rank number means less competitive",
			obs:        series(2021, 5000, 5150, 5300),
			targetYear: 2024,
			predicted:  5450,
			confidence: models.ConfidenceHigh,
			trend:      models.TrendRising,
		},
		{
			name:       "good fit with large residuals is medium",
			obs:        series(2020, 10000, 9000, 8200, 7000),
			targetYear: 2024,
			predicted:  6100,
			confidence: models.ConfidenceMedium,
			trend:      models.TrendFalling,
		},
		{
			name:       "moderate fit is medium",
			obs:        series(2020, 1000, 3000, 2000, 4000),
			targetYear: 2024,
			predicted:  4500,
			confidence: models.ConfidenceMedium,
			trend:      models.TrendRising,
		},
		{
			name:       "poor fit is low",
			obs:        series(2020, 1000, 2000, 1000, 2000),
			targetYear: 2024,
			predicted:  2000,
			confidence: models.ConfidenceLow,
			trend:      models.TrendRising,
		},
		{
			name:       "slope exactly at threshold is stable",
			obs:        series(2021, 700, 600, 500),
			targetYear: 2024,
			predicted:  400,
			confidence: models.ConfidenceHigh,
			trend:      models.TrendStable,
		},
	}

	f := NewForecaster()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.Forecast(tt.obs, tt.targetYear)
			require.NoError(t, err)
			assert.Equal(t, tt.predicted, result.PredictedCutoff)
			assert.Equal(t, tt.confidence, result.ConfidenceLevel)
			assert.Equal(t, tt.trend, result.Trend)
		})
	}
}

func TestForecast_ExtrapolatesBelowRankOne(t *testing.T) {
	tests := []struct {
		name       string
		obs        []models.CutoffObservation
		targetYear int
		predicted  int
		band       models.RankRange
	}{
		{
			name:       "lands on zero",
			obs:        series(2021, 300, 200, 100),
			targetYear: 2024,
			predicted:  0,
			band:       models.RankRange{Lower: -82, Upper: 82},
		},
		{
			name:       "several years past the data",
			obs:        series(2020, 900, 600, 300),
			targetYear: 2025,
			predicted:  -600,
			band:       models.RankRange{Lower: -845, Upper: -355},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewForecaster().Forecast(tt.obs, tt.targetYear)
			require.NoError(t, err)

			assert.Equal(t, tt.predicted, result.PredictedCutoff)
			assert.Equal(t, tt.band, result.UncertaintyRange)
			assert.Equal(t, tt.predicted-result.UncertaintyRange.Lower, result.UncertaintyRange.Upper-tt.predicted)
		})
	}
}

func TestForecast_OrderIndependentAndDeterministic(t *testing.T) {
	f := NewForecaster()
	ordered := series(2020, 8200, 8100, 7900, 8000, 8000)
	shuffled := []models.CutoffObservation{ordered[3], ordered[0], ordered[4], ordered[2], ordered[1]}

	first, err := f.Forecast(ordered, 2025)
	require.NoError(t, err)
	second, err := f.Forecast(ordered, 2025)
	require.NoError(t, err)
	third, err := f.Forecast(shuffled, 2025)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.PredictedCutoff, third.PredictedCutoff)
	assert.InDelta(t, *first.FitScore, *third.FitScore, 1e-9)
}

// ==========================
// Validation
// ==========================

func TestForecast_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		obs        []models.CutoffObservation
		targetYear int
		field      string
	}{
		{"empty history", nil, 2025, "observations"},
		{"duplicate year", []models.CutoffObservation{{Year: 2023, Rank: 100}, {Year: 2023, Rank: 120}}, 2025, "observations.year"},
		{"zero rank", []models.CutoffObservation{{Year: 2023, Rank: 0}}, 2025, "observations.rank"},
		{"negative rank", series(2022, 100, -4), 2025, "observations.rank"},
		{"target year not in future", series(2022, 100, 110), 2023, "targetYear"},
	}

	f := NewForecaster()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Forecast(tt.obs, tt.targetYear)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			verr, ok := err.(*errors.ValidationError)
			require.True(t, ok)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNextYear(t *testing.T) {
	assert.Equal(t, 2025, NextYear(series(2020, 1, 2, 3, 4, 5)))
	assert.Equal(t, 1, NextYear(nil))
}
