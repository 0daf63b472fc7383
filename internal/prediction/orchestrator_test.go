package prediction

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

// feeScorer scores a college by the fee of its representative course so tests can pin totals.
type feeScorer map[int]float64

func (s feeScorer) Score(factors models.CollegeFactors, weights models.PreferenceWeights) (models.ScoreResult, error) {
	return models.ScoreResult{TotalScore: s[factors.AnnualFee], AppliedWeights: weights}, nil
}

func course(id string, cutoff, fee int, history ...int) models.CourseEligibility {
	obs := make([]models.CutoffObservation, len(history))
	for i, r := range history {
		obs[i] = models.CutoffObservation{Year: 2020 + i, Rank: r}
	}
	return models.CourseEligibility{
		CourseID:               id,
		CourseName:             "Course " + id,
		CurrentCutoff:          cutoff,
		HistoricalObservations: obs,
		AnnualFee:              fee,
	}
}

func college(id, location string, courses ...models.CourseEligibility) models.CollegeProfile {
	return models.CollegeProfile{
		CollegeID:       id,
		Name:            "College " + id,
		Location:        location,
		Rating:          4.2,
		AveragePackage:  900_000,
		HighestPackage:  3_000_000,
		EligibleCourses: courses,
	}
}

func collegeIDs(results []models.CollegeResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.CollegeID
	}
	return ids
}

// ==========================
// Ordering and Filtering
// ==========================

func TestPredict_StableOrderingOnTies(t *testing.T) {
	o := NewOrchestrator(WithScorer(feeScorer{100: 90, 200: 70, 300: 90}))

	results, err := o.Predict(context.Background(), Request{
		Rank: 1000,
		Colleges: []models.CollegeProfile{
			college("c1", "Pune", course("a", 5000, 100)),
			college("c2", "Pune", course("b", 5000, 200)),
			college("c3", "Pune", course("c", 5000, 300)),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3", "c2"}, collegeIDs(results))
}

func TestPredict_StableOrderingIndependentOfConcurrency(t *testing.T) {
	scores := feeScorer{}
	var colleges []models.CollegeProfile
	for i := 0; i < 40; i++ {
		fee := 1000 + i
		scores[fee] = float64(i % 4)
		colleges = append(colleges, college(fmt.Sprintf("c%02d", i), "X", course("k", 5000, fee)))
	}
	req := Request{Rank: 10, Colleges: colleges}

	serial, err := NewOrchestrator(WithScorer(scores), WithConcurrency(1)).Predict(context.Background(), req)
	require.NoError(t, err)
	parallel, err := NewOrchestrator(WithScorer(scores), WithConcurrency(16)).Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, collegeIDs(serial), collegeIDs(parallel))
	assert.Equal(t, "c03", serial[0].CollegeID)
}

func TestPredict_DropsCollegesWithoutEligibleCourses(t *testing.T) {
	results, err := NewOrchestrator().Predict(context.Background(), Request{
		Rank: 6000,
		Colleges: []models.CollegeProfile{
			college("closed", "Pune", course("x", 5000, 100_000, 5100, 5000)),
			college("open", "Pune", course("y", 5000, 100_000), course("z", 9000, 100_000, 8800, 9000)),
			college("empty", "Pune"),
		},
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "open", results[0].CollegeID)
	require.Len(t, results[0].EligibleCourses, 1)
	assert.Equal(t, "z", results[0].EligibleCourses[0].CourseID)
}

func TestPredict_EmptyInput(t *testing.T) {
	results, err := NewOrchestrator().Predict(context.Background(), Request{Rank: 10})

	require.NoError(t, err)
	assert.Empty(t, results)
}

// ==========================
// Per-Course Results
// ==========================

func TestPredict_CourseResults(t *testing.T) {
	results, err := NewOrchestrator().Predict(context.Background(), Request{
		Rank:     5000,
		Category: "OPEN",
		Colleges: []models.CollegeProfile{
			college("c1", "Pune",
				course("cs", 8000, 150_000, 8200, 8100, 7900, 8000, 8000),
				course("me", 5200, 120_000, 5200),
			),
		},
		Weights: models.BaselineWeights(),
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	courses := results[0].EligibleCourses
	require.Len(t, courses, 2)

	cs := courses[0]
	assert.Equal(t, models.TierHighlySafe, cs.Probability.Tier)
	assert.InDelta(t, 94.62, cs.Probability.ProbabilityPercent, 0.01)
	require.NotNil(t, cs.Forecast)
	assert.Equal(t, 2025, cs.Forecast.TargetYear)
	assert.Equal(t, 5, cs.Forecast.ObservationCount)

	me := courses[1]
	assert.Nil(t, me.Forecast)
	assert.Equal(t, models.TierReach, me.Probability.Tier)

	encoded, err := json.Marshal(me)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"forecast":null`)
}

func TestPredict_ExplicitTargetYear(t *testing.T) {
	results, err := NewOrchestrator().Predict(context.Background(), Request{
		Rank:       100,
		TargetYear: 2026,
		Colleges:   []models.CollegeProfile{college("c1", "Pune", course("a", 500, 0, 500, 480, 460))},
	})

	require.NoError(t, err)
	require.NotNil(t, results[0].EligibleCourses[0].Forecast)
	assert.Equal(t, 2026, results[0].EligibleCourses[0].Forecast.TargetYear)
	assert.Equal(t, 380, results[0].EligibleCourses[0].Forecast.PredictedCutoff)
}

func TestPredict_RepresentativeCourse(t *testing.T) {
	tests := []struct {
		name     string
		courses  []models.CourseEligibility
		expected string
	}{
		{
			name:     "highest probability wins",
			courses:  []models.CourseEligibility{course("reach", 1100, 10, 1100), course("safe", 4000, 20, 4000)},
			expected: "safe",
		},
		{
			name: "equal probability falls back to larger advantage",
			// both land in the HighlySafe tier with the same default volatility
			courses:  []models.CourseEligibility{course("narrow", 1500, 10), course("wide", 9000, 20)},
			expected: "wide",
		},
		{
			name:     "full tie keeps input order",
			courses:  []models.CourseEligibility{course("first", 3000, 10), course("second", 3000, 20)},
			expected: "first",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewOrchestrator().Predict(context.Background(), Request{
				Rank:     1000,
				Colleges: []models.CollegeProfile{college("c1", "Pune", tt.courses...)},
			})
			require.NoError(t, err)
			require.Len(t, results, 1)
			assert.Equal(t, tt.expected, results[0].RepresentativeCourseID)
		})
	}
}

func TestPredict_ScoreUsesRepresentativeAndLocation(t *testing.T) {
	req := Request{
		Rank:              1000,
		PreferredLocation: "  pune ",
		Weights:           models.PreferenceWeights{Location: 1, Branches: 1},
		Colleges: []models.CollegeProfile{
			college("match", "Pune", course("a", 5000, 60_000), course("b", 1200, 60_000), course("c", 900, 60_000)),
			college("other", "Mumbai", course("a", 5000, 60_000)),
		},
	}

	results, err := NewOrchestrator().Predict(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "match", results[0].CollegeID)
	assert.Equal(t, 100.0, results[0].Score.Breakdown[models.FactorLocation])
	assert.Equal(t, 40.0, results[0].Score.Breakdown[models.FactorBranches])
	assert.Equal(t, 70.0, results[0].Score.TotalScore)

	assert.Equal(t, 50.0, results[1].Score.Breakdown[models.FactorLocation])
	assert.Equal(t, 35.0, results[1].Score.TotalScore)
}

func TestMatchesLocation(t *testing.T) {
	assert.True(t, MatchesLocation("Pune", "pune"))
	assert.True(t, MatchesLocation(" Navi Mumbai", "navi mumbai "))
	assert.False(t, MatchesLocation("", "Pune"))
	assert.False(t, MatchesLocation("Pune", "Nagpur"))
}

// ==========================
// Errors and Cancellation
// ==========================

func TestPredict_ValidationErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{
			name: "non-positive rank",
			req:  Request{Rank: 0},
		},
		{
			name: "duplicate observation year",
			req: Request{Rank: 10, Colleges: []models.CollegeProfile{college("c1", "Pune", models.CourseEligibility{
				CourseID:      "dup",
				CurrentCutoff: 100,
				HistoricalObservations: []models.CutoffObservation{
					{Year: 2023, Rank: 100}, {Year: 2023, Rank: 90},
				},
			})}},
		},
		{
			name: "zero cutoff",
			req:  Request{Rank: 10, Colleges: []models.CollegeProfile{college("c1", "Pune", course("z", 0, 0))}},
		},
		{
			name: "target year in the past",
			req: Request{Rank: 10, TargetYear: 2021, Colleges: []models.CollegeProfile{
				college("c1", "Pune", course("a", 100, 0, 100, 110, 120)),
			}},
		},
		{
			name: "rating out of range",
			req: Request{Rank: 10, Colleges: []models.CollegeProfile{{
				CollegeID: "c9", Rating: 7, EligibleCourses: []models.CourseEligibility{course("a", 100, 0)},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := NewOrchestrator().Predict(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, results)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}
}

func TestPredict_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOrchestrator().Predict(ctx, Request{
		Rank:     10,
		Colleges: []models.CollegeProfile{college("c1", "Pune", course("a", 100, 0))},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
