// Package prediction ranks colleges for a candidate by running the trend, probability and
// scoring models over every eligible course.
package prediction

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"admission-workers/internal/common/errors"
	"admission-workers/internal/models"
	"admission-workers/internal/prediction/probability"
	"admission-workers/internal/prediction/scoring"
	"admission-workers/internal/prediction/trend"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many colleges are evaluated at once.
const DefaultConcurrency = 8

type TrendForecaster interface {
	Forecast(observations []models.CutoffObservation, targetYear int) (models.ForecastResult, error)
}

type ProbabilityEstimator interface {
	Estimate(rank, cutoff int, historicalRanks []int) (models.ProbabilityResult, error)
}

type RecommendationScorer interface {
	Score(factors models.CollegeFactors, weights models.PreferenceWeights) (models.ScoreResult, error)
}

// Request is one prediction query. TargetYear 0 forecasts the year after each course's
// latest observation. An empty PreferredLocation never matches.
type Request struct {
	Rank              int
	Category          string
	Colleges          []models.CollegeProfile
	Weights           models.PreferenceWeights
	PreferredLocation string
	TargetYear        int
}

type Orchestrator struct {
	forecaster  TrendForecaster
	estimator   ProbabilityEstimator
	scorer      RecommendationScorer
	concurrency int
}

type Option func(*Orchestrator)

func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func WithForecaster(f TrendForecaster) Option {
	return func(o *Orchestrator) { o.forecaster = f }
}

func WithEstimator(e ProbabilityEstimator) Option {
	return func(o *Orchestrator) { o.estimator = e }
}

func WithScorer(s RecommendationScorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		forecaster:  trend.NewForecaster(),
		estimator:   probability.NewEstimator(),
		scorer:      scoring.NewScorer(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Predict returns the colleges with at least one eligible course, highest score first.
// Colleges with equal scores keep their input order. The first ValidationError from any
// course aborts the whole request.
func (o *Orchestrator) Predict(ctx context.Context, req Request) ([]models.CollegeResult, error) {
	if req.Rank <= 0 {
		return nil, errors.NewValidationError("rank", req.Rank, "rank must be positive")
	}

	evaluated := make([]*models.CollegeResult, len(req.Colleges))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i := range req.Colleges {
		i := i
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			result, err := o.evaluateCollege(req, req.Colleges[i])
			if err != nil {
				return fmt.Errorf("college %s: %w", req.Colleges[i].CollegeID, err)
			}
			evaluated[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]models.CollegeResult, 0, len(evaluated))
	for _, r := range evaluated {
		if r != nil {
			ranked = append(ranked, *r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.TotalScore > ranked[j].Score.TotalScore
	})

	return ranked, nil
}

// evaluateCollege returns nil when no course at the college admits the rank.
func (o *Orchestrator) evaluateCollege(req Request, college models.CollegeProfile) (*models.CollegeResult, error) {
	courses := make([]models.CourseResult, 0, len(college.EligibleCourses))
	best := -1

	for _, course := range college.EligibleCourses {
		if course.CurrentCutoff <= 0 {
			return nil, errors.NewValidationError("currentCutoff", course.CurrentCutoff,
				fmt.Sprintf("course %s has no positive cutoff", course.CourseID))
		}
		if req.Rank > course.CurrentCutoff {
			continue
		}

		result, err := o.evaluateCourse(req, course)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", course.CourseID, err)
		}
		courses = append(courses, result)

		if best < 0 || outranks(result.Probability, courses[best].Probability) {
			best = len(courses) - 1
		}
	}

	if len(courses) == 0 {
		return nil, nil
	}

	representative := courses[best]
	score, err := o.scorer.Score(models.CollegeFactors{
		RankAdvantagePercent:     representative.Probability.RankAdvantagePercent,
		AveragePackage:           college.AveragePackage,
		HighestPackage:           college.HighestPackage,
		AnnualFee:                representative.AnnualFee,
		Rating:                   college.Rating,
		MatchesPreferredLocation: MatchesLocation(req.PreferredLocation, college.Location),
		EligibleBranchCount:      len(courses),
	}, req.Weights)
	if err != nil {
		return nil, err
	}

	return &models.CollegeResult{
		CollegeID:              college.CollegeID,
		Name:                   college.Name,
		Location:               college.Location,
		Rating:                 college.Rating,
		AveragePackage:         college.AveragePackage,
		HighestPackage:         college.HighestPackage,
		Score:                  score,
		RepresentativeCourseID: representative.CourseID,
		EligibleCourses:        courses,
	}, nil
}

func (o *Orchestrator) evaluateCourse(req Request, course models.CourseEligibility) (models.CourseResult, error) {
	prob, err := o.estimator.Estimate(req.Rank, course.CurrentCutoff, course.HistoricalRanks())
	if err != nil {
		return models.CourseResult{}, err
	}

	result := models.CourseResult{
		CourseID:      course.CourseID,
		CourseName:    course.CourseName,
		CurrentCutoff: course.CurrentCutoff,
		AnnualFee:     course.AnnualFee,
		Probability:   prob,
	}

	if len(course.HistoricalObservations) >= trend.MinObservations {
		targetYear := req.TargetYear
		if targetYear == 0 {
			targetYear = trend.NextYear(course.HistoricalObservations)
		}
		forecast, err := o.forecaster.Forecast(course.HistoricalObservations, targetYear)
		if err != nil {
			return models.CourseResult{}, err
		}
		result.Forecast = &forecast
	}

	return result, nil
}

// outranks orders courses by probability, then rank advantage. Full ties keep the earlier course.
func outranks(a, b models.ProbabilityResult) bool {
	if a.ProbabilityPercent != b.ProbabilityPercent {
		return a.ProbabilityPercent > b.ProbabilityPercent
	}
	return a.RankAdvantagePercent > b.RankAdvantagePercent
}

// MatchesLocation compares trimmed locations case-insensitively.
func MatchesLocation(preferred, location string) bool {
	preferred = strings.TrimSpace(preferred)
	if preferred == "" {
		return false
	}
	return strings.EqualFold(preferred, strings.TrimSpace(location))
}
