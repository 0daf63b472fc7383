// internal/models/prediction.go
package models

// ConfidenceLevel grades how well a trend line explains the cutoff history.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// TrendDirection describes how the closing-rank number moves year over year.
// Falling means the closing rank gets smaller, so the course is getting harder
// to enter. Rising means it gets larger, so the course is getting easier.
type TrendDirection string

const (
	TrendRising           TrendDirection = "Rising"
	TrendFalling          TrendDirection = "Falling"
	TrendStable           TrendDirection = "Stable"
	TrendInsufficientData TrendDirection = "InsufficientData"
)

// Tier is the qualitative admission chance for one course.
type Tier string

const (
	TierHighlySafe  Tier = "HighlySafe"
	TierSafe        Tier = "Safe"
	TierProbable    Tier = "Probable"
	TierModerate    Tier = "Moderate"
	TierReach       Tier = "Reach"
	TierNotEligible Tier = "NotEligible"
)

// Factor names one component of the recommendation score.
type Factor string

const (
	FactorRankEligibility Factor = "rankEligibility"
	FactorPlacements      Factor = "placements"
	FactorFees            Factor = "fees"
	FactorRating          Factor = "rating"
	FactorLocation        Factor = "location"
	FactorBranches        Factor = "branches"
)

// AllFactors lists the scoring factors in display order.
func AllFactors() []Factor {
	return []Factor{
		FactorRankEligibility,
		FactorPlacements,
		FactorFees,
		FactorRating,
		FactorLocation,
		FactorBranches,
	}
}

// RankRange is an inclusive band of closing ranks.
type RankRange struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// ForecastResult is the projected closing rank for one course.
// FitScore is nil when there were too few observations to fit a line.
type ForecastResult struct {
	PredictedCutoff  int             `json:"predictedCutoff"`
	ConfidenceLevel  ConfidenceLevel `json:"confidenceLevel"`
	Trend            TrendDirection  `json:"trend"`
	UncertaintyRange RankRange       `json:"uncertaintyRange"`
	FitScore         *float64        `json:"fitScore"`
	ObservationCount int             `json:"observationCount"`
	TargetYear       int             `json:"targetYear"`
	SlopePerYear     float64         `json:"slopePerYear"`
	ResidualStdDev   float64         `json:"residualStdDev"`
}

// ProbabilityResult is the admission chance for one candidate at one course.
type ProbabilityResult struct {
	ProbabilityPercent          float64 `json:"probabilityPercent"`
	Tier                        Tier    `json:"tier"`
	RankAdvantagePercent        float64 `json:"rankAdvantagePercent"`
	HistoricalVolatilityPercent float64 `json:"historicalVolatilityPercent"`
	BasePercent                 float64 `json:"basePercent"`
	VolatilityPenalty           float64 `json:"volatilityPenalty"`
}

// Eligible reports whether the candidate clears the current cutoff.
func (p ProbabilityResult) Eligible() bool {
	return p.Tier != TierNotEligible
}

// ScoreResult is the weighted recommendation score of one college with its breakdown.
type ScoreResult struct {
	TotalScore     float64            `json:"totalScore"`
	Breakdown      map[Factor]float64 `json:"breakdown"`
	AppliedWeights PreferenceWeights  `json:"appliedWeights"`
}

// CourseResult carries both models' output for one eligible course.
// Forecast is serialized as null, never omitted, when history is too short.
type CourseResult struct {
	CourseID      string            `json:"courseId"`
	CourseName    string            `json:"courseName"`
	CurrentCutoff int               `json:"currentCutoff"`
	AnnualFee     int               `json:"annualFee"`
	Probability   ProbabilityResult `json:"probability"`
	Forecast      *ForecastResult   `json:"forecast"`
}

// CollegeResult is one ranked college in a prediction response.
type CollegeResult struct {
	CollegeID              string         `json:"collegeId"`
	Name                   string         `json:"name"`
	Location               string         `json:"location"`
	Rating                 float64        `json:"rating"`
	AveragePackage         int            `json:"averagePackage"`
	HighestPackage         int            `json:"highestPackage"`
	Score                  ScoreResult    `json:"score"`
	RepresentativeCourseID string         `json:"representativeCourseId"`
	EligibleCourses        []CourseResult `json:"eligibleCourses"`
}
