// internal/models/admission.go
package models

// CutoffObservation is one historical closing rank for a course under one category.
type CutoffObservation struct {
	Year int `json:"year"`
	Rank int `json:"rank"`
}

// CourseEligibility is one branch at one college for the requested category and data year.
type CourseEligibility struct {
	CourseID               string              `json:"courseId"`
	CourseName             string              `json:"courseName"`
	CurrentCutoff          int                 `json:"currentCutoff"`
	HistoricalObservations []CutoffObservation `json:"historicalObservations"`
	AnnualFee              int                 `json:"annualFee"`
}

// HistoricalRanks returns the observed ranks in the order they were supplied.
func (c CourseEligibility) HistoricalRanks() []int {
	ranks := make([]int, len(c.HistoricalObservations))
	for i, obs := range c.HistoricalObservations {
		ranks[i] = obs.Rank
	}
	return ranks
}

// LatestYear returns the most recent observed year, or 0 when there is no history.
func (c CourseEligibility) LatestYear() int {
	latest := 0
	for _, obs := range c.HistoricalObservations {
		if obs.Year > latest {
			latest = obs.Year
		}
	}
	return latest
}

// CollegeProfile aggregates the courses of one college for a rank/category query.
type CollegeProfile struct {
	CollegeID       string              `json:"collegeId"`
	Name            string              `json:"name"`
	Location        string              `json:"location"`
	Rating          float64             `json:"rating"`
	AveragePackage  int                 `json:"averagePackage"`
	HighestPackage  int                 `json:"highestPackage"`
	EligibleCourses []CourseEligibility `json:"eligibleCourses"`
}

// CollegeFactors are the raw inputs of the recommendation score for one college.
type CollegeFactors struct {
	RankAdvantagePercent     float64 `json:"rankAdvantagePercent"`
	AveragePackage           int     `json:"averagePackage"`
	HighestPackage           int     `json:"highestPackage"`
	AnnualFee                int     `json:"annualFee"`
	Rating                   float64 `json:"rating"`
	MatchesPreferredLocation bool    `json:"matchesPreferredLocation"`
	EligibleBranchCount      int     `json:"eligibleBranchCount"`
}
