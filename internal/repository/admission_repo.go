package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"admission-workers/internal/models"

	"github.com/lib/pq"
)

var ErrCourseNotFound = errors.New("course not found")

// IsConnectionError reports whether err means the pool could not reach Postgres.
func IsConnectionError(err error) bool {
	return errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn)
}

// AdmissionRepository reads colleges, courses and closing-rank history from Postgres.
// Cutoffs are stored per (course, category, year, round); the repository collapses
// rounds to the final one so the engine sees at most one observation per year.
type AdmissionRepository struct {
	db *sql.DB
}

func NewAdmissionRepository(db *sql.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

const latestYearQuery = `
	SELECT COALESCE(MAX(year), 0)
	FROM course_cutoffs
	WHERE category = $1`

// LatestCutoffYear returns the most recent year with cutoff data for category, or 0.
func (r *AdmissionRepository) LatestCutoffYear(ctx context.Context, category string) (int, error) {
	var year int
	if err := r.db.QueryRowContext(ctx, latestYearQuery, category).Scan(&year); err != nil {
		return 0, fmt.Errorf("latest cutoff year: %w", err)
	}
	return year, nil
}

const profilesQuery = `
	SELECT c.id, c.name, c.city, c.rating, c.average_package, c.highest_package,
	       co.id, co.name, co.annual_fee, ct.closing_rank
	FROM colleges c
	JOIN courses co ON co.college_id = c.id
	JOIN course_cutoffs ct ON ct.course_id = co.id
	WHERE ct.category = $1
	  AND ct.year = $2
	  AND ct.round = (
	      SELECT MAX(round) FROM course_cutoffs
	      WHERE course_id = co.id AND category = $1 AND year = $2)
	  AND ($3::text[] IS NULL OR c.id = ANY($3))
	ORDER BY c.id, co.id`

const historyQuery = `
	SELECT course_id, year, round, closing_rank
	FROM course_cutoffs
	WHERE category = $1
	  AND year <= $2
	  AND course_id = ANY($3)
	ORDER BY course_id, year, round`

// LoadCollegeProfiles materialises every college with a cutoff in year for category.
// collegeIDs narrows the result when non-empty. Each course carries its history up
// to and including year.
func (r *AdmissionRepository) LoadCollegeProfiles(ctx context.Context, category string, year int, collegeIDs []string) ([]models.CollegeProfile, error) {
	var filter []string
	if len(collegeIDs) > 0 {
		filter = collegeIDs
	}

	rows, err := r.db.QueryContext(ctx, profilesQuery, category, year, pq.Array(filter))
	if err != nil {
		return nil, fmt.Errorf("load college profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.CollegeProfile
	var courseIDs []string
	index := make(map[string]int)
	for rows.Next() {
		var college models.CollegeProfile
		var course models.CourseEligibility
		if err := rows.Scan(
			&college.CollegeID, &college.Name, &college.Location, &college.Rating,
			&college.AveragePackage, &college.HighestPackage,
			&course.CourseID, &course.CourseName, &course.AnnualFee, &course.CurrentCutoff,
		); err != nil {
			return nil, fmt.Errorf("scan college profile: %w", err)
		}

		i, ok := index[college.CollegeID]
		if !ok {
			i = len(profiles)
			index[college.CollegeID] = i
			profiles = append(profiles, college)
		}
		profiles[i].EligibleCourses = append(profiles[i].EligibleCourses, course)
		courseIDs = append(courseIDs, course.CourseID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate college profiles: %w", err)
	}
	if len(profiles) == 0 {
		return nil, nil
	}

	history, err := r.loadHistory(ctx, category, year, courseIDs)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		for j := range profiles[i].EligibleCourses {
			course := &profiles[i].EligibleCourses[j]
			course.HistoricalObservations = history[course.CourseID]
		}
	}
	return profiles, nil
}

// LoadCourse returns one course with its full history for category. CurrentCutoff is
// the closing rank of the latest observed year, or 0 when no history exists.
func (r *AdmissionRepository) LoadCourse(ctx context.Context, courseID, category string) (*models.CourseEligibility, error) {
	course := models.CourseEligibility{CourseID: courseID}
	err := r.db.QueryRowContext(ctx, `
		SELECT name, annual_fee
		FROM courses
		WHERE id = $1`, courseID).Scan(&course.CourseName, &course.AnnualFee)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCourseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}

	obs, err := r.LoadCutoffHistory(ctx, courseID, category)
	if err != nil {
		return nil, err
	}
	course.HistoricalObservations = obs
	if n := len(obs); n > 0 {
		course.CurrentCutoff = obs[n-1].Rank
	}
	return &course, nil
}

// LoadCutoffHistory returns the course's observations for category ordered by year.
func (r *AdmissionRepository) LoadCutoffHistory(ctx context.Context, courseID, category string) ([]models.CutoffObservation, error) {
	history, err := r.loadHistory(ctx, category, maxYear, []string{courseID})
	if err != nil {
		return nil, err
	}
	return history[courseID], nil
}

const maxYear = 9999

func (r *AdmissionRepository) loadHistory(ctx context.Context, category string, upToYear int, courseIDs []string) (map[string][]models.CutoffObservation, error) {
	rows, err := r.db.QueryContext(ctx, historyQuery, category, upToYear, pq.Array(courseIDs))
	if err != nil {
		return nil, fmt.Errorf("load cutoff history: %w", err)
	}
	defer rows.Close()

	history := make(map[string][]models.CutoffObservation)
	for rows.Next() {
		var courseID string
		var year, round, rank int
		if err := rows.Scan(&courseID, &year, &round, &rank); err != nil {
			return nil, fmt.Errorf("scan cutoff: %w", err)
		}
		history[courseID] = appendFinalRound(history[courseID], models.CutoffObservation{Year: year, Rank: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cutoff history: %w", err)
	}
	return history, nil
}

// appendFinalRound relies on rows arriving ordered by year then round: a later
// round for the same year replaces the earlier one.
func appendFinalRound(obs []models.CutoffObservation, o models.CutoffObservation) []models.CutoffObservation {
	if n := len(obs); n > 0 && obs[n-1].Year == o.Year {
		obs[n-1] = o
		return obs
	}
	return append(obs, o)
}
