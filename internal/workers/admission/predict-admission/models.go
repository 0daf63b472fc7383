package predictadmission

import (
	"time"

	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	Rank              int                 `json:"rank"`
	Category          string              `json:"category"`
	PreferredLocation string              `json:"preferredLocation,omitempty"`
	Weights           *models.WeightInput `json:"weights,omitempty"`
	CollegeIDs        []string            `json:"collegeIds,omitempty"`
	TargetYear        int                 `json:"targetYear,omitempty"`
}

type Output struct {
	PredictionID   string                   `json:"predictionId"`
	Rank           int                      `json:"rank"`
	Category       string                   `json:"category"`
	DataYear       int                      `json:"dataYear"`
	TargetYear     int                      `json:"targetYear"`
	AppliedWeights models.PreferenceWeights `json:"appliedWeights"`
	Colleges       []models.CollegeResult   `json:"colleges"`
	CollegeCount   int                      `json:"collegeCount"`
	GeneratedAt    time.Time                `json:"generatedAt"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["rank", "category"],
	"properties": {
		"rank": {"type": "integer", "minimum": 1},
		"category": {"type": "string", "minLength": 1},
		"preferredLocation": {"type": "string"},
		"collegeIds": {"type": "array", "items": {"type": "string", "minLength": 1}},
		"targetYear": {"type": "integer", "minimum": 0},
		"weights": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"rankEligibility": {"type": "number", "minimum": 0},
				"placements": {"type": "number", "minimum": 0},
				"fees": {"type": "number", "minimum": 0},
				"rating": {"type": "number", "minimum": 0},
				"location": {"type": "number", "minimum": 0},
				"branches": {"type": "number", "minimum": 0}
			}
		}
	}
}`)
