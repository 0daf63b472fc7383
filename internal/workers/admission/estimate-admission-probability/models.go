package estimateadmissionprobability

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	Rank     int    `json:"rank"`
	CourseID string `json:"courseId"`
	Category string `json:"category"`
}

type Output struct {
	CourseID      string                   `json:"courseId"`
	CourseName    string                   `json:"courseName"`
	Category      string                   `json:"category"`
	Rank          int                      `json:"rank"`
	CurrentCutoff int                      `json:"currentCutoff"`
	CutoffYear    int                      `json:"cutoffYear"`
	Eligible      bool                     `json:"eligible"`
	Probability   models.ProbabilityResult `json:"probability"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["rank", "courseId", "category"],
	"properties": {
		"rank": {"type": "integer", "minimum": 1},
		"courseId": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1}
	}
}`)
