package forecastcutoff

import (
	"admission-workers/internal/common/validation"
	"admission-workers/internal/models"
)

type Input struct {
	CourseID   string `json:"courseId"`
	Category   string `json:"category"`
	TargetYear int    `json:"targetYear,omitempty"`
}

type Output struct {
	CourseID  string                     `json:"courseId"`
	Category  string                     `json:"category"`
	Forecast  models.ForecastResult      `json:"forecast"`
	History   []models.CutoffObservation `json:"history"`
	FromCache bool                       `json:"fromCache"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["courseId", "category"],
	"properties": {
		"courseId": {"type": "string", "minLength": 1},
		"category": {"type": "string", "minLength": 1},
		"targetYear": {"type": "integer", "minimum": 0}
	}
}`)
