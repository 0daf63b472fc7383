package searchcolleges

import "admission-workers/internal/common/validation"

type Input struct {
	Query    string `json:"collegeName"`
	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type CollegeMatch struct {
	CollegeID string  `json:"collegeId"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Score     float64 `json:"score"`
}

type Output struct {
	CollegeIDs []string       `json:"collegeIds"`
	Matches    []CollegeMatch `json:"matches"`
	TotalHits  int64          `json:"totalHits"`
	Took       int64          `json:"took"` // milliseconds, as reported by Elasticsearch
}

// collegeDoc is the indexed document shape.
type collegeDoc struct {
	CollegeID string   `json:"college_id"`
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases"`
	City      string   `json:"city"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string     `json:"_id"`
			Score  float64    `json:"_score"`
			Source collegeDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["collegeName"],
	"properties": {
		"collegeName": {"type": "string", "minLength": 1},
		"location": {"type": "string"},
		"limit": {"type": "integer", "minimum": 1, "maximum": 100}
	}
}`)
