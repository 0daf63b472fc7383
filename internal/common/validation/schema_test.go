package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rankSchema = `{
	"type": "object",
	"required": ["rank", "category"],
	"properties": {
		"rank": {"type": "integer", "minimum": 1},
		"category": {"type": "string", "minLength": 1},
		"weights": {
			"type": "object",
			"required": ["fees"],
			"properties": {"fees": {"type": "number", "minimum": 0}}
		}
	}
}`

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name     string
		document string
		valid    bool
		fields   []string
		codes    []string
	}{
		{
			name:     "valid document",
			document: `{"rank": 5000, "category": "OPEN"}`,
			valid:    true,
		},
		{
			name:     "missing required fields",
			document: `{}`,
			fields:   []string{"category", "rank"},
			codes:    []string{"REQUIRED_FIELD_MISSING", "REQUIRED_FIELD_MISSING"},
		},
		{
			name:     "wrong type",
			document: `{"rank": "first", "category": "OPEN"}`,
			fields:   []string{"rank"},
			codes:    []string{"INVALID_TYPE"},
		},
		{
			name:     "below minimum",
			document: `{"rank": 0, "category": "OPEN"}`,
			fields:   []string{"rank"},
			codes:    []string{"NUMBER_GTE"},
		},
		{
			name:     "nested required",
			document: `{"rank": 10, "category": "OPEN", "weights": {}}`,
			fields:   []string{"weights.fees"},
			codes:    []string{"REQUIRED_FIELD_MISSING"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateJSON(rankSchema, []byte(tt.document))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			var fields, codes []string
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
				codes = append(codes, e.Code)
			}
			assert.ElementsMatch(t, tt.fields, fields)
			assert.ElementsMatch(t, tt.codes, codes)
		})
	}
}

func TestValidationResult_Summary(t *testing.T) {
	result, err := MustCompile(rankSchema).Validate([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "category: category is required; rank: rank is required", result.Summary())
}

func TestValidate_MalformedDocument(t *testing.T) {
	_, err := MustCompile(rankSchema).Validate([]byte(`{"rank":`))
	assert.Error(t, err)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`not json`) })
}
