package searchcolleges

import "strings"

// BuildQuery matches free text against college names and their common aliases.
// A location narrows results to one city without affecting relevance.
func BuildQuery(input *Input) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     strings.TrimSpace(input.Query),
					"fields":    []string{"name^3", "aliases^2", "city"},
					"type":      "best_fields",
					"fuzziness": "AUTO",
				},
			},
		},
	}

	if location := strings.TrimSpace(input.Location); location != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"match": map[string]interface{}{
					"city": map[string]interface{}{"query": location, "operator": "and"},
				},
			},
		}
	}

	return map[string]interface{}{
		"query":   map[string]interface{}{"bool": boolQuery},
		"_source": []string{"college_id", "name", "aliases", "city"},
	}
}
