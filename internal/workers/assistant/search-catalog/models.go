// internal/workers/assistant/search-catalog/models.go
package searchcatalog

import "lms-assistant/internal/nlu"

type Input struct {
	Intent   string       `json:"intent"`
	Entities nlu.Entities `json:"entities"`
	From     int          `json:"from,omitempty"`
}

type Output struct {
	Intent    string                   `json:"intent"`
	Results   []map[string]interface{} `json:"results"`
	TotalHits int64                    `json:"totalHits"`
	Took      int64                    `json:"took"` // milliseconds
}
