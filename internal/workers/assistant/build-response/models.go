// internal/workers/assistant/build-response/models.go
package buildresponse

type Input struct {
	RequestID string `json:"requestId"`
	Intent    string `json:"intent"`
	Success   bool   `json:"success"`

	// Data is the merged output of the upstream worker (command result,
	// search hits, bulk job state).
	Data map[string]interface{} `json:"data,omitempty"`

	// ErrorCode is set when the upstream worker raised a BPMN error.
	ErrorCode string `json:"errorCode,omitempty"`
}

type Output struct {
	Reply ReplyPayload `json:"reply"`
}

type ReplyPayload struct {
	RequestID string `json:"requestId"`
	Intent    string `json:"intent"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"` // ISO 8601
	Version   string `json:"version"`
}
