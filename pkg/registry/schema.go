// pkg/registry/schema.go
package registry

// WorkerRegistry is the on-disk catalog of the assistant's job workers.
// Deploy tooling and the BPMN models are kept in sync against this file.
type WorkerRegistry struct {
	Version     string   `json:"version"`
	LastUpdated string   `json:"lastUpdated"`
	Workers     []Worker `json:"workers"`
}

type Worker struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	TaskType    string   `json:"taskType"`
	Intents     []string `json:"intents"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Retries     int      `json:"retries"`
	Status      string   `json:"status"`
}
