// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var validStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}

func Load(path string) (*WorkerRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg WorkerRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return &reg, nil
}

func Save(reg *WorkerRegistry, path string) error {
	reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the registry for duplicate or incomplete entries.
func (r *WorkerRegistry) Validate() error {
	if len(r.Workers) == 0 {
		return fmt.Errorf("registry contains no workers")
	}

	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for _, w := range r.Workers {
		if w.ID == "" {
			return fmt.Errorf("worker missing required field: id")
		}
		if ids[w.ID] {
			return fmt.Errorf("duplicate worker id: %s", w.ID)
		}
		ids[w.ID] = true

		if w.TaskType == "" {
			return fmt.Errorf("worker %s missing required field: taskType", w.ID)
		}
		if taskTypes[w.TaskType] {
			return fmt.Errorf("duplicate task type: %s", w.TaskType)
		}
		taskTypes[w.TaskType] = true

		if w.DisplayName == "" {
			return fmt.Errorf("worker %s missing required field: displayName", w.ID)
		}
		if w.Status != "" && !validStatuses[w.Status] {
			return fmt.Errorf("worker %s has unknown status: %s", w.ID, w.Status)
		}
	}
	return nil
}

// Find returns the worker entry with the given task type, or nil.
func (r *WorkerRegistry) Find(taskType string) *Worker {
	for i := range r.Workers {
		if r.Workers[i].TaskType == taskType {
			return &r.Workers[i]
		}
	}
	return nil
}
