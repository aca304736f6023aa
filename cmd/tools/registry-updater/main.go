// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"lms-assistant/pkg/registry"

	analyzeintent "lms-assistant/internal/workers/assistant/analyze-intent"
	buildresponse "lms-assistant/internal/workers/assistant/build-response"
	bulkenrollment "lms-assistant/internal/workers/assistant/bulk-enrollment"
	executecommand "lms-assistant/internal/workers/assistant/execute-command"
	notifyadmin "lms-assistant/internal/workers/assistant/notify-admin"
	searchcatalog "lms-assistant/internal/workers/assistant/search-catalog"
)

// knownTaskTypes are the task types the worker manager actually registers.
// Validation flags registry entries that drift from the code.
var knownTaskTypes = []string{
	analyzeintent.TaskType,
	executecommand.TaskType,
	searchcatalog.TaskType,
	bulkenrollment.TaskType,
	notifyadmin.TaskType,
	buildresponse.TaskType,
}

var registryPath string

func main() {
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	idUpdate := updateCmd.String("id", "", "Worker ID to update")
	field := updateCmd.String("field", "", "Field to update (status, timeout, retries, description)")
	value := updateCmd.String("value", "", "New value for the field")
	updateCmd.StringVar(&registryPath, "path", "configs/worker-registry.json", "Path to registry file")
	validateCmd.StringVar(&registryPath, "path", "configs/worker-registry.json", "Path to registry file")
	listCmd.StringVar(&registryPath, "path", "configs/worker-registry.json", "Path to registry file")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "update":
		updateCmd.Parse(os.Args[2:])
		if *idUpdate == "" || *field == "" || *value == "" {
			fmt.Println("Error: id, field, and value are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		if err := updateWorker(*idUpdate, *field, *value); err != nil {
			fmt.Printf("Error updating worker: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated worker %s, field %s to %s\n", *idUpdate, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Printf("Registry validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Registry validation passed.")

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listWorkers(); err != nil {
			fmt.Printf("Error listing workers: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func updateWorker(id, field, value string) error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Workers {
		if reg.Workers[i].ID != id {
			continue
		}
		found = true
		switch field {
		case "status":
			reg.Workers[i].Status = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			reg.Workers[i].Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			reg.Workers[i].Retries = retries
		case "description":
			reg.Workers[i].Description = value
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}
	if !found {
		return fmt.Errorf("worker with ID %s not found", id)
	}

	return registry.Save(reg, registryPath)
}

func validateRegistry() error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return err
	}

	// Both directions: every registry entry must be a real worker, and
	// every registered worker must appear in the registry.
	known := make(map[string]bool, len(knownTaskTypes))
	for _, tt := range knownTaskTypes {
		known[tt] = true
	}
	for _, w := range reg.Workers {
		if !known[w.TaskType] {
			return fmt.Errorf("registry lists unknown task type: %s", w.TaskType)
		}
	}
	for _, tt := range knownTaskTypes {
		if reg.Find(tt) == nil {
			return fmt.Errorf("registered worker missing from registry: %s", tt)
		}
	}

	fmt.Printf("Found %d workers.\n", len(reg.Workers))
	return nil
}

func listWorkers() error {
	reg, err := registry.Load(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	for _, w := range reg.Workers {
		fmt.Printf("%-20s %-12s timeout=%-6s retries=%d  %s\n",
			w.TaskType, w.Status, w.Timeout, w.Retries, w.Description)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  update   Update an existing worker's field
  validate Validate the registry against the registered workers
  list     Print the registry entries
  help     Show this help message

Examples:
  registry-updater update -id analyze-intent -field status -value verified
  registry-updater validate -path configs/worker-registry.json`)
}
