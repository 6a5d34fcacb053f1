// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"news-trust-workers/pkg/registry"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	checkCmd := flag.NewFlagSet("check-input", flag.ExitOnError)

	exportPath := exportCmd.String("path", "configs/activity-registry.json", "Where to write the registry")

	validatePath := validateCmd.String("path", "configs/activity-registry.json", "Path to registry file")

	checkPath := checkCmd.String("path", "", "Path to registry file (built-in catalog when empty)")
	checkTask := checkCmd.String("taskType", "", "Task type whose input schema is used")
	checkVars := checkCmd.String("vars", "", "File holding job variables as JSON")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		reg := registry.Default()
		reg.LastUpdated = time.Now().UTC().Format(time.RFC3339)
		if err := os.MkdirAll(filepath.Dir(*exportPath), 0o755); err != nil {
			fail("Error creating directory: %v", err)
		}
		if err := reg.Save(*exportPath); err != nil {
			fail("Error writing registry: %v", err)
		}
		fmt.Printf("Wrote %d activities to %s\n", len(reg.Activities), *exportPath)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		reg, err := registry.LoadRegistry(*validatePath)
		if err != nil {
			fail("Error loading registry: %v", err)
		}
		if err := reg.Validate(); err != nil {
			fail("%v", err)
		}
		for _, want := range registry.Default().Activities {
			if _, ok := reg.Find(want.TaskType); !ok {
				fmt.Printf("Warning: %s is served by worker-manager but missing from %s\n", want.TaskType, *validatePath)
			}
		}
		fmt.Printf("Registry %s is valid (%d activities)\n", *validatePath, len(reg.Activities))

	case "check-input":
		checkCmd.Parse(os.Args[2:])
		if *checkTask == "" || *checkVars == "" {
			fmt.Println("Error: taskType and vars are required for check-input.")
			checkCmd.Usage()
			os.Exit(1)
		}
		reg := registry.Default()
		if *checkPath != "" {
			loaded, err := registry.LoadRegistry(*checkPath)
			if err != nil {
				fail("Error loading registry: %v", err)
			}
			reg = loaded
		}
		activity, ok := reg.Find(*checkTask)
		if !ok {
			fail("Unknown task type: %s", *checkTask)
		}
		vars, err := os.ReadFile(*checkVars)
		if err != nil {
			fail("Error reading variables: %v", err)
		}
		if err := activity.ValidateInput(string(vars)); err != nil {
			fail("%v", err)
		}
		fmt.Printf("Variables in %s are valid for %s\n", *checkVars, *checkTask)

	default:
		help()
		os.Exit(1)
	}
}

func fail(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}

func help() {
	fmt.Println("Usage: registry-updater <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  export       Write the built-in activity catalog to a JSON file")
	fmt.Println("  validate     Check a registry file for duplicates and broken schemas")
	fmt.Println("  check-input  Validate job variables against an activity input schema")
}
