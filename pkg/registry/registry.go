// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks that ids and task types are unique and every schema compiles.
func (r *ActivityRegistry) Validate() error {
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	var problems []string

	for _, a := range r.Activities {
		if a.ID == "" || a.TaskType == "" {
			problems = append(problems, fmt.Sprintf("activity %q: id and taskType are required", a.DisplayName))
			continue
		}
		if ids[a.ID] {
			problems = append(problems, fmt.Sprintf("duplicate id %q", a.ID))
		}
		if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Sprintf("duplicate taskType %q", a.TaskType))
		}
		ids[a.ID], taskTypes[a.TaskType] = true, true

		for name, schema := range map[string]map[string]interface{}{"input": a.InputSchema, "output": a.OutputSchema} {
			if schema == nil {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s schema: %v", a.ID, name, err))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("registry invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateInput checks job variables against the activity's input schema.
func (a *Activity) ValidateInput(variables string) error {
	if a.InputSchema == nil {
		return nil
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(a.InputSchema), gojsonschema.NewStringLoader(variables))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%s input invalid: %v", a.TaskType, errs)
	}
	return nil
}
