// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
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

// Validate checks that every activity has an id and task type and that ids
// are unique.
func (r *ActivityRegistry) Validate() error {
	seen := make(map[string]bool, len(r.Activities))
	for i, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity %d: id is required", i)
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s: taskType is required", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate activity id %s", a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

func (r *ActivityRegistry) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
