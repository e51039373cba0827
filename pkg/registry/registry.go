// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

//go:embed tasks.json
var embeddedTasks []byte

var (
	defaultOnce sync.Once
	defaultReg  *ActivityRegistry
	defaultErr  error
)

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embeddedTasks)
	})
	return defaultReg, defaultErr
}

// MustDefault is Default for package initialisation; it panics on a broken
// embedded registry.
func MustDefault() *ActivityRegistry {
	reg, err := Default()
	if err != nil {
		panic(err)
	}
	return reg
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse activity registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &reg, nil
}

// Lookup finds the activity registered under taskType.
func (r *ActivityRegistry) Lookup(taskType string) (*Activity, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// TaskTypes lists the registered task types in file order.
func (r *ActivityRegistry) TaskTypes() []string {
	out := make([]string, 0, len(r.Activities))
	for _, a := range r.Activities {
		out = append(out, a.TaskType)
	}
	return out
}
