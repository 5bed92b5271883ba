// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

func Load(path string) (*FunctionRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg FunctionRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, err
	}
	return &reg, nil
}

// Find returns the function with the given name, or nil.
func (r *FunctionRegistry) Find(name string) *Function {
	for i := range r.Functions {
		if r.Functions[i].Name == name {
			return &r.Functions[i]
		}
	}
	return nil
}

// Validate checks the registry is internally consistent.
func (r *FunctionRegistry) Validate() error {
	if len(r.Functions) == 0 {
		return fmt.Errorf("registry contains no functions")
	}

	names := make(map[string]bool)
	paths := make(map[string]bool)
	for _, fn := range r.Functions {
		if fn.Name == "" {
			return fmt.Errorf("function missing required field: name")
		}
		if names[fn.Name] {
			return fmt.Errorf("duplicate function name: %s", fn.Name)
		}
		names[fn.Name] = true

		if fn.DisplayName == "" {
			return fmt.Errorf("function %s missing required field: displayName", fn.Name)
		}
		if !strings.HasPrefix(fn.Path, "/functions/") {
			return fmt.Errorf("function %s path must start with /functions/, got %q", fn.Name, fn.Path)
		}
		if paths[fn.Path] {
			return fmt.Errorf("duplicate function path: %s", fn.Path)
		}
		paths[fn.Path] = true

		if fn.Cacheable && fn.CacheTTLHours <= 0 {
			return fmt.Errorf("function %s is cacheable but has no cacheTtlHours", fn.Name)
		}
		if fn.TimeoutMs <= 0 {
			return fmt.Errorf("function %s has no timeoutMs", fn.Name)
		}
	}
	return nil
}
