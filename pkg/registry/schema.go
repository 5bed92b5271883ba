// pkg/registry/schema.go
package registry

// FunctionRegistry is the catalog of advisory function endpoints the server
// exposes. The tooling under cmd/tools reads and maintains it.
type FunctionRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Functions   []Function `json:"functions"`
}

type Function struct {
	Name          string   `json:"name"`
	DisplayName   string   `json:"displayName"`
	Description   string   `json:"description"`
	Path          string   `json:"path"`
	Cacheable     bool     `json:"cacheable"`
	CacheTTLHours int      `json:"cacheTtlHours,omitempty"`
	TimeoutMs     int      `json:"timeoutMs"`
	MaxRetries    int      `json:"maxRetries"`
	Tags          []string `json:"tags,omitempty"`
}
