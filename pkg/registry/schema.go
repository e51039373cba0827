// pkg/registry/schema.go
package registry

import "time"

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one analysis task: the Zeebe task type (or HTTP
// operation) it is served under and the JSON schema its input must satisfy.
type Activity struct {
	ID           string                 `json:"id"`
	DisplayName  string                 `json:"displayName"`
	Description  string                 `json:"description"`
	Category     string                 `json:"category"`
	TaskType     string                 `json:"taskType"`
	Route        string                 `json:"route,omitempty"`
	InputSchema  map[string]interface{} `json:"inputSchema"`
	OutputSchema map[string]interface{} `json:"outputSchema,omitempty"`
	ErrorCodes   []string               `json:"errorCodes"`
	Timeout      string                 `json:"timeout"`
	Retries      int                    `json:"retries"`
	Tags         []string               `json:"tags"`
}

// TimeoutDuration parses Timeout, falling back to def when it is empty or
// malformed.
func (a *Activity) TimeoutDuration(def time.Duration) time.Duration {
	if a == nil || a.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
