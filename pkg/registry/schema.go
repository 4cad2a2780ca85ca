// pkg/registry/schema.go
package registry

// ActivityRegistry documents the job workers this service runs, for process
// modellers wiring service tasks.
type ActivityRegistry struct {
	Version    string     `json:"version"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	ID           string      `json:"id"`
	DisplayName  string      `json:"displayName"`
	Description  string      `json:"description"`
	TaskType     string      `json:"taskType"`
	InputSchema  interface{} `json:"inputSchema"`
	OutputFields []string    `json:"outputFields"`
	ErrorCodes   []string    `json:"errorCodes"`
	Timeout      string      `json:"timeout"`
	Retries      int         `json:"retries"`
}
