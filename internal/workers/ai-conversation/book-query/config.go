// internal/workers/ai-conversation/book-query/config.go
package bookquery

import (
	"time"

	"library-ai-workers/internal/common/config"
)

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func NewConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Config{
		Enabled: wcfg.Enabled,
		Timeout: timeout,
	}
}
