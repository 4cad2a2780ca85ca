// internal/workers/ai-conversation/invalidate-query-cache/config.go
package invalidatequerycache

import (
	"time"

	"library-ai-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func NewConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Config{Timeout: timeout}
}
