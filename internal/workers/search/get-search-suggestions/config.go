// internal/workers/search/get-search-suggestions/config.go
package getsearchsuggestions

import (
	"time"

	"repairer-search/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wc config.WorkerConfig) *Config {
	timeout := config.GetDuration(wc.Timeout)
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Config{Timeout: timeout}
}
