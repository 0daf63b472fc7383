package searchcolleges

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Index      string
	MaxResults int
	Timeout    time.Duration
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		Index:      app.Search.CollegeIndex,
		MaxResults: app.Search.MaxResults,
		Timeout:    config.GetDuration(config.GetWorkerConfig(app, TaskType).Timeout),
	}
}
