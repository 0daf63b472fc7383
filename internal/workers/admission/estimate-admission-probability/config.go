package estimateadmissionprobability

import (
	"time"

	"admission-workers/internal/common/config"
)

type Config struct {
	Timeout time.Duration
	MaxRank int
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		Timeout: config.GetDuration(config.GetWorkerConfig(app, TaskType).Timeout),
		MaxRank: app.Prediction.MaxRank,
	}
}
