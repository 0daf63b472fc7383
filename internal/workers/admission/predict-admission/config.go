package predictadmission

import (
	"time"

	"admission-workers/internal/common/config"
	"admission-workers/internal/models"
)

type Config struct {
	Timeout        time.Duration
	MaxRank        int
	MaxColleges    int
	Concurrency    int
	DefaultWeights models.PreferenceWeights
}

func LoadConfig(app *config.Config) *Config {
	return &Config{
		Timeout:        config.GetDuration(app.Prediction.RequestTimeout),
		MaxRank:        app.Prediction.MaxRank,
		MaxColleges:    app.Prediction.MaxColleges,
		Concurrency:    app.Prediction.Concurrency,
		DefaultWeights: app.Prediction.DefaultWeights,
	}
}
