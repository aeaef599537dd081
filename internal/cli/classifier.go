package cli

import (
	"os"
	"time"

	"github.com/mkalnins/labelctl/internal/classify"
	"github.com/mkalnins/labelctl/internal/config"
)

// newClassifier builds the configured classifier client, reading the API
// key from the environment variable named in the config.
func newClassifier(cfg *config.Config) (classify.Classifier, error) {
	return classify.NewOpenAI(classify.OpenAIConfig{
		APIKey:     os.Getenv(cfg.Classifier.APIKeyEnv),
		BaseURL:    cfg.Classifier.BaseURL,
		Model:      cfg.Classifier.Model,
		Labels:     cfg.LabelNames(),
		Timeout:    time.Duration(cfg.Classifier.TimeoutSec) * time.Second,
		MaxRetries: cfg.Classifier.MaxRetries,
	})
}
