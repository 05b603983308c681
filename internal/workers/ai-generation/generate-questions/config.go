// internal/workers/ai-generation/generate-questions/config.go
package generatequestions

import (
	"time"

	"quiz-scoring/internal/common/config"
)

const (
	DefaultQuestionCount = 10
	DefaultOptionCount   = 2

	// ChannelPrefix prefixes the pub/sub channel a request's questions are published on.
	ChannelPrefix = "question_stream:"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Config{Timeout: timeout}
}
