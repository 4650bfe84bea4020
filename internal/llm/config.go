package llm

import "time"

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskMindmap TaskType = "mindmap"
	TaskParse   TaskType = "parse"
)

// TaskConfig holds per-task generation parameters.
type TaskConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// Config holds the settings of an OpenAI-compatible chat endpoint.
type Config struct {
	Enabled    bool                    `mapstructure:"enabled"`
	LogCalls   bool                    `mapstructure:"log_calls"`
	Endpoint   string                  `mapstructure:"endpoint"`
	APIKey     string                  `mapstructure:"api_key"`
	Model      string                  `mapstructure:"model"`
	Timeout    time.Duration           `mapstructure:"timeout"`
	MaxRetries int                     `mapstructure:"max_retries"`
	Tasks      map[TaskType]TaskConfig `mapstructure:"tasks"`
}

// DefaultConfig returns the built-in settings. The LLM is disabled by
// default, so AI features use the heuristic fallback.
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Endpoint:   "https://api.openai.com/v1",
		Model:      "gpt-4o-mini",
		Timeout:    45 * time.Second,
		MaxRetries: 1,
		Tasks: map[TaskType]TaskConfig{
			TaskMindmap: {Temperature: 0.2, MaxTokens: 2048},
			TaskParse:   {Temperature: 0.1, MaxTokens: 1024},
		},
	}
}

// Task returns the parameters for task, falling back to a conservative
// default for unknown tasks.
func (c Config) Task(task TaskType) TaskConfig {
	if tc, ok := c.Tasks[task]; ok {
		return tc
	}
	return TaskConfig{Temperature: 0.2, MaxTokens: 1024}
}
