package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, 2048, cfg.Task(TaskMindmap).MaxTokens)
}

func TestConfig_UnknownTaskFallsBack(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, 1024, cfg.Task(TaskParse).MaxTokens)
}
