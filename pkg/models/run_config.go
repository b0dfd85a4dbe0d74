package models

import "time"

// Generation defaults applied when neither the node config nor the run
// config overrides them.
const (
	DefaultModel       = "llama-3.1-8b-instant"
	DefaultAudioModel  = "playai-tts"
	DefaultVoice       = "Aaliyah-PlayAI"
	DefaultProvider    = "groq"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// RunConfig carries run-level generation defaults and credentials. Node-level
// config overrides these per node.
type RunConfig struct {
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	Temperature float64           `json:"temperature"`
	MaxTokens   int               `json:"max_tokens"`
	Voice       string            `json:"voice"`
	APIKeys     map[string]string `json:"-"`

	// Timeout bounds the whole run. Zero means no timeout.
	Timeout time.Duration `json:"timeout,omitempty"`
}

// DefaultRunConfig returns the run defaults used when the caller supplies
// nothing.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Provider:    DefaultProvider,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Voice:       DefaultVoice,
	}
}

// APIKey returns the credential for the active provider, if any.
func (c RunConfig) APIKey() string {
	return c.APIKeys[c.Provider]
}
