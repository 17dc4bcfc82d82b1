package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "sk-...abc"
}

// CheckAPIKeys returns the status of every provider key.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("LiteLLM / OpenAI API Key", cfg.LLM.APIKey, "LITELLM_API_KEY", "NEWSIMPACT_LLM_API_KEY"),
		checkKey("Anthropic API Key", cfg.LLM.Anthropic.APIKey, "ANTHROPIC_API_KEY", "NEWSIMPACT_LLM_ANTHROPIC_API_KEY"),
		checkKey("Gemini API Key", cfg.LLM.Gemini.APIKey, "GEMINI_API_KEY", "NEWSIMPACT_LLM_GEMINI_API_KEY"),
	}
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:   name,
		IsSet:  value != "",
		Source: KeySourceNone,
	}
	if value == "" {
		return status
	}

	status.Source = KeySourceConfig
	for _, e := range envVars {
		if os.Getenv(e) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = MaskKey(value)
	return status
}

// MaskKey masks an API key for display, showing only first 3 and last 3 chars.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
