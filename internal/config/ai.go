package config

// GeminiModels defines which Gemini models to use for different tasks
type GeminiModels struct {
	// DiaryAnalysis classifies a diary entry (runs in the background)
	DiaryAnalysis string `json:"diaryAnalysis"`

	// Chat answers companion messages (needs to be fast)
	Chat string `json:"chat"`

	// Diagnosis summarizes a chat window into an emotional profile
	Diagnosis string `json:"diagnosis"`

	// Tip turns the latest diagnosis into a practical suggestion
	Tip string `json:"tip"`
}

// AIConfig holds all AI-related configuration
type AIConfig struct {
	APIKey    string       `json:"-"` // Never serialize
	BaseURL   string       `json:"baseUrl"`
	Models    GeminiModels `json:"models"`
	TimeoutMS int          `json:"timeoutMs"`
}

// DefaultAIConfig returns the default AI configuration
func DefaultAIConfig() *AIConfig {
	return &AIConfig{
		APIKey:  getEnv("GEMINI_API_KEY", ""),
		BaseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		Models: GeminiModels{
			Chat:          getEnv("GEMINI_MODEL_CHAT", "gemini-2.0-flash"),
			Tip:           getEnv("GEMINI_MODEL_TIP", "gemini-2.0-flash"),
			DiaryAnalysis: getEnv("GEMINI_MODEL_DIARY", "gemini-2.0-flash"),
			Diagnosis:     getEnv("GEMINI_MODEL_DIAGNOSIS", "gemini-2.0-flash"),
		},
		TimeoutMS: 10000,
	}
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the full endpoint for a given model
func (c *AIConfig) ModelEndpoint(model string) string {
	return c.BaseURL + "/" + model + ":generateContent"
}
