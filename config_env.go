package parley

import (
	"os"

	"github.com/joho/godotenv"
)

// Environment variable names read by [ConfigFromEnv]. Provider credentials
// must never be compiled into a binary; the reference deployment injects them
// at build or launch time.
const (
	EnvConversationBaseURL = "PARLEY_CONVERSATION_BASE_URL"
	EnvConversationAPIKey  = "PARLEY_CONVERSATION_API_KEY"
	EnvTranslationBaseURL  = "PARLEY_TRANSLATION_BASE_URL"
	EnvTranslationAPIKey   = "PARLEY_TRANSLATION_API_KEY"
	EnvTokenSecret         = "PARLEY_TOKEN_SECRET"
)

// ConfigFromEnv returns the default configuration overlaid with provider
// endpoints and credentials from the environment. A .env file in the working
// directory is loaded first when present; a missing file is not an error.
func ConfigFromEnv() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if v := os.Getenv(EnvConversationBaseURL); v != "" {
		cfg.Conversation.BaseURL = v
	}
	if v := os.Getenv(EnvConversationAPIKey); v != "" {
		cfg.Conversation.APIKey = v
	}
	if v := os.Getenv(EnvTranslationBaseURL); v != "" {
		cfg.Translation.BaseURL = v
	}
	if v := os.Getenv(EnvTranslationAPIKey); v != "" {
		cfg.Translation.APIKey = v
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Token.Secret = []byte(v)
	}
	return cfg
}
