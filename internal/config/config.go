// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// Business document and scheduling
	BusinessConfigPath string
	BusinessTimezone   string
	SlotDuration       time.Duration

	// LLM settings
	LLMProvider       string
	LLMModel          string
	LLMMaxTokens      int
	OpenRouterAPIKey  string
	OpenRouterSite    string
	OpenRouterBaseURL string
	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GeminiAPIKey      string

	// Google settings
	GoogleCalendarID      string
	GoogleSheetURL        string
	GoogleTokenFile       string
	GoogleCredentialsFile string

	// Mail settings
	SenderEmail    string
	SenderPassword string
	SMTPHost       string
	SMTPPort       int

	// NATS settings; an empty URL disables booking events
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// Business
		BusinessConfigPath: getEnv("BUSINESS_CONFIG_PATH", "config.json"),
		BusinessTimezone:   getEnv("BUSINESS_TIMEZONE", "Asia/Kolkata"),
		SlotDuration:       getDurationEnv("SLOT_DURATION", 60*time.Minute),

		// LLM
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openrouter")),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMMaxTokens:      getIntEnv("LLM_MAX_TOKENS", 1024),
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterSite:    getEnv("OPENROUTER_SITE_NAME", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),

		// Google
		GoogleCalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
		GoogleSheetURL:        getEnv("GOOGLE_SHEET_URL", ""),
		GoogleTokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		// Mail
		SenderEmail:    getEnv("SENDER_EMAIL", ""),
		SenderPassword: getEnv("SENDER_PASSWORD", ""),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getIntEnv("SMTP_PORT", 465),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate checks the settings required to serve chat requests.
func (c *Config) Validate() error {
	var missing []string

	switch c.LLMProvider {
	case "openrouter":
		if c.OpenRouterAPIKey == "" {
			missing = append(missing, "OPENROUTER_API_KEY")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			missing = append(missing, "ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			missing = append(missing, "GEMINI_API_KEY")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.GoogleSheetURL == "" {
		missing = append(missing, "GOOGLE_SHEET_URL")
	}
	if c.SenderEmail == "" {
		missing = append(missing, "SENDER_EMAIL")
	}
	if c.SenderPassword == "" {
		missing = append(missing, "SENDER_PASSWORD")
	}
	if c.SlotDuration <= 0 {
		return errors.New("SLOT_DURATION must be positive")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// LoadEnvFile exports the key/value pairs of a dotenv file into the process
// environment. Variables already set in the environment win. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file %s: %w", path, err)
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
