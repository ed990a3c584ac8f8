package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"voiceagent/transports/twilio"
)

// Config is the process-wide configuration, loaded once at startup from the
// environment. All values are read-only after Load.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// ServerURL is the public base URL of this service, used to derive the
	// websocket URL handed to the carrier.
	ServerURL string

	// Carrier credentials.
	TwilioAccountSid  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// OpenAIAPIKey authorizes the post-call extraction and summary calls.
	OpenAIAPIKey string

	// PersistURL is the base URL of the persistence backend.
	PersistURL string

	// CallLogDir, when set, enables per-call .jsonl log files.
	CallLogDir string
}

// Load reads the configuration from environment variables.
func Load() Config {
	return Config{
		Port:              getEnvAsInt("PORT", 7860),
		ServerURL:         getEnv("LOCAL_SERVER_URL", ""),
		TwilioAccountSid:  getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioPhoneNumber: getEnv("TWILIO_PHONE_NUMBER", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		PersistURL:        getEnv("NEXTJS_API_URL", "http://localhost:3000"),
		CallLogDir:        getEnv("CALL_LOG_DIR", ""),
	}
}

// WebSocketURL derives the media stream URL the carrier connects to.
func (c Config) WebSocketURL() (string, error) {
	if c.ServerURL == "" {
		return "", fmt.Errorf("config: LOCAL_SERVER_URL not configured")
	}
	wsURL := strings.Replace(c.ServerURL, "https://", "wss://", 1)
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	return wsURL + "/ws", nil
}

// CallCompleteURL is the persistence backend's call-completion endpoint.
func (c Config) CallCompleteURL() string {
	return c.PersistURL + "/api/call-complete"
}

// TwilioConfig builds the transport config from the carrier credentials.
func (c Config) TwilioConfig() *twilio.Config {
	cfg := twilio.DefaultConfig()
	cfg.AccountSid = c.TwilioAccountSid
	cfg.AuthToken = c.TwilioAuthToken
	cfg.PhoneNumber = c.TwilioPhoneNumber
	cfg.RequestTimeout = 30 * time.Second
	return cfg
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer with a default fallback
func getEnvAsInt(key string, defaultValue int) int {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}
