package twilio

import "time"

// Config holds the configuration for the Twilio transport: media stream
// websocket handling plus the REST credentials used for call control.
type Config struct {
	// Twilio account SID
	AccountSid string `json:"account_sid"`

	// Twilio auth token
	AuthToken string `json:"auth_token"`

	// The Twilio phone number calls are placed from
	PhoneNumber string `json:"phone_number"`

	// Twilio REST API base URL
	APIBaseURL string `json:"api_base_url" default:"https://api.twilio.com/2010-04-01"`

	// Timeout for REST API requests
	RequestTimeout time.Duration `json:"request_timeout"`

	// Maximum websocket message size (bytes)
	MaxMessageSize int64 `json:"max_message_size" default:"65536"`

	// Audio sample rate (Hz)
	AudioSampleRate int `json:"audio_sample_rate" default:"8000"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:      "https://api.twilio.com/2010-04-01",
		RequestTimeout:  30 * time.Second,
		MaxMessageSize:  65536,
		AudioSampleRate: 8000,
	}
}

// HasCredentials reports whether the carrier credentials needed for
// outbound call control are configured.
func (c *Config) HasCredentials() bool {
	return c.AccountSid != "" && c.AuthToken != "" && c.PhoneNumber != ""
}
