package persist

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"voiceagent/core"
	"voiceagent/intake"
)

// Config holds the configuration for the persistence dispatcher.
type Config struct {
	// Endpoint is the call-completion URL of the persistence backend.
	Endpoint string

	// Timeout bounds the single delivery attempt.
	Timeout time.Duration
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Timeout: 30 * time.Second,
	}
}

// Dispatcher delivers the finished call record to the persistence backend.
// Delivery is at-most-once: the save guard is set before the attempt, a
// failed POST is never retried, and nothing here propagates an error.
type Dispatcher struct {
	endpoint string
	client   *http.Client
	logger   *core.Logger
}

// NewDispatcher creates a dispatcher for the configured endpoint.
func NewDispatcher(config Config, logger *core.Logger) *Dispatcher {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = DefaultConfig().Timeout
	}
	return &Dispatcher{
		endpoint: config.Endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Save posts the call record once. It is a no-op when the save guard is
// already set or the call has no turns. The guard is set before the request
// goes out, so a slow or failed delivery still counts as the one attempt.
func (d *Dispatcher) Save(ctx context.Context, state *intake.CallState) {
	if len(state.Turns) == 0 {
		d.logger.Info("no turns to save, skipping")
		return
	}
	if !state.MarkSaved() {
		d.logger.Info("call data already saved, skipping duplicate")
		return
	}

	payload := state.Payload()
	body, err := sonic.Marshal(payload)
	if err != nil {
		d.logger.With(map[string]any{"error": err}).Error("failed to serialize call payload")
		return
	}

	d.logger.With(map[string]any{
		"endpoint": d.endpoint,
		"call_sid": payload.TwilioCallSid,
	}).Info("saving call data")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		d.logger.With(map[string]any{"error": err}).Error("failed to build save request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.With(map[string]any{"error": err}).Error("error saving call data")
		return
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		d.logger.With(map[string]any{"response": string(respBody)}).Info("call data saved successfully")
	} else {
		d.logger.With(map[string]any{
			"status":   resp.StatusCode,
			"response": string(respBody),
		}).Error("failed to save call data")
	}
}
