package twilio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
)

// CallAPI is a minimal client for Twilio's call-control REST surface.
type CallAPI struct {
	config *Config
	client *http.Client
}

// NewCallAPI creates a call-control client from the transport config.
func NewCallAPI(config *Config) *CallAPI {
	return &CallAPI{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
	}
}

// CallResult is the subset of Twilio's call resource this service uses.
type CallResult struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

// CreateCall places an outbound call that executes the given TwiML when
// answered. Returns the carrier-assigned call SID and initial status.
func (a *CallAPI) CreateCall(ctx context.Context, to, twiml string) (*CallResult, error) {
	if !a.config.HasCredentials() {
		return nil, fmt.Errorf("twilio: credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Calls.json", a.config.APIBaseURL, a.config.AccountSid)
	form := url.Values{
		"To":    {to},
		"From":  {a.config.PhoneNumber},
		"Twiml": {twiml},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("twilio: build call request: %w", err)
	}
	req.SetBasicAuth(a.config.AccountSid, a.config.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio: create call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("twilio: read call response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("twilio: create call: unexpected status %d: %s", resp.StatusCode, body)
	}

	var result CallResult
	if err := sonic.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("twilio: parse call response: %w", err)
	}
	return &result, nil
}
