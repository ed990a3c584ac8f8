package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"voiceagent/config"
	"voiceagent/core"
	"voiceagent/transports/twilio"
)

func newTestServer(cfg config.Config) *Server {
	return New(cfg, nil, nil, nil, core.GetLogger())
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(config.Config{})
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "voiceagent" {
		t.Errorf("body = %v", body)
	}
}

func TestHandleIncoming(t *testing.T) {
	srv := newTestServer(config.Config{ServerURL: "https://agent.example.com"})

	form := url.Values{
		"From":    {"+15550001111"},
		"To":      {"+15550002222"},
		"CallSid": {"CA123"},
	}
	req := httptest.NewRequest(http.MethodPost, "/twiml-incoming", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)

	body := rec.Body.String()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{
		`<Stream url="wss://agent.example.com/ws">`,
		`<Parameter name="direction" value="inbound">`,
		`<Parameter name="from_number" value="+15550001111">`,
		`<Parameter name="to_number" value="+15550002222">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response missing %s:\n%s", want, body)
		}
	}
}

func TestHandleIncoming_NotConfigured(t *testing.T) {
	srv := newTestServer(config.Config{})

	req := httptest.NewRequest(http.MethodPost, "/twiml-incoming", nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "<Say") || !strings.Contains(body, "<Hangup>") {
		t.Errorf("expected spoken apology with hangup, got:\n%s", body)
	}
	if strings.Contains(body, "<Connect") {
		t.Error("unconfigured service must not attach a stream")
	}
}

func TestHandleDialOut_Validation(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.Config
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing phone number",
			cfg:        config.Config{ServerURL: "https://agent.example.com"},
			body:       `{"callType":"quote"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "phoneNumber is required",
		},
		{
			name:       "invalid json",
			cfg:        config.Config{ServerURL: "https://agent.example.com"},
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing credentials",
			cfg:        config.Config{ServerURL: "https://agent.example.com"},
			body:       `{"phoneNumber":"+15550002222"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Twilio credentials not configured",
		},
		{
			name: "missing server url",
			cfg: config.Config{
				TwilioAccountSid:  "AC123",
				TwilioAuthToken:   "secret",
				TwilioPhoneNumber: "+15550001111",
			},
			body:       `{"phoneNumber":"+15550002222"}`,
			wantStatus: http.StatusInternalServerError,
			wantError:  "LOCAL_SERVER_URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(tt.cfg)
			req := httptest.NewRequest(http.MethodPost, "/dial-out", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			srv.Routes().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body map[string]any
			if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not valid JSON: %v", err)
			}
			errMsg, _ := body["error"].(string)
			if !strings.Contains(errMsg, tt.wantError) {
				t.Errorf("error = %q, want mention of %q", errMsg, tt.wantError)
			}
		})
	}
}

func TestHandleDialOut_PlacesCall(t *testing.T) {
	var gotTwiml string
	carrier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotTwiml = r.PostForm.Get("Twiml")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA900","status":"queued"}`))
	}))
	defer carrier.Close()

	cfg := config.Config{
		ServerURL:         "https://agent.example.com",
		TwilioAccountSid:  "AC123",
		TwilioAuthToken:   "secret",
		TwilioPhoneNumber: "+15550001111",
	}
	srv := newTestServer(cfg)
	// Point call control at the fake carrier.
	twilioCfg := cfg.TwilioConfig()
	twilioCfg.APIBaseURL = carrier.URL
	srv.callAPI = twilio.NewCallAPI(twilioCfg)

	req := httptest.NewRequest(http.MethodPost, "/dial-out",
		strings.NewReader(`{"phoneNumber":"+15550002222","callType":"quote","callerName":"Sam"}`))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		body, _ := io.ReadAll(rec.Body)
		t.Fatalf("status = %d, body = %s", rec.Code, body)
	}
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if body["success"] != true || body["callSid"] != "CA900" || body["status"] != "queued" {
		t.Errorf("body = %v", body)
	}
	for _, want := range []string{
		`name="call_type" value="quote"`,
		`name="caller_name" value="Sam"`,
		`name="direction" value="outbound"`,
		`name="to_number" value="+15550002222"`,
	} {
		if !strings.Contains(gotTwiml, want) {
			t.Errorf("dial-out TwiML missing %s:\n%s", want, gotTwiml)
		}
	}
}
