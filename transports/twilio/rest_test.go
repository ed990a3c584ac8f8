package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func restTestConfig(baseURL string) *Config {
	config := DefaultConfig()
	config.AccountSid = "AC123"
	config.AuthToken = "secret"
	config.PhoneNumber = "+15550001111"
	config.APIBaseURL = baseURL
	return config
}

func TestCreateCall(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Calls.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Error("basic auth credentials missing or wrong")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+15550002222" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostForm.Get("From"); got != "+15550001111" {
			t.Errorf("From = %q", got)
		}
		if got := r.PostForm.Get("Twiml"); got == "" {
			t.Error("Twiml form field missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA789","status":"queued"}`))
	}))
	defer ts.Close()

	api := NewCallAPI(restTestConfig(ts.URL))
	result, err := api.CreateCall(context.Background(), "+15550002222", "<Response/>")
	if err != nil {
		t.Fatalf("CreateCall() error = %v", err)
	}
	if result.Sid != "CA789" || result.Status != "queued" {
		t.Errorf("result = %+v", result)
	}
}

func TestCreateCall_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code": 21211, "message": "Invalid 'To' phone number"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	api := NewCallAPI(restTestConfig(ts.URL))
	if _, err := api.CreateCall(context.Background(), "bogus", "<Response/>"); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestCreateCall_MissingCredentials(t *testing.T) {
	config := DefaultConfig()
	api := NewCallAPI(config)
	if _, err := api.CreateCall(context.Background(), "+15550002222", "<Response/>"); err == nil {
		t.Fatal("expected error when credentials are not configured")
	}
}
