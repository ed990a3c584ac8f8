package postcall

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"voiceagent/intake"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"fenced", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced with language", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  \n```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"opening fence only", "```json\n{\"a\":1}", `{"a":1}`},
		{"bare fence no newline", "```", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.input); got != tt.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// fakeCompletionServer returns a test server that answers every chat
// completion with the given content.
func fakeCompletionServer(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "provider error", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: baseURL + "/v1"})
}

func TestExtract_FencedResponse(t *testing.T) {
	response := "```json\n{\"callType\":\"service\",\"fields\":{\"symptoms\":\"no heat\"},\"callerName\":\"Sam\",\"callerEmail\":null,\"callerAddress\":null,\"summary\":\"Caller reported no heat.\"}\n```"
	ts := fakeCompletionServer(t, response, http.StatusOK)
	defer ts.Close()

	extraction, err := newTestClient(ts.URL).Extract(context.Background(), "Caller: no heat", intake.CallTypeService)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if extraction.CallType != intake.CallTypeService {
		t.Errorf("CallType = %q", extraction.CallType)
	}
	if extraction.Fields["symptoms"] != "no heat" {
		t.Errorf("Fields = %v", extraction.Fields)
	}
	if extraction.CallerName != "Sam" || extraction.CallerEmail != "" {
		t.Errorf("caller fields = %q / %q", extraction.CallerName, extraction.CallerEmail)
	}
}

func TestExtract_MalformedResponse(t *testing.T) {
	ts := fakeCompletionServer(t, "I could not find any structured data.", http.StatusOK)
	defer ts.Close()

	if _, err := newTestClient(ts.URL).Extract(context.Background(), "Caller: hi", intake.CallTypeUnknown); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestExtract_ProviderError(t *testing.T) {
	ts := fakeCompletionServer(t, "", http.StatusInternalServerError)
	defer ts.Close()

	if _, err := newTestClient(ts.URL).Extract(context.Background(), "Caller: hi", intake.CallTypeUnknown); err == nil {
		t.Fatal("expected provider error, got nil")
	}
}

func TestSummarize(t *testing.T) {
	ts := fakeCompletionServer(t, "  Caller asked about a furnace repair.  ", http.StatusOK)
	defer ts.Close()

	summary, err := newTestClient(ts.URL).Summarize(context.Background(), "Caller: furnace broken")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary != "Caller asked about a furnace repair." {
		t.Errorf("Summarize() = %q", summary)
	}
}
