package intake

import (
	"strings"
	"testing"
)

func TestBuildSystemPrompt_Pure(t *testing.T) {
	a := BuildSystemPrompt(DirectionInbound, CallTypeDesign, "Sam")
	b := BuildSystemPrompt(DirectionInbound, CallTypeDesign, "Sam")
	if a != b {
		t.Error("same inputs produced different prompts")
	}
}

func TestBuildSystemPrompt_StyleDirective(t *testing.T) {
	// The voice style block is consumed by the speech synthesizer and must
	// be present regardless of call type or direction.
	prompts := []string{
		BuildSystemPrompt(DirectionInbound, CallTypeUnknown, ""),
		BuildSystemPrompt(DirectionOutbound, CallTypeService, "Alex"),
	}
	for _, p := range prompts {
		if !strings.Contains(p, "under 3 sentences") {
			t.Error("prompt missing sentence-length directive")
		}
		if !strings.Contains(p, "Spell out numbers") {
			t.Error("prompt missing number-spelling directive")
		}
	}
}

func TestBuildSystemPrompt_ChecklistPartition(t *testing.T) {
	// For every schema type, the required/optional partition must exactly
	// match the registry's Required flags, with no field omitted.
	for _, callType := range []CallType{CallTypeDesign, CallTypeService, CallTypeQuote} {
		t.Run(string(callType), func(t *testing.T) {
			prompt := BuildSystemPrompt(DirectionInbound, callType, "")

			reqIdx := strings.Index(prompt, "REQUIRED fields")
			optIdx := strings.Index(prompt, "OPTIONAL fields")
			if reqIdx < 0 || optIdx < 0 || reqIdx > optIdx {
				t.Fatal("prompt missing or misordered checklist sections")
			}
			requiredSection := prompt[reqIdx:optIdx]
			optionalSection := prompt[optIdx:]

			for _, f := range FieldsFor(callType) {
				line := "- " + f.Key + ": " + f.Label
				inRequired := strings.Contains(requiredSection, line)
				inOptional := strings.Contains(optionalSection, line)
				if f.Required && (!inRequired || inOptional) {
					t.Errorf("required field %q not listed exactly once in required section", f.Key)
				}
				if !f.Required && (inRequired || !inOptional) {
					t.Errorf("optional field %q not listed exactly once in optional section", f.Key)
				}
			}
		})
	}
}

func TestBuildSystemPrompt_ClassificationSection(t *testing.T) {
	prompt := BuildSystemPrompt(DirectionInbound, CallTypeUnknown, "")
	for _, want := range []string{`"design"`, `"service"`, `"quote"`, `"emergency"`, `"general"`, "classify_call"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("classification prompt missing %s", want)
		}
	}
	if !strings.Contains(prompt, "within 15 minutes") {
		t.Error("classification prompt missing emergency callback promise")
	}
	if strings.Contains(prompt, "REQUIRED fields") {
		t.Error("unclassified prompt should not contain a field checklist")
	}
}

func TestBuildSystemPrompt_Greeting(t *testing.T) {
	tests := []struct {
		name       string
		direction  Direction
		callType   CallType
		callerName string
		want       string
	}{
		{"inbound fixed", DirectionInbound, CallTypeDesign, "Sam", "Thank you for calling Elevate Edge"},
		{"outbound known type", DirectionOutbound, CallTypeQuote, "Sam", "Hi, Sam, this is Elevate Edge calling about your HVAC quote request"},
		{"outbound unknown type", DirectionOutbound, CallTypeUnknown, "Sam", "Could you tell me what you're looking for"},
		{"outbound no name", DirectionOutbound, CallTypeUnknown, "", `"Hi, this is Elevate Edge calling.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := BuildSystemPrompt(tt.direction, tt.callType, tt.callerName)
			if !strings.Contains(prompt, tt.want) {
				t.Errorf("prompt greeting missing %q", tt.want)
			}
		})
	}
}
