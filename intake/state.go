package intake

import (
	"strings"

	"github.com/bytedance/sonic"
)

// TurnRole attributes one transcript turn to a side of the conversation.
type TurnRole string

const (
	TurnRoleCaller TurnRole = "caller"
	TurnRoleAgent  TurnRole = "agent"
)

// Turn is one utterance in the call transcript. Turns are append-only and
// never reordered or mutated after the fact.
type Turn struct {
	Role          TurnRole `json:"role"`
	Content       string   `json:"content"`
	TurnNumber    int      `json:"turnNumber"`
	ExtractedData *string  `json:"extractedData"`
}

// CallState accumulates everything collected for one call session. It is
// owned exclusively by that session's control flow; all mutation happens
// sequentially as the pipeline delivers events and tool calls.
type CallState struct {
	CallSid       string
	CallerNumber  string
	Direction     Direction
	CallType      CallType
	CallerName    string
	CallerEmail   string
	CallerAddress string
	IntakeData    map[string]string
	Summary       string
	Turns         []Turn
	IsComplete    bool

	turnCounter int
	saved       bool // guard against double-save
}

// NewCallState creates the accumulator for a new call session.
// An "unknown" call type is treated as unset.
func NewCallState(callSid, callerNumber string, direction Direction, callType CallType, callerName string) *CallState {
	if callType == CallTypeUnknown {
		callType = ""
	}
	return &CallState{
		CallSid:      callSid,
		CallerNumber: callerNumber,
		Direction:    direction,
		CallType:     callType,
		CallerName:   callerName,
		IntakeData:   make(map[string]string),
	}
}

// AddTurn appends a transcript turn with the next sequential turn number.
func (s *CallState) AddTurn(role TurnRole, content string, extracted map[string]any) {
	s.turnCounter++
	var extractedJSON *string
	if len(extracted) > 0 {
		if data, err := sonic.Marshal(extracted); err == nil {
			str := string(data)
			extractedJSON = &str
		}
	}
	s.Turns = append(s.Turns, Turn{
		Role:          role,
		Content:       content,
		TurnNumber:    s.turnCounter,
		ExtractedData: extractedJSON,
	})
}

// Transcript renders the turn sequence as "Agent:"/"Caller:" lines for the
// post-call extraction and summary prompts.
func (s *CallState) Transcript() string {
	var sb strings.Builder
	for i, t := range s.Turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		if t.Role == TurnRoleAgent {
			sb.WriteString("Agent: ")
		} else {
			sb.WriteString("Caller: ")
		}
		sb.WriteString(t.Content)
	}
	return sb.String()
}

// HasIntakeData reports whether any intake field holds a non-empty value.
// Pre-seeded empty placeholders do not count.
func (s *CallState) HasIntakeData() bool {
	for _, v := range s.IntakeData {
		if v != "" {
			return true
		}
	}
	return false
}

// MarkSaved sets the one-shot save guard. It returns false when the guard
// was already set; once set it permanently suppresses further persistence.
func (s *CallState) MarkSaved() bool {
	if s.saved {
		return false
	}
	s.saved = true
	return true
}

// CallPayload is the flat call-completion record delivered to the
// persistence backend.
type CallPayload struct {
	TwilioCallSid string  `json:"twilioCallSid"`
	CallerNumber  string  `json:"callerNumber"`
	Direction     string  `json:"direction"`
	CallType      string  `json:"callType"`
	CallerName    *string `json:"callerName"`
	CallerEmail   *string `json:"callerEmail"`
	CallerAddress *string `json:"callerAddress"`
	IntakeData    *string `json:"intakeData"`
	Summary       *string `json:"summary"`
	Turns         []Turn  `json:"turns"`
}

// Payload builds the wire record. The call type defaults to "unknown" and
// the intake mapping is serialized as an embedded JSON string, or null when
// nothing was collected.
func (s *CallState) Payload() CallPayload {
	callType := string(s.CallType)
	if callType == "" {
		callType = string(CallTypeUnknown)
	}

	var intakeJSON *string
	if len(s.IntakeData) > 0 {
		if data, err := sonic.Marshal(s.IntakeData); err == nil {
			str := string(data)
			intakeJSON = &str
		}
	}

	return CallPayload{
		TwilioCallSid: s.CallSid,
		CallerNumber:  s.CallerNumber,
		Direction:     string(s.Direction),
		CallType:      callType,
		CallerName:    optional(s.CallerName),
		CallerEmail:   optional(s.CallerEmail),
		CallerAddress: optional(s.CallerAddress),
		IntakeData:    intakeJSON,
		Summary:       optional(s.Summary),
		Turns:         s.Turns,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
