package intake

import (
	"fmt"
	"strings"

	"voiceagent/core"
)

// Manager binds the function-calling contract to one call's state. It owns
// the live LLM context so classification can rewrite the active system
// instruction in place, and every handler returns the directive string the
// model reads as its next-turn guidance (never spoken verbatim to the
// caller).
type Manager struct {
	state   *CallState
	context *core.LLMContext
	logger  *core.Logger
}

// NewManager creates the handler set for one call session. The context is
// expected to start with the system prompt produced by BuildSystemPrompt.
func NewManager(state *CallState, llmContext *core.LLMContext, logger *core.Logger) *Manager {
	return &Manager{
		state:   state,
		context: llmContext,
		logger:  logger,
	}
}

// State returns the call state the manager mutates.
func (m *Manager) State() *CallState {
	return m.state
}

// HandleToolCall decodes and dispatches one tool call from the live model.
// Decode failures are reported back to the model as the result string so the
// conversation can recover without crashing the call.
func (m *Manager) HandleToolCall(call core.LLMToolCall) string {
	action, err := ParseAction(call)
	if err != nil {
		m.logger.With(map[string]any{"tool": call.ToolId, "error": err}).Warn("rejected tool call")
		return fmt.Sprintf("The %s call could not be processed: %v. Continue the conversation.", call.ToolId, err)
	}

	switch a := action.(type) {
	case ClassifyCallAction:
		return m.handleClassifyCall(a)
	case UpdateIntakeFieldsAction:
		return m.handleUpdateIntakeFields(a)
	case UpdateCallerInfoAction:
		return m.handleUpdateCallerInfo(a)
	case CompleteIntakeAction:
		return m.handleCompleteIntake(a)
	}

	// Unreachable while ParseAction and the Action union stay in sync.
	return "Unhandled action. Continue the conversation."
}

// handleClassifyCall sets the call type. Emergencies short-circuit straight
// to safety messaging with no field collection; every other type gets its
// intake map pre-seeded and the system instruction swapped to the
// type-specific prompt. Re-classification never clears values already
// collected under keys both types share.
func (m *Manager) handleClassifyCall(a ClassifyCallAction) string {
	m.state.CallType = a.CallType
	m.logger.With(map[string]any{"call_type": a.CallType}).Info("call classified")

	if a.CallType == CallTypeEmergency {
		return "Call classified as emergency. Provide immediate safety instructions and assure the caller a technician will call back within 15 minutes."
	}

	for _, field := range FieldsFor(a.CallType) {
		if _, ok := m.state.IntakeData[field.Key]; !ok {
			m.state.IntakeData[field.Key] = ""
		}
	}

	m.context.SetSystemMessage(BuildSystemPrompt(m.state.Direction, a.CallType, m.state.CallerName))

	return fmt.Sprintf("Call classified as %s. Now begin collecting the intake information by asking about the first required field.", a.CallType)
}

// handleUpdateIntakeFields stores submitted values and reports collection
// progress. Empty values are ignored so the model cannot blank out data it
// already captured. Keys outside the active schema are stored as-is.
func (m *Manager) handleUpdateIntakeFields(a UpdateIntakeFieldsAction) string {
	for key, value := range a.Fields {
		if value == "" {
			continue
		}
		m.state.IntakeData[key] = value
		m.logger.With(map[string]any{"field": key, "value": value}).Info("intake field updated")
	}

	var required, collectedRequired, remaining []FieldDef
	for _, f := range FieldsFor(m.state.CallType) {
		if !f.Required {
			continue
		}
		required = append(required, f)
		if m.state.IntakeData[f.Key] != "" {
			collectedRequired = append(collectedRequired, f)
		} else {
			remaining = append(remaining, f)
		}
	}

	status := fmt.Sprintf("Updated %d field(s). %d/%d required fields collected.",
		len(a.Fields), len(collectedRequired), len(required))
	if len(remaining) > 0 {
		labels := make([]string, len(remaining))
		for i, f := range remaining {
			labels[i] = f.Label
		}
		status += fmt.Sprintf(" Still needed: %s.", strings.Join(labels, ", "))
	} else {
		status += " All fields collected! Read back a summary and ask the caller to confirm."
	}
	return status
}

// handleUpdateCallerInfo merges only the present arguments; a previously
// known value is never cleared.
func (m *Manager) handleUpdateCallerInfo(a UpdateCallerInfoAction) string {
	if a.Name != "" {
		m.state.CallerName = a.Name
	}
	if a.Email != "" {
		m.state.CallerEmail = a.Email
	}
	if a.Address != "" {
		m.state.CallerAddress = a.Address
	}
	m.logger.With(map[string]any{
		"name":  m.state.CallerName,
		"email": m.state.CallerEmail,
	}).Info("caller info updated")
	return "Caller information updated. Continue with the intake."
}

// handleCompleteIntake is the only path that marks a call done.
func (m *Manager) handleCompleteIntake(a CompleteIntakeAction) string {
	m.state.Summary = a.Summary
	m.state.IsComplete = true
	m.logger.With(map[string]any{"summary": a.Summary}).Info("intake complete")
	return "Thank the caller warmly, let them know a specialist will follow up soon, and say goodbye."
}
