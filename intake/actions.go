package intake

import (
	"fmt"

	"github.com/bytedance/sonic"

	"voiceagent/core"
)

// Tool ids of the function-calling contract. These are the only structured
// actions the live LLM may invoke during a call.
const (
	ToolClassifyCall       = "classify_call"
	ToolUpdateIntakeFields = "update_intake_fields"
	ToolUpdateCallerInfo   = "update_caller_info"
	ToolCompleteIntake     = "complete_intake"
)

// Tools returns the declarative schema of the four intake actions. The core
// does not run the completion itself; this is the contract handed to whatever
// drives the live model.
func Tools() []core.LLMTool {
	return []core.LLMTool{
		{
			ToolId:      ToolClassifyCall,
			Name:        ToolClassifyCall,
			Description: "Classify the type of call based on the caller's first response. Call this once you understand what the caller needs.",
			Parameters: []core.Parameter{
				{
					Name:        "call_type",
					Description: "The classified call type",
					Required:    true,
					Type:        core.LLMParameterTypeString,
					Enum:        []string{"design", "service", "quote", "emergency", "general"},
				},
			},
		},
		{
			ToolId:      ToolUpdateIntakeFields,
			Name:        ToolUpdateIntakeFields,
			Description: "Update intake fields with information extracted from the caller's speech. Call this whenever the caller provides information that matches an intake field.",
			Parameters: []core.Parameter{
				{
					Name:        "fields",
					Description: "Key-value pairs of field names and their values extracted from the caller's speech",
					Required:    true,
					Type:        core.LLMParameterTypeObject,
				},
			},
		},
		{
			ToolId:      ToolUpdateCallerInfo,
			Name:        ToolUpdateCallerInfo,
			Description: "Update caller contact information when mentioned during the conversation.",
			Parameters: []core.Parameter{
				{Name: "name", Description: "Caller's name", Type: core.LLMParameterTypeString},
				{Name: "email", Description: "Caller's email address", Type: core.LLMParameterTypeString},
				{Name: "address", Description: "Caller's address", Type: core.LLMParameterTypeString},
			},
		},
		{
			ToolId:      ToolCompleteIntake,
			Name:        ToolCompleteIntake,
			Description: "Mark the intake as complete. ONLY call this after: 1) All required fields are collected, 2) Optional fields have been asked about, 3) A summary has been read back and confirmed by the caller, 4) The caller confirms they have nothing else to add.",
			Parameters: []core.Parameter{
				{
					Name:        "summary",
					Description: "Brief summary of the entire call and collected information",
					Required:    true,
					Type:        core.LLMParameterTypeString,
				},
			},
		},
	}
}

// Action is the decoded form of one tool call: exactly one of the four
// contract actions, each carrying its validated arguments.
type Action interface {
	isAction()
}

// ClassifyCallAction sets the call type.
type ClassifyCallAction struct {
	CallType CallType `json:"call_type"`
}

// UpdateIntakeFieldsAction stores a batch of field values. Keys outside the
// active schema are accepted and preserved.
type UpdateIntakeFieldsAction struct {
	Fields map[string]string `json:"fields"`
}

// UpdateCallerInfoAction merges contact info; absent values leave prior
// state untouched.
type UpdateCallerInfoAction struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// CompleteIntakeAction marks the intake done with a spoken-summary record.
type CompleteIntakeAction struct {
	Summary string `json:"summary"`
}

func (ClassifyCallAction) isAction()       {}
func (UpdateIntakeFieldsAction) isAction() {}
func (UpdateCallerInfoAction) isAction()   {}
func (CompleteIntakeAction) isAction()     {}

// ParseAction decodes a raw tool call into its typed Action. Unknown tool
// ids and missing required arguments are decode errors; the caller decides
// how to report them back to the model.
func ParseAction(call core.LLMToolCall) (Action, error) {
	args := map[string]any{}
	if call.Parameters != nil {
		args = *call.Parameters
	}
	data, err := sonic.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("intake: marshal %s arguments: %w", call.ToolId, err)
	}

	switch call.ToolId {
	case ToolClassifyCall:
		var a ClassifyCallAction
		if err := sonic.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("intake: decode %s: %w", call.ToolId, err)
		}
		if a.CallType == "" {
			return nil, fmt.Errorf("intake: %s: call_type is required", call.ToolId)
		}
		return a, nil

	case ToolUpdateIntakeFields:
		var a UpdateIntakeFieldsAction
		if err := sonic.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("intake: decode %s: %w", call.ToolId, err)
		}
		if a.Fields == nil {
			return nil, fmt.Errorf("intake: %s: fields is required", call.ToolId)
		}
		return a, nil

	case ToolUpdateCallerInfo:
		var a UpdateCallerInfoAction
		if err := sonic.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("intake: decode %s: %w", call.ToolId, err)
		}
		return a, nil

	case ToolCompleteIntake:
		var a CompleteIntakeAction
		if err := sonic.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("intake: decode %s: %w", call.ToolId, err)
		}
		if a.Summary == "" {
			return nil, fmt.Errorf("intake: %s: summary is required", call.ToolId)
		}
		return a, nil
	}

	return nil, fmt.Errorf("intake: unknown tool %q", call.ToolId)
}
