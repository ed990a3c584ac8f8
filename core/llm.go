package core

type LLMMessageRole string

const (
	LLMMessageRoleUser      LLMMessageRole = "user"
	LLMMessageRoleAssistant LLMMessageRole = "assistant"
	LLMMessageRoleSystem    LLMMessageRole = "system"
	LLMMessageRoleTool      LLMMessageRole = "tool"
)

// LLMMessage represents a message exchanged with the LLM.
type LLMMessage struct {
	Role    LLMMessageRole `json:"role"`    // Role of the message sender (e.g., user, assistant, system, tool).
	Message string         `json:"message"` // Content of the message.
}

type LLMParamterType string

const (
	LLMParameterTypeString  LLMParamterType = "string"
	LLMParameterTypeInteger LLMParamterType = "number"
	LLMParameterTypeBoolean LLMParamterType = "boolean"
	LLMParameterTypeObject  LLMParamterType = "object"
)

// Parameter represents a parameter for an LLM tool.
type Parameter struct {
	Name        string          `json:"name"`        // Name of the parameter.
	Description string          `json:"description"` // Description of the parameter.
	Required    bool            `json:"required"`    // Whether the parameter is required.
	Enum        []string        `json:"enum,omitempty"` // Optional allow-list of values.
	Type        LLMParamterType `json:"type"`        // Type of the parameter (e.g., string, object).
}

// LLMTool represents a tool that can be used by the LLM.
type LLMTool struct {
	Name        string      `json:"name"`                 // Name of the tool.
	ToolId      string      `json:"tool_id"`              // Id of the tool.
	Description string      `json:"description"`          // Description of the tool's functionality.
	Parameters  []Parameter `json:"parameters,omitempty"` // Parameters required by the tool.
}

// LLMContext is the mutable conversation context handed to the LLM on every
// completion: the ordered message history plus the currently visible tools.
type LLMContext struct {
	Messages []LLMMessage
	Tools    []LLMTool
}

func (c *LLMContext) AddSystemMessage(text string) {
	c.Messages = append(c.Messages, LLMMessage{Role: LLMMessageRoleSystem, Message: text})
}

func (c *LLMContext) AddUserMessage(text string) {
	c.Messages = append(c.Messages, LLMMessage{Role: LLMMessageRoleUser, Message: text})
}

func (c *LLMContext) AddAssistantMessage(text string) {
	c.Messages = append(c.Messages, LLMMessage{Role: LLMMessageRoleAssistant, Message: text})
}

// SetSystemMessage replaces the content of the leading system message, or
// inserts one when the history does not start with a system message.
func (c *LLMContext) SetSystemMessage(text string) {
	if len(c.Messages) > 0 && c.Messages[0].Role == LLMMessageRoleSystem {
		c.Messages[0].Message = text
		return
	}
	c.Messages = append([]LLMMessage{{Role: LLMMessageRoleSystem, Message: text}}, c.Messages...)
}

// LLMToolCall represents a call to an LLM tool.
type LLMToolCall struct {
	ToolId     string          `json:"tool_id"`              // Id of the tool being called.
	Parameters *map[string]any `json:"parameters,omitempty"` // Parameters for the tool call.
}
