package intake

import (
	"fmt"
	"strings"
)

// Direction of a call relative to this service.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// BuildSystemPrompt produces the full system instruction for the live LLM.
// It is a pure function of (direction, callType, callerName): when the call
// type is not yet known the prompt instructs classification first; once known
// it renders the required/optional checklists for that type's field set.
// The voice style block is a hard contract with the downstream speech
// synthesizer, not flavor text.
func BuildSystemPrompt(direction Direction, callType CallType, callerName string) string {
	var sb strings.Builder

	sb.WriteString("You are a friendly, professional AI phone agent for Elevate Edge, an HVAC consulting company.\n")
	sb.WriteString("Your responses will be read aloud over a phone call, so:\n")
	sb.WriteString("- Keep responses conversational, warm, and under 3 sentences\n")
	sb.WriteString("- Do NOT use special characters, markdown, bullet points, or formatting\n")
	sb.WriteString("- Spell out numbers and abbreviations naturally\n")
	sb.WriteString("- Sound natural and human-like\n\n")

	sb.WriteString(buildGreeting(direction, callType, callerName))
	sb.WriteString("\n\n")
	sb.WriteString(buildFieldsSection(callType))
	sb.WriteString("\n")

	sb.WriteString("IMPORTANT RULES:\n")
	sb.WriteString("- NEVER rush through the call. Take your time and be thorough.\n")
	sb.WriteString("- If the caller provides information for multiple fields at once, extract all of them.\n")
	sb.WriteString("- Always ask about optional fields too — they help serve the caller better.\n")
	sb.WriteString("- If the caller goes silent or seems confused, gently re-ask your last question.\n")
	sb.WriteString("- Always extract the caller's name, email, and address if mentioned at any point — call update_caller_info.\n")
	sb.WriteString("- Do NOT say goodbye or end the call until the intake is fully complete and confirmed.\n")
	sb.WriteString("- If the caller asks a question you can't answer, let them know a specialist will follow up.\n")

	return sb.String()
}

// buildFieldsSection renders either the classification instructions (type not
// yet known) or the required/optional checklists for the active field set.
func buildFieldsSection(callType CallType) string {
	fields := FieldsFor(callType)
	if fields == nil {
		return `You have not yet determined the call type. Your first task is to find out what the caller needs.
Listen to what they say and classify their intent:
- "design" — New HVAC system design, heat pump installation, building retrofit, new construction HVAC
- "service" — Repair, maintenance, troubleshooting an existing HVAC system
- "quote" — Requesting a price estimate or quote
- "emergency" — Gas leak, carbon monoxide, no heat in freezing conditions, fire/smoke from equipment
- "general" — General questions

Once you identify the call type, call the classify_call function with the appropriate type.
If it's an emergency, immediately provide safety instructions, assure them a technician will call back within 15 minutes, and call complete_intake with emergency details.
`
	}

	var required, optional []FieldDef
	for _, f := range fields {
		if f.Required {
			required = append(required, f)
		} else {
			optional = append(optional, f)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are conducting a %s intake call.\n\n", callType)

	sb.WriteString("REQUIRED fields to collect (MUST get all of these):\n")
	for _, f := range required {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Key, f.Label)
	}

	sb.WriteString("\nOPTIONAL fields to ask about:\n")
	for _, f := range optional {
		fmt.Fprintf(&sb, "- %s: %s\n", f.Key, f.Label)
	}

	sb.WriteString("\nWhen you believe ALL required fields have been collected, AND you have asked about optional fields:\n")
	sb.WriteString("1. Read back a brief summary of what was collected\n")
	sb.WriteString("2. Ask the caller to confirm everything is correct\n")
	sb.WriteString("3. Ask \"Is there anything else I can help you with?\"\n")
	sb.WriteString("4. Only after they confirm should you call the complete_intake function\n")

	return sb.String()
}

// buildGreeting returns the opening line directive. Outbound calls address
// the caller by name when known and state the call's purpose when the type
// is known; inbound calls get the fixed company greeting.
func buildGreeting(direction Direction, callType CallType, callerName string) string {
	if direction != DirectionOutbound {
		return `Start the conversation with: "Thank you for calling Elevate Edge. I'm your AI assistant and I can help you with HVAC design consultations, service requests, quotes, and emergencies. How can I help you today?"`
	}

	namePart := ""
	if callerName != "" {
		namePart = ", " + callerName
	}

	if callType != "" && callType != CallTypeUnknown {
		return fmt.Sprintf(
			`Start the conversation with: "Hi%s, this is Elevate Edge calling about %s. I'm an AI assistant and I'd like to collect some details to get you connected with the right specialist. Do you have a few minutes to go through some questions?"`,
			namePart, LabelFor(callType),
		)
	}

	return fmt.Sprintf(
		`Start the conversation with: "Hi%s, this is Elevate Edge calling. I'm an AI assistant. I'd like to help you with your HVAC needs. Could you tell me what you're looking for — a design consultation, service, a quote, or something else?"`,
		namePart,
	)
}
