package intake

// FieldDef is a single piece of information the agent collects during an
// intake call. The Key is the wire identifier stored in the call record;
// the Label is what the LLM (and the eventual specialist) sees.
type FieldDef struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// CallType classifies the caller's intent and selects which field set applies.
type CallType string

const (
	CallTypeDesign    CallType = "design"
	CallTypeService   CallType = "service"
	CallTypeQuote     CallType = "quote"
	CallTypeEmergency CallType = "emergency"
	CallTypeGeneral   CallType = "general"
	CallTypeUnknown   CallType = "unknown"
)

var designFields = []FieldDef{
	{Key: "buildingType", Label: "Building Type", Required: true},
	{Key: "buildingSize", Label: "Building Size (sq ft)", Required: true},
	{Key: "location", Label: "Location", Required: true},
	{Key: "projectGoals", Label: "Project Goals", Required: true},
	{Key: "timeline", Label: "Timeline", Required: true},
	{Key: "budget", Label: "Budget Range", Required: false},
	{Key: "existingSystem", Label: "Existing System", Required: false},
	{Key: "specialRequirements", Label: "Special Requirements", Required: false},
}

var serviceFields = []FieldDef{
	{Key: "systemType", Label: "System Type", Required: true},
	{Key: "systemAge", Label: "System Age", Required: true},
	{Key: "symptoms", Label: "Symptoms/Issue", Required: true},
	{Key: "urgency", Label: "Urgency Level", Required: true},
	{Key: "location", Label: "Location", Required: true},
	{Key: "siteConstraints", Label: "Site Constraints", Required: false},
	{Key: "makeModel", Label: "Make and Model", Required: false},
}

var quoteFields = []FieldDef{
	{Key: "projectScope", Label: "Project Scope", Required: true},
	{Key: "buildingType", Label: "Building Type", Required: true},
	{Key: "buildingSize", Label: "Building Size (sq ft)", Required: true},
	{Key: "location", Label: "Location", Required: true},
	{Key: "existingSystem", Label: "Existing System", Required: false},
	{Key: "timeline", Label: "Timeline", Required: false},
	{Key: "budget", Label: "Budget Range", Required: false},
}

var callTypeFields = map[CallType][]FieldDef{
	CallTypeDesign:  designFields,
	CallTypeService: serviceFields,
	CallTypeQuote:   quoteFields,
}

// callTypeLabels are the human phrasings used in outbound greetings.
var callTypeLabels = map[CallType]string{
	CallTypeDesign:  "an HVAC design consultation",
	CallTypeService: "your HVAC service request",
	CallTypeQuote:   "your HVAC quote request",
	CallTypeGeneral: "your HVAC inquiry",
}

// FieldsFor returns the ordered field definitions for a call type, or nil
// for types with no intake schema (general, emergency, unknown).
func FieldsFor(callType CallType) []FieldDef {
	return callTypeFields[callType]
}

// HasSchema reports whether the call type carries an intake field set.
func HasSchema(callType CallType) bool {
	_, ok := callTypeFields[callType]
	return ok
}

// LabelFor returns the greeting phrase for a call type, falling back to the
// general inquiry phrasing.
func LabelFor(callType CallType) string {
	if label, ok := callTypeLabels[callType]; ok {
		return label
	}
	return "your HVAC inquiry"
}
