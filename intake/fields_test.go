package intake

import "testing"

func TestFieldsFor_SchemaTypes(t *testing.T) {
	tests := []struct {
		callType      CallType
		wantCount     int
		wantRequired  int
		wantFirstKey  string
	}{
		{CallTypeDesign, 8, 5, "buildingType"},
		{CallTypeService, 7, 5, "systemType"},
		{CallTypeQuote, 7, 4, "projectScope"},
	}

	for _, tt := range tests {
		t.Run(string(tt.callType), func(t *testing.T) {
			fields := FieldsFor(tt.callType)
			if len(fields) != tt.wantCount {
				t.Fatalf("len(FieldsFor(%s)) = %d, want %d", tt.callType, len(fields), tt.wantCount)
			}
			if fields[0].Key != tt.wantFirstKey {
				t.Errorf("first key = %q, want %q", fields[0].Key, tt.wantFirstKey)
			}
			required := 0
			for _, f := range fields {
				if f.Required {
					required++
				}
			}
			if required != tt.wantRequired {
				t.Errorf("required count = %d, want %d", required, tt.wantRequired)
			}
		})
	}
}

func TestFieldsFor_NoSchemaTypes(t *testing.T) {
	for _, callType := range []CallType{CallTypeGeneral, CallTypeEmergency, CallTypeUnknown, ""} {
		if fields := FieldsFor(callType); fields != nil {
			t.Errorf("FieldsFor(%q) = %v, want nil", callType, fields)
		}
		if HasSchema(callType) {
			t.Errorf("HasSchema(%q) = true, want false", callType)
		}
	}
}

func TestLabelFor(t *testing.T) {
	if got := LabelFor(CallTypeDesign); got != "an HVAC design consultation" {
		t.Errorf("LabelFor(design) = %q", got)
	}
	if got := LabelFor(CallTypeUnknown); got != "your HVAC inquiry" {
		t.Errorf("LabelFor(unknown) = %q, want generic fallback", got)
	}
}
