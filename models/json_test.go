package models

import (
	"testing"
)

func TestJSON_Equal(t *testing.T) {
	a := JSON{
		"instructedAmount": map[string]interface{}{"amount": "100.00", "currency": "GBP"},
		"reference":        "order-42",
	}
	b := JSON{
		"reference":        "order-42",
		"instructedAmount": map[string]interface{}{"currency": "GBP", "amount": "100.00"},
	}

	if !a.Equal(b) {
		t.Error("Equal() = false for structurally equal documents, want true")
	}

	b["instructedAmount"].(map[string]interface{})["amount"] = "200.00"
	if a.Equal(b) {
		t.Error("Equal() = true for diverging documents, want false")
	}

	var nilDoc JSON
	if !nilDoc.Equal(nil) {
		t.Error("Equal() = false for two nil documents, want true")
	}
	if a.Equal(nil) {
		t.Error("Equal() = true comparing document against nil, want false")
	}
}

func TestJSON_Clone(t *testing.T) {
	original := JSON{
		"creditorAccount": map[string]interface{}{"identification": "08080021325698"},
	}

	clone := original.Clone()
	clone["creditorAccount"].(map[string]interface{})["identification"] = "mutated"

	if original["creditorAccount"].(map[string]interface{})["identification"] != "08080021325698" {
		t.Error("Clone() did not produce an independent copy")
	}
}
