package models

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"3.1.5", false},
		{"3.1", false},
		{"v3.1.10", false},
		{"", true},
		{"not-a-version", true},
		{"3.one.5", true},
	}

	for _, tt := range tests {
		_, err := ParseVersion(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestVersionTag_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3.1.5", "3.1.5", 0},
		{"3.1.10", "3.1.5", 1},
		{"3.1.0", "3.1.5", -1},
		{"4.0.0", "3.9.9", 1},
		{"3.2.0", "3.1.10", 1},
		{"3.1", "3.1.0", 0},
		{"3.1", "3.1.1", -1},
	}

	for _, tt := range tests {
		got := MustParseVersion(tt.a).Compare(MustParseVersion(tt.b))
		if got != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestVersionTag_AtLeast(t *testing.T) {
	resource := MustParseVersion("3.1.5")

	if !MustParseVersion("3.1.5").AtLeast(resource) {
		t.Error("AtLeast() = false for equal versions, want true")
	}
	if !MustParseVersion("3.1.10").AtLeast(resource) {
		t.Error("AtLeast() = false for newer request version, want true")
	}
	if MustParseVersion("3.1.0").AtLeast(resource) {
		t.Error("AtLeast() = true for older request version, want false")
	}
	if MustParseVersion("3.1").AtLeast(resource) {
		t.Error("AtLeast() = true for request version with missing patch, want false")
	}
}
