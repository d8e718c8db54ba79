package registry

import (
	"errors"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "nike", false},
		{"with digits", "brand42", false},
		{"with hyphen", "summer-launch", false},
		{"with underscore", "creator_one", false},
		{"single char", "a", false},
		{"max length", strings.Repeat("a", 64), false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 65), true},
		{"uppercase", "Nike", true},
		{"space", "big brand", true},
		{"unicode", "brändli", true},
		{"slash", "a/b", true},
		{"dot", "a.b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.id, 64)
			if tt.wantErr && !errors.Is(err, ErrInvalidIdentifier) {
				t.Errorf("ValidateIdentifier(%q) = %v, want ErrInvalidIdentifier", tt.id, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateIdentifier(%q) = %v, want nil", tt.id, err)
			}
		})
	}
}

func TestValidateIdentifier_CustomLength(t *testing.T) {
	if err := ValidateIdentifier("abcdef", 4); !errors.Is(err, ErrInvalidIdentifier) {
		t.Errorf("identifier over custom bound should be rejected, got %v", err)
	}
	if err := ValidateIdentifier("abcd", 4); err != nil {
		t.Errorf("identifier at custom bound should be accepted, got %v", err)
	}
}

// TestProperty_ValidateIdentifier_AcceptedCharset tests that any string built
// from the allowed alphabet within the length bound is accepted
func TestProperty_ValidateIdentifier_AcceptedCharset(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		id := rapid.StringMatching(`[a-z0-9_-]{1,64}`).Draw(rt, "id")
		if err := ValidateIdentifier(id, 64); err != nil {
			t.Fatalf("PROPERTY VIOLATION: %q rejected: %v", id, err)
		}
	})
}
