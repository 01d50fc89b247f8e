// Package security provides tests for approval token generation.
package security

import (
	"encoding/hex"
	"testing"
)

// TestGenerateApprovalToken_Shape verifies token length and alphabet:
// 32 bytes of entropy hex-encoded to 64 lowercase characters.
func TestGenerateApprovalToken_Shape(t *testing.T) {
	token, err := GenerateApprovalToken()
	if err != nil {
		t.Fatalf("GenerateApprovalToken failed: %v", err)
	}

	if len(token) != ApprovalTokenBytes*2 {
		t.Errorf("Expected %d characters, got %d", ApprovalTokenBytes*2, len(token))
	}

	decoded, err := hex.DecodeString(token)
	if err != nil {
		t.Errorf("Token is not valid hex: %v", err)
	}
	if len(decoded) != ApprovalTokenBytes {
		t.Errorf("Expected %d bytes of entropy, got %d", ApprovalTokenBytes, len(decoded))
	}

	for _, r := range token {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Errorf("Unexpected character %q in token", r)
		}
	}
}

// TestGenerateApprovalToken_Uniqueness verifies that consecutive tokens do
// not collide. With 256 bits of entropy a collision here means the random
// source is broken.
func TestGenerateApprovalToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 1000; i++ {
		token, err := GenerateApprovalToken()
		if err != nil {
			t.Fatalf("GenerateApprovalToken failed: %v", err)
		}
		if seen[token] {
			t.Fatalf("Duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

// TestGenerateTempPassword verifies the one-time password shape.
func TestGenerateTempPassword(t *testing.T) {
	password, err := GenerateTempPassword()
	if err != nil {
		t.Fatalf("GenerateTempPassword failed: %v", err)
	}

	if len(password) != 24 {
		t.Errorf("Expected 24 characters, got %d", len(password))
	}

	other, err := GenerateTempPassword()
	if err != nil {
		t.Fatalf("GenerateTempPassword failed: %v", err)
	}
	if password == other {
		t.Error("Consecutive temp passwords should differ")
	}
}
