package services

import (
	"bytes"
	"regexp"
	"testing"
)

var keyPattern = regexp.MustCompile(`^[A-Z]+-[A-Z]+-\d{4}$`)

func TestGenerateSecretKeyFormat(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := GenerateSecretKey()
		if err != nil {
			t.Fatalf("GenerateSecretKey failed: %v", err)
		}
		if !keyPattern.MatchString(key) {
			t.Errorf("Key %q does not match ADJECTIVE-NOUN-NNNN format", key)
		}
	}
}

func TestKeyDigestStability(t *testing.T) {
	a := KeyDigest("SILENT-RAIN-0042")
	b := KeyDigest("SILENT-RAIN-0042")
	if !bytes.Equal(a, b) {
		t.Error("Same key produced different digests")
	}

	if len(a) != 32 {
		t.Errorf("Expected 32-byte digest, got %d", len(a))
	}

	other := KeyDigest("SILENT-RAIN-0043")
	if bytes.Equal(a, other) {
		t.Error("Different keys produced the same digest")
	}
}
