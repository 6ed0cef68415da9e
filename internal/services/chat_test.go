package services

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"mindpulse-backend/internal/telemetry"
)

func TestExtractDisplayName(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"plain name", "Aruzhan", "Aruzhan"},
		{"my name is prefix", "my name is Daniel", "Daniel"},
		{"i'm prefix", "i'm Sam", "Sam"},
		{"call me prefix", "Call me Alex", "Alex"},
		{"case insensitive prefix", "MY NAME IS Nura", "Nura"},
		{"two-part name", "this is Mary Jane", "Mary Jane"},
		{"sentence rejected by length", "my name is not important right now honestly", ""},
		{"long remainder rejected", "i'm really quite overwhelmed today", ""},
		{"too many words rejected", "i am so very tired today", ""},
		{"empty after prefix", "my name is ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractDisplayName(tc.message); got != tc.expected {
				t.Errorf("extractDisplayName(%q): expected %q, got %q", tc.message, tc.expected, got)
			}
		})
	}
}

func TestSessionChannel(t *testing.T) {
	id := uuid.New()
	channel := SessionChannel(id)

	if !strings.HasPrefix(channel, "session_updates:") {
		t.Errorf("Unexpected channel prefix: %q", channel)
	}
	if !strings.HasSuffix(channel, id.String()) {
		t.Errorf("Channel %q does not carry the session id", channel)
	}
}

func TestBuildPersonaPromptIncludesInputs(t *testing.T) {
	snap := telemetry.Snapshot{LatencyMs: 9000, BackspaceCount: 7, IdleTimeMs: 12000}
	memories := []string{"User said: \"work is heavy\"."}

	prompt := buildPersonaPrompt("Dana", snap, memories)

	for _, want := range []string{"9000ms", "7", "12000ms", "Dana", "work is heavy"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildPersonaPromptDefaults(t *testing.T) {
	prompt := buildPersonaPrompt("", telemetry.Snapshot{}, nil)

	if !strings.Contains(prompt, "Friend") {
		t.Error("Prompt should fall back to addressing the user as Friend")
	}
	if !strings.Contains(prompt, "No prior relevant memories.") {
		t.Error("Prompt should state when no memories were retrieved")
	}
}
