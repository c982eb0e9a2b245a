package limits

import (
	"strings"
	"testing"
)

var testVoices = map[string]bool{"alloy": true, "onyx": true}

func TestCheckText(t *testing.T) {
	g := New(DefaultPolicy)

	if v := g.CheckText("hello"); v != nil {
		t.Errorf("Short text should pass, got %v", v)
	}
	if v := g.CheckText(""); v == nil {
		t.Error("Empty text should violate")
	}
	if v := g.CheckText(strings.Repeat("x", 5000)); v == nil {
		t.Error("Oversized text should violate")
	} else if v.Rule != "max_text_length" {
		t.Errorf("Wrong rule: %s", v.Rule)
	}
}

func TestCheckSpeechCollectsAllViolations(t *testing.T) {
	g := New(DefaultPolicy)

	violations := g.CheckSpeech("nosuchvoice", 10.0, "wav", testVoices)
	if len(violations) != 3 {
		t.Fatalf("Expected 3 violations (voice, speed, format), got %d: %v", len(violations), violations)
	}

	rules := map[string]bool{}
	for _, v := range violations {
		rules[v.Rule] = true
	}
	for _, want := range []string{"voice", "speed", "format"} {
		if !rules[want] {
			t.Errorf("Missing violation for %s", want)
		}
	}
}

func TestCheckSpeechValid(t *testing.T) {
	g := New(DefaultPolicy)
	if violations := g.CheckSpeech("alloy", 1.0, "mp3", testVoices); len(violations) != 0 {
		t.Errorf("Valid parameters should pass, got %v", violations)
	}
}

func TestCheckSpeechBoundarySpeeds(t *testing.T) {
	g := New(DefaultPolicy)
	if v := g.CheckSpeech("alloy", 0.25, "mp3", testVoices); len(v) != 0 {
		t.Errorf("Minimum speed should be allowed, got %v", v)
	}
	if v := g.CheckSpeech("alloy", 4.0, "mp3", testVoices); len(v) != 0 {
		t.Errorf("Maximum speed should be allowed, got %v", v)
	}
}

func TestCheckFile(t *testing.T) {
	g := New(DefaultPolicy)

	if v := g.CheckFile("notes.md"); v != nil {
		t.Errorf("Markdown should be allowed, got %v", v)
	}
	if v := g.CheckFile("/tmp/uploads/report.pdf"); v != nil {
		t.Errorf("Paths should match on basename, got %v", v)
	}
	if v := g.CheckFile("malware.exe"); v == nil {
		t.Error("Executable should be rejected")
	}
}

func TestCheckUploadSize(t *testing.T) {
	g := New(Policy{MaxUploadBytes: 100})

	if v := g.CheckUploadSize(50); v != nil {
		t.Errorf("Small upload should pass, got %v", v)
	}
	if v := g.CheckUploadSize(200); v == nil {
		t.Error("Oversized upload should violate")
	}
}

func TestTokenBudget(t *testing.T) {
	g := New(Policy{MaxPromptTokens: 10})

	if v := g.CheckTokenBudget("short prompt"); v != nil {
		t.Errorf("Short prompt should fit, got %v", v)
	}
	if v := g.CheckTokenBudget(strings.Repeat("supercalifragilistic ", 100)); v == nil {
		t.Error("Long prompt should exceed budget")
	}
}

func TestCountTokensNonZero(t *testing.T) {
	g := New(DefaultPolicy)
	if g.CountTokens("hello world, this is a reasonably sized sentence") == 0 {
		t.Error("Expected non-zero token count")
	}
}

func TestViolationError(t *testing.T) {
	v := Violation{Rule: "speed", Message: "too fast"}
	if v.Error() != "speed: too fast" {
		t.Errorf("Unexpected error string: %s", v.Error())
	}
}
