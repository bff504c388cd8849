package coach

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadProfile(t *testing.T) {
	yaml := `
goals:
  primary: "Close the deal above $2M"
constraints:
  do_not_reveal:
    - "our walk-away number"
  do_not_commit:
    - "exclusivity"
tone:
  default: "warm but firm"
key_points:
  - "traction doubled"
preferred_moves:
  - "mirror their last phrase"
special_context:
  fund_details: |
    Series A, $40M fund.
`
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadProfile(path)
	if err != nil {
		t.Fatalf("ReadProfile: %v", err)
	}
	if p.Goals.Primary != "Close the deal above $2M" {
		t.Errorf("Goals.Primary = %q", p.Goals.Primary)
	}
	if len(p.Constraints.DoNotReveal) != 1 || p.Constraints.DoNotReveal[0] != "our walk-away number" {
		t.Errorf("DoNotReveal = %v", p.Constraints.DoNotReveal)
	}
	if p.Tone.Default != "warm but firm" {
		t.Errorf("Tone.Default = %q", p.Tone.Default)
	}
	if _, ok := p.SpecialContext["fund_details"]; !ok {
		t.Error("special_context lost fund_details")
	}
}

func TestReadProfileMissingFile(t *testing.T) {
	if _, err := ReadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCompilePromptDefaults(t *testing.T) {
	prompt := (&Profile{}).CompilePrompt()

	for _, want := range []string{
		"Win the negotiation",
		"calm and confident",
		"Respond ONLY with a JSON object",
		"labeled SELF (me) and OTHER (the other party)",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompilePromptRendersProfile(t *testing.T) {
	p := &Profile{
		Goals:          Goals{Primary: "Raise at a $20M cap"},
		Constraints:    Constraints{DoNotReveal: []string{"runway"}, DoNotCommit: []string{"board seat"}},
		Tone:           Tone{Default: "direct"},
		KeyPoints:      []string{"revenue tripled", "churn below 2%"},
		PreferredMoves: []string{"label their emotion"},
	}
	prompt := p.CompilePrompt()

	for _, want := range []string{
		"My goal: Raise at a $20M cap.",
		"  - revenue tripled",
		"  - churn below 2%",
		"  - runway",
		"  - board seat",
		"My preferred tone: direct.",
		"  - label their emotion",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if strings.Index(prompt, "My goal:") > strings.Index(prompt, "Key points") {
		t.Error("goal should come before key points")
	}
}

func TestCompileSpecialContext(t *testing.T) {
	p := &Profile{
		SpecialContext: map[string]any{
			"investor_background": "Ex-operator, led 3 fintech deals.\n",
			"questions_to_ask":    []any{"What worries you most?", "Who else decides?"},
			"meeting_number":      2,
		},
	}
	prompt := p.CompilePrompt()

	for _, want := range []string{
		"investor_background:\nEx-operator, led 3 fintech deals.",
		"questions_to_ask:\n  - What worries you most?\n  - Who else decides?",
		"meeting_number: 2",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	// Sorted keys keep the prompt stable across runs.
	if strings.Index(prompt, "investor_background") > strings.Index(prompt, "meeting_number") {
		t.Error("special context keys not sorted")
	}
}
