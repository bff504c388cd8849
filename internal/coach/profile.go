// Package coach turns conversation context into negotiation
// suggestions by driving the claude CLI in print mode. The profile is
// the user's negotiation brief; each coaching turn spawns a fresh
// process so nothing persists between calls.
package coach

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is a negotiation brief loaded from YAML. Every field is
// optional; missing values get neutral defaults at prompt time.
type Profile struct {
	Goals          Goals          `yaml:"goals"`
	Constraints    Constraints    `yaml:"constraints"`
	Tone           Tone           `yaml:"tone"`
	KeyPoints      []string       `yaml:"key_points"`
	PreferredMoves []string       `yaml:"preferred_moves"`
	SpecialContext map[string]any `yaml:"special_context"`
}

type Goals struct {
	Primary string `yaml:"primary"`
}

type Constraints struct {
	DoNotReveal []string `yaml:"do_not_reveal"`
	DoNotCommit []string `yaml:"do_not_commit"`
}

type Tone struct {
	Default string `yaml:"default"`
}

// ReadProfile loads a YAML profile from disk.
func ReadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	return &p, nil
}

// CompilePrompt renders the profile into the coaching system prompt.
func (p *Profile) CompilePrompt() string {
	goal := p.Goals.Primary
	if goal == "" {
		goal = "Win the negotiation"
	}
	tone := p.Tone.Default
	if tone == "" {
		tone = "calm and confident"
	}

	parts := []string{
		fmt.Sprintf("You are my personal negotiation coach. My goal: %s.", goal),
		fmt.Sprintf("Key points I must hit:\n%s", bulletList(p.KeyPoints)),
		fmt.Sprintf("I must not reveal:\n%s", bulletList(p.Constraints.DoNotReveal)),
		fmt.Sprintf("I must not commit to:\n%s", bulletList(p.Constraints.DoNotCommit)),
		fmt.Sprintf("My preferred tone: %s.", tone),
		fmt.Sprintf("My preferred tactics:\n%s", bulletList(p.PreferredMoves)),
	}

	if special := compileSpecialContext(p.SpecialContext); special != "" {
		parts = append(parts, special)
	}

	parts = append(parts, responseFormat)
	return strings.Join(parts, "\n\n")
}

const responseFormat = `I will send you conversation context labeled SELF (me) and OTHER (the other party).
Focus your suggestions on how I should respond to what THEY are saying.
Respond ONLY with a JSON object:
{
  "one_liner": "What to say next, <= 140 chars",
  "recommended": "1-2 sentence response",
  "alternatives": [
    {"label": "Collaborative", "text": "..."},
    {"label": "Assertive", "text": "..."},
    {"label": "Probing", "text": "..."}
  ],
  "next_question": "A calibrated question to ask",
  "avoid": ["Don't say X", "Don't concede Y"],
  "risk": "Brief risk warning or null"
}

Be concise. Every suggestion must be short and glanceable.`

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "  - " + item
	}
	return strings.Join(lines, "\n")
}

// compileSpecialContext renders the free-form special_context block.
// Keys are emitted in sorted order so the prompt is stable run to run.
func compileSpecialContext(special map[string]any) string {
	if len(special) == 0 {
		return ""
	}

	keys := make([]string, 0, len(special))
	for k := range special {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		switch value := special[key].(type) {
		case string:
			lines = append(lines, fmt.Sprintf("%s:\n%s", key, strings.TrimSpace(value)))
		case []any:
			items := make([]string, len(value))
			for i, v := range value {
				items[i] = fmt.Sprint(v)
			}
			lines = append(lines, fmt.Sprintf("%s:\n%s", key, bulletList(items)))
		default:
			lines = append(lines, fmt.Sprintf("%s: %v", key, value))
		}
	}
	return strings.Join(lines, "\n\n")
}
