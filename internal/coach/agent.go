package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Suggestion is one coaching turn. Risk is empty when the agent saw
// none.
type Suggestion struct {
	OneLiner     string        `json:"one_liner"`
	Recommended  string        `json:"recommended"`
	Alternatives []Alternative `json:"alternatives"`
	NextQuestion string        `json:"next_question"`
	Avoid        []string      `json:"avoid"`
	Risk         string        `json:"risk"`
}

type Alternative struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Fallback is the placeholder suggestion shown while the agent has
// nothing useful to say.
func Fallback() Suggestion {
	return Suggestion{
		OneLiner:    "Listening...",
		Recommended: "Listening...",
		Alternatives: []Alternative{
			{Label: "Collaborative", Text: "Listening..."},
			{Label: "Assertive", Text: "Listening..."},
			{Label: "Probing", Text: "Listening..."},
		},
		NextQuestion: "Listening...",
		Avoid:        []string{},
	}
}

// Agent produces a suggestion for the current conversation context.
type Agent interface {
	Suggest(ctx context.Context, conversation string) (Suggestion, error)
	Close() error
}

// InvocationError reports a failed CLI run, carrying whatever the
// process wrote to stderr.
type InvocationError struct {
	Stderr string
	Err    error
}

func (e *InvocationError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("claude cli: %v: %s", e.Err, e.Stderr)
	}
	return fmt.Sprintf("claude cli: %v", e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// CLIAgent spawns `claude -p` once per coaching turn. No session state
// survives between calls.
type CLIAgent struct {
	command      string
	systemPrompt string
	timeout      time.Duration
	log          zerolog.Logger
}

func NewCLIAgent(command, systemPrompt string, timeout time.Duration, log zerolog.Logger) *CLIAgent {
	if command == "" {
		command = "claude"
	}
	return &CLIAgent{
		command:      command,
		systemPrompt: systemPrompt,
		timeout:      timeout,
		log:          log,
	}
}

func (a *CLIAgent) Suggest(ctx context.Context, conversation string) (Suggestion, error) {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	message := conversation + "\nGive me your coaching suggestions."
	cmd := exec.CommandContext(runCtx, a.command,
		"--system-prompt", a.systemPrompt,
		"-p", message,
		"--output-format", "json",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// The CLI spawns children that inherit our pipes; without a wait
	// delay a timed-out call would block until they exit too.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			err = runCtx.Err()
		}
		return Fallback(), &InvocationError{Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return ParseSuggestion(stdout.String()), nil
}

func (a *CLIAgent) Close() error { return nil }

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// ParseSuggestion extracts a Suggestion from whatever the CLI printed.
// It tolerates the --output-format json envelope, markdown fences and
// leading prose, and returns Fallback for anything unparseable.
func ParseSuggestion(raw string) Suggestion {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Fallback()
	}

	// The envelope looks like {"result": "..."}; the result itself may
	// be a JSON string or an already-decoded object.
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err == nil && len(envelope.Result) > 0 {
		var inner string
		if err := json.Unmarshal(envelope.Result, &inner); err == nil {
			text = strings.TrimSpace(inner)
		} else if s, ok := decodeSuggestion(envelope.Result); ok {
			return s
		}
	}

	if m := fenceRe.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if s, ok := decodeSuggestion([]byte(text)); ok {
		return s
	}

	// Last resort: the outermost brace block.
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if s, ok := decodeSuggestion([]byte(text[start : end+1])); ok {
			return s
		}
	}

	return Fallback()
}

// decodeSuggestion fills missing fields from the fallback, so a
// partial response still renders.
func decodeSuggestion(raw []byte) (Suggestion, bool) {
	s := Fallback()
	s.Risk = ""
	if err := json.Unmarshal(raw, &s); err != nil {
		return Suggestion{}, false
	}
	return s, true
}
