// Package tray renders the session in the menu bar: per-stream status
// emoji in the title and the latest coaching suggestion in the menu,
// with clipboard copy actions.
package tray

import (
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/getlantern/systray"
	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/coach"
	"github.com/kostaspaps/NG/internal/transcript"
)

const menuTextLimit = 60

// UI is the menu bar surface. Run must be called from the main
// goroutine; every other method is safe from session goroutines.
type UI struct {
	log    zerolog.Logger
	onQuit func()

	mu      sync.Mutex
	current coach.Suggestion
	selfOn  bool
	otherOn bool
	ready   bool

	mStatus       *systray.MenuItem
	mOneLiner     *systray.MenuItem
	mRecommended  *systray.MenuItem
	mNextQuestion *systray.MenuItem
	mCopyReply    *systray.MenuItem
	mCopyOneLiner *systray.MenuItem
}

// New builds the tray UI. onQuit runs once when the user picks Quit,
// before the systray loop exits.
func New(onQuit func(), log zerolog.Logger) *UI {
	return &UI{
		log:     log.With().Str("component", "tray").Logger(),
		onQuit:  onQuit,
		current: coach.Fallback(),
	}
}

// Run blocks serving the tray until Quit. Call from main.
func (u *UI) Run() {
	systray.Run(u.onReady, func() {})
}

func (u *UI) onReady() {
	systray.SetTooltip("Live negotiation coaching")

	u.mu.Lock()
	u.mStatus = systray.AddMenuItem("Starting...", "Stream status")
	u.mStatus.Disable()
	systray.AddSeparator()

	u.mOneLiner = systray.AddMenuItem(truncate(u.current.OneLiner, menuTextLimit), "Say this next")
	u.mOneLiner.Disable()
	u.mRecommended = systray.AddMenuItem(truncate(u.current.Recommended, menuTextLimit), "Suggested reply")
	u.mRecommended.Disable()
	u.mNextQuestion = systray.AddMenuItem(truncate(u.current.NextQuestion, menuTextLimit), "Question to ask")
	u.mNextQuestion.Disable()
	systray.AddSeparator()

	u.mCopyReply = systray.AddMenuItem("Copy Suggested Reply", "Copy the recommended response")
	u.mCopyOneLiner = systray.AddMenuItem("Copy One-Liner", "Copy the short reply")
	systray.AddSeparator()

	mQuit := systray.AddMenuItem("Quit", "End the session and exit")

	u.ready = true
	u.mu.Unlock()

	u.refreshTitle()

	go u.handleEvents(mQuit)
}

func (u *UI) handleEvents(mQuit *systray.MenuItem) {
	for {
		select {
		case <-u.mCopyReply.ClickedCh:
			u.copyCurrent(func(s coach.Suggestion) string { return s.Recommended })
		case <-u.mCopyOneLiner.ClickedCh:
			u.copyCurrent(func(s coach.Suggestion) string { return s.OneLiner })
		case <-mQuit.ClickedCh:
			if u.onQuit != nil {
				u.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

func (u *UI) copyCurrent(pick func(coach.Suggestion) string) {
	u.mu.Lock()
	text := pick(u.current)
	u.mu.Unlock()

	if err := clipboard.WriteAll(text); err != nil {
		u.log.Error().Err(err).Msg("Clipboard write failed")
		return
	}
	u.log.Debug().Int("chars", len(text)).Msg("Copied suggestion to clipboard")
}

// ShowSuggestion replaces the suggestion lines in the menu.
func (u *UI) ShowSuggestion(s coach.Suggestion) {
	u.mu.Lock()
	u.current = s
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}

	u.mOneLiner.SetTitle(truncate(s.OneLiner, menuTextLimit))
	u.mRecommended.SetTitle(truncate(s.Recommended, menuTextLimit))
	u.mNextQuestion.SetTitle(truncate(s.NextQuestion, menuTextLimit))
	if s.Risk != "" {
		u.mNextQuestion.SetTooltip("Risk: " + s.Risk)
	}
}

// StreamState updates the per-stream indicator in the tray title.
func (u *UI) StreamState(label transcript.Label, capturing bool) {
	u.mu.Lock()
	switch label {
	case transcript.Self:
		u.selfOn = capturing
	case transcript.Other:
		u.otherOn = capturing
	}
	ready := u.ready
	selfOn, otherOn := u.selfOn, u.otherOn
	u.mu.Unlock()
	if !ready {
		return
	}

	u.refreshTitle()
	u.mStatus.SetTitle(statusLine(selfOn, otherOn))
}

func (u *UI) Notify(message string) {
	u.mu.Lock()
	ready := u.ready
	u.mu.Unlock()
	if !ready {
		return
	}
	systray.SetTooltip(message)
}

func (u *UI) refreshTitle() {
	u.mu.Lock()
	selfOn, otherOn := u.selfOn, u.otherOn
	u.mu.Unlock()
	systray.SetTitle(title(selfOn, otherOn))
}

// title composes the menu bar text: a mic dot for SELF and a speaker
// dot for OTHER.
func title(selfOn, otherOn bool) string {
	return fmt.Sprintf("🎙%s%s", dot(selfOn), dot(otherOn))
}

func dot(on bool) string {
	if on {
		return "🟢"
	}
	return "⚪"
}

func statusLine(selfOn, otherOn bool) string {
	switch {
	case selfOn && otherOn:
		return "Capturing both sides"
	case selfOn:
		return "Capturing you only"
	case otherOn:
		return "Capturing other side only"
	default:
		return "Not capturing"
	}
}

func truncate(text string, limit int) string {
	if text == "" {
		return "..."
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}
