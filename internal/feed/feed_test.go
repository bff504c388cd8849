package feed

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/kostaspaps/NG/internal/coach"
	"github.com/kostaspaps/NG/internal/transcript"
)

func startServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(zerolog.Nop())
	if err := s.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func dial(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/feed", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func waitForClients(t *testing.T, s *Server, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		n := len(s.clients)
		s.mu.Unlock()
		if n == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("never reached %d clients", want)
}

func TestFeedBroadcastsSuggestion(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	s.ShowSuggestion(coach.Suggestion{OneLiner: "Anchor high.", Recommended: "Open at 2.4M."})

	frame := readFrame(t, conn)
	if frame["type"] != "suggestion" {
		t.Fatalf("frame type = %v", frame["type"])
	}
	suggestion, ok := frame["suggestion"].(map[string]any)
	if !ok {
		t.Fatalf("suggestion payload = %T", frame["suggestion"])
	}
	if suggestion["one_liner"] != "Anchor high." {
		t.Errorf("one_liner = %v", suggestion["one_liner"])
	}
}

func TestFeedSnapshotOnConnect(t *testing.T) {
	s := startServer(t)
	s.StreamState(transcript.Self, true)
	s.ShowSuggestion(coach.Suggestion{OneLiner: "Pause."})

	conn := dial(t, s)

	byType := map[string]map[string]any{}
	for i := 0; i < 2; i++ {
		frame := readFrame(t, conn)
		byType[frame["type"].(string)] = frame
	}

	status, ok := byType["status"]
	if !ok {
		t.Fatal("no status frame in snapshot")
	}
	if status["stream"] != "SELF" || status["capturing"] != true {
		t.Errorf("status frame = %v", status)
	}

	if _, ok := byType["suggestion"]; !ok {
		t.Fatal("no suggestion frame in snapshot")
	}
}

func TestFeedBroadcastsStatusAndNotice(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	s.StreamState(transcript.Other, false)
	frame := readFrame(t, conn)
	if frame["type"] != "status" || frame["stream"] != "OTHER" || frame["capturing"] != false {
		t.Errorf("status frame = %v", frame)
	}

	s.Notify("System audio unavailable")
	frame = readFrame(t, conn)
	if frame["type"] != "notice" || frame["message"] != "System audio unavailable" {
		t.Errorf("notice frame = %v", frame)
	}
}

func TestFeedCloseDisconnectsClients(t *testing.T) {
	s := startServer(t)
	conn := dial(t, s)
	waitForClients(t, s, 1)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // closed as expected
		}
	}
}
