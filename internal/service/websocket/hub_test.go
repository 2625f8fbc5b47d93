package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"attendance/internal/config"
	"attendance/internal/dto"
	"attendance/internal/logger"
	"attendance/internal/model"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.NewLogger(&config.Config{LogDirectory: t.TempDir()})
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialTestViewer spins up a server that registers every connection with the
// hub and returns a connected client side.
func dialTestViewer(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesViewer(t *testing.T) {
	hub := NewHub(newTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	viewer := dialTestViewer(t, hub)

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 viewer, got %d", hub.ClientCount())
	}

	hub.Publish([]model.DetectedFace{
		{StudentID: 1, Name: "Alice", Confidence: 0.9, Timestamp: time.Now()},
	})

	viewer.SetReadDeadline(time.Now().Add(time.Second))
	_, message, err := viewer.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read broadcast: %v", err)
	}

	var resp dto.FacesResponse
	if err := json.Unmarshal(message, &resp); err != nil {
		t.Fatalf("Failed to decode broadcast: %v", err)
	}
	if len(resp.Faces) != 1 || resp.Faces[0].Name != "Alice" {
		t.Errorf("unexpected broadcast: %+v", resp)
	}
}

func TestHub_PublishWithoutViewersDoesNotBlock(t *testing.T) {
	hub := NewHub(newTestLogger(t))
	// Run is intentionally not started; repeated publishes must still return.
	for i := 0; i < 20; i++ {
		hub.Publish([]model.DetectedFace{{Name: "Alice"}})
	}
}

func TestHub_UnregisterUnknownID(t *testing.T) {
	hub := NewHub(newTestLogger(t))
	hub.Unregister(uuid.New())
	if hub.ClientCount() != 0 {
		t.Errorf("expected no viewers, got %d", hub.ClientCount())
	}
}

func TestHub_ShutdownClosesViewers(t *testing.T) {
	hub := NewHub(newTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	viewer := dialTestViewer(t, hub)

	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return on context cancel")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected all viewers evicted, got %d", hub.ClientCount())
	}

	viewer.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := viewer.ReadMessage(); err == nil {
		t.Error("viewer connection should be closed after shutdown")
	}
}
