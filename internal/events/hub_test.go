package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(testLogger())
	go hub.Run()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForSubscribers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.SubscriberCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber count = %d, want %d", hub.SubscriberCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesSubscriber(t *testing.T) {
	hub, srv := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	waitForSubscribers(t, hub, 1)

	hub.Broadcast(TypeOrderCreated, map[string]string{"id": "order-1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var message Message
	if err := conn.ReadJSON(&message); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if message.Type != TypeOrderCreated {
		t.Errorf("type = %q, want %q", message.Type, TypeOrderCreated)
	}
	var payload map[string]string
	if err := json.Unmarshal(message.Data, &payload); err != nil {
		t.Fatalf("payload decode failed: %v", err)
	}
	if payload["id"] != "order-1" {
		t.Errorf("payload = %v", payload)
	}
	if message.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestBroadcastFansOut(t *testing.T) {
	hub, srv := startHub(t)

	conns := make([]*websocket.Conn, 3)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
		if err != nil {
			t.Fatalf("dial %d failed: %v", i, err)
		}
		defer conn.Close()
		conns[i] = conn
	}
	waitForSubscribers(t, hub, 3)

	hub.Broadcast(TypeAnimalListed, map[string]string{"id": "animal-1"})

	for i, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("subscriber %d read failed: %v", i, err)
		}
		if message.Type != TypeAnimalListed {
			t.Errorf("subscriber %d type = %q", i, message.Type)
		}
	}
}

func TestDisconnectLeavesFeed(t *testing.T) {
	hub, srv := startHub(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	waitForSubscribers(t, hub, 1)

	conn.Close()
	waitForSubscribers(t, hub, 0)
}

func TestWatcherDeliversInOrder(t *testing.T) {
	hub, srv := startHub(t)

	received := make(chan Message, 8)
	watcher, err := NewWatcher(srv.URL, func(m Message) { received <- m }, testLogger())
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Watch(ctx) }()
	waitForSubscribers(t, hub, 1)

	hub.Broadcast(TypeOrderCreated, map[string]string{"seq": "1"})
	hub.Broadcast(TypeOrderStatusChanged, map[string]string{"seq": "2"})

	wantTypes := []string{TypeOrderCreated, TypeOrderStatusChanged}
	for _, want := range wantTypes {
		select {
		case message := <-received:
			if message.Type != want {
				t.Errorf("type = %q, want %q", message.Type, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}

	cancel()
	select {
	case err := <-watchErr:
		if err != context.Canceled {
			t.Errorf("watch returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatcherURLRewrite(t *testing.T) {
	watcher, err := NewWatcher("http://localhost:8080", nil, testLogger())
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}
	if watcher.url != "ws://localhost:8080/ws" {
		t.Errorf("url = %q", watcher.url)
	}

	watcher, err = NewWatcher("https://api.farmart.dev/", nil, testLogger())
	if err != nil {
		t.Fatalf("new watcher failed: %v", err)
	}
	if watcher.url != "wss://api.farmart.dev/ws" {
		t.Errorf("url = %q", watcher.url)
	}
}
