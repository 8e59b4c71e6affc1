package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler receives each event from the feed in arrival order.
type Handler func(Message)

// Watcher follows a server's event feed. A broken connection ends the
// watch; there is no reconnection, matching the rest of the client's
// no-retry stance.
type Watcher struct {
	url     string
	logger  *logrus.Logger
	handler Handler
}

// NewWatcher builds a watcher for the API at baseURL (http/https
// schemes are rewritten to ws/wss).
func NewWatcher(baseURL string, handler Handler, logger *logrus.Logger) (*Watcher, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/ws"

	return &Watcher{
		url:     parsed.String(),
		logger:  logger,
		handler: handler,
	}, nil
}

// Watch dials the feed and delivers events to the handler until ctx is
// done or the connection fails.
func (w *Watcher) Watch(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event feed: %w", err)
	}
	defer conn.Close()

	w.logger.WithField("url", w.url).Info("Watching event feed")

	// Close the connection when ctx ends so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var message Message
		if err := conn.ReadJSON(&message); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("event feed closed: %w", err)
		}
		w.handler(message)
	}
}
