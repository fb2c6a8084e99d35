package notify

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultBufferSize = 16
	heartbeatInterval = 30 * time.Second
)

// ServeSSE streams hub events to the client until it disconnects.
func ServeSSE(c *gin.Context, hub *Hub) {
	sub := &Subscriber{
		ID:      uuid.New().String(),
		Channel: make(chan Event, defaultBufferSize),
	}

	hub.Subscribe(sub)
	defer hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-sub.Channel:
			if !ok {
				return false
			}
			_, err := w.Write([]byte(event.FormatSSE()))
			return err == nil
		case <-heartbeat.C:
			_, err := w.Write([]byte(": ping\n\n"))
			return err == nil
		case <-c.Request.Context().Done():
			return false
		}
	})
}
