package v1

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	eventSnapshot  = "snapshot"
	eventMessage   = "message"
	eventKeepAlive = "ping"

	keepAliveInterval = 25 * time.Second
)

// streamEvents пишет значения из events как события SSE с именем name, пока клиент
// не отключится или канал не закроется. Между событиями отправляет ping,
// чтобы прокси не обрывали соединение
func streamEvents[T any](c *gin.Context, log *logrus.Entry, events <-chan T, name string, render func(T) any) {
	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		var event sse.Event
		select {
		case <-ctx.Done():
			log.Debug("Stream client disconnected")
			return
		case value, ok := <-events:
			if !ok {
				log.Debug("Stream source closed")
				return
			}
			event = sse.Event{Event: name, Data: render(value)}
		case <-ticker.C:
			event = sse.Event{Event: eventKeepAlive, Data: "{}"}
		}

		if err := sse.Encode(c.Writer, event); err != nil {
			log.WithError(err).Warn("Failed to write stream event")
			return
		}
		c.Writer.Flush()
	}
}
