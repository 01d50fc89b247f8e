package handlers

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mirifridman/apexboard/internal/events"
)

// EventsHandler streams board change notifications over server-sent events
// so open dashboards can refresh without polling.
type EventsHandler struct {
	broker *events.Broker
}

// NewEventsHandler creates a new instance of EventsHandler.
func NewEventsHandler(broker *events.Broker) *EventsHandler {
	return &EventsHandler{broker: broker}
}

// Stream subscribes the client to one topic and streams events until the
// connection drops. A keepalive comment goes out periodically so proxies do
// not reap the idle connection.
//
// Route: GET /api/events/:topic
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	topic := c.Params("topic")
	switch topic {
	case events.TopicTasks, events.TopicAssignees, events.TopicApprovals:
	default:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown topic"})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch, cancel := h.broker.Subscribe(topic)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		keepalive := time.NewTicker(25 * time.Second)
		defer keepalive.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				payload, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepalive.C:
				if _, err := w.WriteString(": keepalive\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})

	return nil
}
