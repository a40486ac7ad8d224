package web

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/draftforge/proposal-agent/internal/requestid"
)

// doneFrame terminates every SSE stream. The framing is a wire contract:
// each chunk is one "data: <json>\n\n" frame and the stream always ends
// with "data: [DONE]\n\n".
const doneFrame = "data: [DONE]\n\n"

// ChatStream handles GET /api/projects/:id/chat/stream.
func (h *Handlers) ChatStream(c *fiber.Ctx) error {
	p, err := h.loadProject(c)
	if err != nil || p == nil {
		return err
	}

	message := c.Query("message")
	if message == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_message", "Bad Request",
			"Query parameter message is required")
	}
	history := c.Query("history")

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The fasthttp request context dies when this handler returns; the
	// stream writer runs after that, so it gets a detached context that
	// still carries the request ID.
	ctx := context.Background()
	if id, ok := c.Locals("request_id").(string); ok {
		ctx = requestid.WithRequestID(ctx, id)
	}

	logger := h.logger
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		chunks := h.chat.StreamResponse(ctx, p, message, history)
		for chunk := range chunks {
			b, err := json.Marshal(chunk)
			if err != nil {
				logger.Error().Err(err).Msg("failed to encode chunk")
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", b)
			if err := w.Flush(); err != nil {
				// client went away; drain so the producer can finish
				for range chunks {
				}
				return
			}
		}
		fmt.Fprint(w, doneFrame)
		w.Flush()
	}))
	return nil
}
