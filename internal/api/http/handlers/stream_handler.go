package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// StreamHandler serves a ticket's live event feed over SSE.
type StreamHandler struct {
	messages  *service.MessageService
	keepAlive time.Duration
	logger    *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(messages *service.MessageService, keepAlive time.Duration, logger *zap.Logger) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &StreamHandler{messages: messages, keepAlive: keepAlive, logger: logger}
}

// Stream GET /tickets/:id/events. The subscriber appears in the ticket's
// presence for the lifetime of the connection.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	// The subscription outlives this handler; the stream writer below owns
	// its teardown.
	sub, err := h.messages.Subscribe(c.Context(), principal.Actor, c.Params("id"), principal.User.Name)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	keepAlive := h.keepAlive
	logger := h.logger
	messages := h.messages

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer messages.Unsubscribe(context.Background(), sub)

		writeSSE(w, []byte(`{"event":"connected"}`))
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_, _ = w.WriteString(": keep-alive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case event, open := <-sub.C:
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Warn("marshal stream event failed", zap.Error(err))
					continue
				}
				writeSSE(w, payload)
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeSSE(w *bufio.Writer, data []byte) {
	_, _ = fmt.Fprintf(w, "data: %s\n\n", bytes.ReplaceAll(data, []byte("\n"), []byte("")))
}
