package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"phish-sim-backend/logger"
	"phish-sim-backend/middleware"
	"phish-sim-backend/services"

	"github.com/gofiber/fiber/v2"
)

// SetupEventRoutes streams badge and certificate grants over SSE.
func SetupEventRoutes(app *fiber.App, auth middleware.TokenParser, events *services.EventService, interval time.Duration, log *logger.Logger) {
	app.Get("/api/events/stream", middleware.RequireQueryToken(auth), func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		c.Set("Content-Type", "text/event-stream")
		c.Set("Cache-Control", "no-cache")
		c.Set("Connection", "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		done := c.Context().Done()
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			cursor := time.Now().UTC()

			w.WriteString(":\n\n")
			if err := w.Flush(); err != nil {
				return
			}

			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), interval)
					batch, next, err := events.Since(ctx, userID, cursor)
					cancel()
					if err != nil {
						log.Warn("event stream query failed", "user_id", userID, "error", err)
						continue
					}
					cursor = next

					for _, e := range batch {
						payload, err := json.Marshal(e)
						if err != nil {
							continue
						}
						fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, payload)
					}
					if len(batch) == 0 {
						w.WriteString(":\n\n")
					}
					if err := w.Flush(); err != nil {
						// client went away
						return
					}
				}
			}
		})
		return nil
	})
}
