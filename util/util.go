package util

import (
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

type WebsocketFunc func(*websocket.Conn) error

func GetEnv(key string, fallback ...string) string {
	v := os.Getenv(key)
	if len(v) == 0 && len(fallback) > 0 {
		return fallback[0]
	}

	return v
}

func IsProduction() bool {
	e := GetEnv("ENVIRONMENT")

	return e == "PROD"
}

func DecodeJSON(r io.Reader, target interface{}) error {
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(target); err != nil {
		return err
	}

	return nil
}

// NewProviderHTTPClient returns the bounded-timeout client used for every
// outbound provider call.
func NewProviderHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// FormatDate renders a time the way the provider's date-range endpoints
// expect it (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// writeErrorResponse writes an error response to the WebSocket connection.
func writeErrorResponse(c *websocket.Conn, err error) {
	if appErr, ok := err.(*AppError); ok {
		slog.Error("WS error", "errMsg", appErr.Error(), "status", appErr.Status, "err", appErr.Err)
		if err := c.WriteMessage(websocket.TextMessage, []byte(appErr.Error())); err != nil {
			log.Printf("failed to write error response: %v", err)
		}
	} else {
		slog.Error("WS error", "err", err)
		if err := c.WriteMessage(websocket.TextMessage, []byte("something went wrong")); err != nil {
			log.Printf("failed to write error response: %v", err)
		}
	}

	if err := c.Close(); err != nil {
		log.Printf("failed to close the ws connection: %v", err)
	}
}

// MakeWebsocketHandler creates a Fiber handler that wraps
// a WebSocket handler function.
func MakeWebsocketHandler(h WebsocketFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return websocket.New(func(conn *websocket.Conn) {
				log.Println("new incoming ws connection", conn.NetConn().RemoteAddr())

				if err := h(conn); err != nil {
					writeErrorResponse(conn, err)
				}
			})(c)
		}
		return fiber.ErrUpgradeRequired
	}
}
