// Package httpapi is the HTTP surface: Bot API webhook intake, health and
// catalog administration.
package httpapi

import (
	"context"
	"crypto/subtle"

	"gearbot/internal/catalog"
	"gearbot/internal/obs"
	"gearbot/internal/telegram"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SecretHeader carries the webhook secret set with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateSink consumes webhook updates.
type UpdateSink interface {
	Process(ctx context.Context, u telegram.Update)
}

// Reloader is implemented by stores that can be reloaded on demand.
type Reloader interface {
	Reload(ctx context.Context) (*catalog.Catalog, error)
}

// Counters reports dispatch throughput.
type Counters interface {
	Metrics() (enqueued, handled uint64)
}

// SessionCounter reports how many sessions exist.
type SessionCounter interface {
	Len() int
}

// BreakerReporter exposes the outbound API circuit breaker state.
type BreakerReporter interface {
	BreakerState() string
}

// Options wires the server to the rest of the bot. Updates is nil when the
// bot polls instead of receiving webhooks.
type Options struct {
	Store         catalog.Store
	Updates       UpdateSink
	WebhookSecret string
	Dispatch      Counters
	Sessions      SessionCounter
	Transport     BreakerReporter
}

type handlers struct {
	opts Options
}

// New builds the echo instance with all routes and middleware.
func New(opts Options) *echo.Echo {
	h := &handlers{opts: opts}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"path", v.URI,
				"status", v.Status,
				"latency_ms", float64(v.Latency.Microseconds()) / 1000.0,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
			}
			obs.Logger.Info("http_request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORS())

	e.POST("/webhook", h.handleWebhook)
	e.GET("/health", h.handleHealth)

	// Admin endpoints
	e.POST("/admin/reload", h.handleReload)
	e.GET("/admin/catalog-info", h.handleCatalogInfo)

	return e
}

func secretMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
