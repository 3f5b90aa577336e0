package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/nilotpaul/go-fitsync/api/handler"
	MW "github.com/nilotpaul/go-fitsync/api/middleware"
	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/service"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

type Router struct {
	registry *store.ProviderRegistry
	creds    types.CredentialStore
	states   *store.StateStore
	env      config.EnvConfig
}

func NewRouter(registry *store.ProviderRegistry, creds types.CredentialStore, states *store.StateStore, env config.EnvConfig) *Router {
	return &Router{
		registry: registry,
		creds:    creds,
		states:   states,
		env:      env,
	}
}

func (h *Router) RegisterRoutes(r fiber.Router) {
	r.Get("/healthcheck", func(c *fiber.Ctx) error {
		return c.JSON("OK")
	})

	// Middlewares
	sessionMW := MW.NewSessionMiddleware(h.env)
	r.Use(sessionMW.SessionMiddleware)

	// Account linking + status for fitbit.
	fitbitHR := handler.NewFitbitHandler(h.registry, h.creds, h.states, h.env)
	fitbit := r.Group("/fitbit")
	fitbit.Get("/auth/begin", fitbitHR.BeginAuthHandler)
	fitbit.Get("/auth/callback", fitbitHR.CallbackHandler)
	fitbit.Get("/status", fitbitHR.StatusHandler)
	fitbit.Post("/disconnect", sessionMW.WithSession, fitbitHR.DisconnectHandler)

	// Metric fetch + sync. For now only fitbit is wired through the
	// registry; the handlers go through the provider interface, so a
	// second provider slots in behind the same routes.
	fp, err := h.registry.GetProvider(setting.FitbitProvider)
	if err != nil {
		slog.Warn("fitbit provider not configured, sync and data routes disabled", "err", err)
		return
	}
	metrics := service.NewMetricService(fp, h.creds)
	syncer := service.NewSyncService(metrics, h.creds)
	syncHR := handler.NewSyncHandler(metrics, syncer)
	fitbit.Post("/sync", sessionMW.WithSession, syncHR.SyncHandler)
	fitbit.Get("/data/:type", sessionMW.WithSession, syncHR.DataHandler)
	r.Get("/ws/sync", util.MakeWebsocketHandler(syncHR.SyncProgressWebsocketHandler))
}
