package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	MW "github.com/nilotpaul/go-fitsync/api/middleware"
	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/types"
)

type APIServer struct {
	listenAddr string
	env        config.EnvConfig
	registry   *store.ProviderRegistry
	creds      types.CredentialStore
	states     *store.StateStore
}

func NewAPIServer(listenAddr string, env config.EnvConfig, registry *store.ProviderRegistry, creds types.CredentialStore, states *store.StateStore) *APIServer {
	return &APIServer{
		listenAddr: listenAddr,
		env:        env,
		registry:   registry,
		creds:      creds,
		states:     states,
	}
}

func (s *APIServer) Start() error {
	app := fiber.New(fiber.Config{
		AppName:      "Fitsync",
		ErrorHandler: MW.ErrorHandler,
	})
	logger := logger.New(logger.Config{
		Format: "[${ip}]:${port} ${status} - ${method} ${path}\n",
	})

	app.Use(logger)

	v1 := app.Group("/api/v1")

	handler := NewRouter(s.registry, s.creds, s.states, s.env)
	handler.RegisterRoutes(v1)

	log.Printf("Server started on http://localhost:%s", s.listenAddr)

	return app.Listen(":" + s.listenAddr)
}
