package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/nilotpaul/go-fitsync/api/middleware"
	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/service"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/store"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
)

type FitbitHandler struct {
	registry *store.ProviderRegistry
	creds    types.CredentialStore
	states   *store.StateStore
	env      config.EnvConfig
}

func NewFitbitHandler(registry *store.ProviderRegistry, creds types.CredentialStore, states *store.StateStore, env config.EnvConfig) *FitbitHandler {
	return &FitbitHandler{
		registry: registry,
		creds:    creds,
		states:   states,
		env:      env,
	}
}

// BeginAuthHandler redirects to the Fitbit consent page. A first-time
// visitor gets a user row and a session cookie before being sent off.
func (h *FitbitHandler) BeginAuthHandler(c *fiber.Ctx) error {
	fp, err := h.registry.GetProvider(setting.FitbitProvider)
	if err != nil || fp == nil {
		return util.NewAppError(
			http.StatusNotFound,
			"provider not found",
		)
	}

	userID := middleware.UserID(c)
	if len(userID) == 0 {
		userID, err = h.creds.CreateUser(c.Context())
		if err != nil {
			return err
		}

		token, err := util.GenerateSessionToken(userID, h.env.SessionSecret)
		if err != nil {
			return util.NewAppError(
				http.StatusInternalServerError,
				"failed to create session",
				"BeginAuthHandler error: ",
				err,
			)
		}
		util.SetSessionToken(c, token, h.env.Domain)
	}

	state, err := util.GenerateRandomState(32)
	if err != nil {
		return err
	}
	h.states.Put(state, userID)

	authURL := fp.AuthURL(state)
	if len(authURL) == 0 {
		return util.NewAppError(
			http.StatusInternalServerError,
			"no authentication URL was generated",
		)
	}

	return c.Redirect(authURL, http.StatusFound)
}

// CallbackHandler exchanges the `code` in the URL for a token pair and
// links the account. The browser is redirected back to the app with a
// success/failure flag only; tokens never appear in redirect URLs.
func (h *FitbitHandler) CallbackHandler(c *fiber.Ctx) error {
	fp, err := h.registry.GetProvider(setting.FitbitProvider)
	if err != nil || fp == nil {
		return util.NewAppError(
			http.StatusNotFound,
			"provider not found",
		)
	}

	// Denied consent ends the attempt; nothing is persisted.
	if len(c.Query("error")) != 0 {
		return c.Redirect(h.env.AppURL+"/settings?fitbit=error", http.StatusFound)
	}

	authCode := c.Query("code")
	if len(authCode) == 0 {
		return util.NewAppError(
			http.StatusBadRequest,
			"no authorization code found in URL",
		)
	}

	userID, ok := h.states.Consume(c.Query("state"))
	if !ok {
		return util.NewAppError(
			http.StatusBadRequest,
			"invalid or expired authorization state",
		)
	}

	acc, err := fp.Authenticate(c.Context(), userID, authCode)
	if err != nil {
		var exchangeErr *util.AuthExchangeError
		if errors.As(err, &exchangeErr) {
			// Single-use code was rejected; the user has to restart the
			// link flow from the app.
			return c.Redirect(h.env.AppURL+"/settings?fitbit=error", http.StatusFound)
		}
		return err
	}

	return c.Redirect(
		h.env.AppURL+"/settings?fitbit=connected&username="+url.QueryEscape(acc.DisplayName),
		http.StatusFound,
	)
}

// StatusHandler sends back the connection status with secrets stripped.
func (h *FitbitHandler) StatusHandler(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	if len(userID) == 0 {
		return c.JSON(types.ConnectionStatus{})
	}

	status, err := service.GetConnectionStatus(c.Context(), h.creds, userID)
	if err != nil {
		return err
	}

	return c.JSON(status)
}

// DisconnectHandler revokes the provider token and clears local
// credentials. Disconnecting an already-unlinked account is a no-op
// success.
func (h *FitbitHandler) DisconnectHandler(c *fiber.Ctx) error {
	fp, err := h.registry.GetProvider(setting.FitbitProvider)
	if err != nil {
		return util.NewAppError(
			http.StatusNotFound,
			"provider not found",
		)
	}

	if err := fp.Revoke(c.Context(), middleware.UserID(c)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
