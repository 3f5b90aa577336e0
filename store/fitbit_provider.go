package store

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nilotpaul/go-fitsync/config"
	"github.com/nilotpaul/go-fitsync/setting"
	"github.com/nilotpaul/go-fitsync/types"
	"github.com/nilotpaul/go-fitsync/util"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/fitbit"
	"golang.org/x/sync/singleflight"
)

const (
	defaultProfileURL = "https://api.fitbit.com/1/user/-/profile.json"
	defaultRevokeURL  = "https://api.fitbit.com/oauth2/revoke"
)

// FitbitProvider implements the authorization flow and the token refresh
// guard. Client credentials never leave this type.
type FitbitProvider struct {
	Config     *oauth2.Config
	HttpClient *http.Client
	creds      types.CredentialStore

	// refreshes serializes token refreshes per user; most providers rotate
	// refresh tokens, so a second concurrent refresh would be rejected.
	refreshes singleflight.Group

	profileURL string
	revokeURL  string
}

type fitbitProviderConfig struct {
	fitbitClientID     string
	fitbitClientSecret string
	fitbitRedirectURL  string
}

var _ types.OAuthProvider = (*FitbitProvider)(nil)

func NewFitbitProvider(cfg fitbitProviderConfig, creds types.CredentialStore) *FitbitProvider {
	config := &oauth2.Config{
		ClientID:     cfg.fitbitClientID,
		ClientSecret: cfg.fitbitClientSecret,
		RedirectURL:  cfg.fitbitRedirectURL,
		Scopes:       setting.FitbitScopes,
		Endpoint:     fitbit.Endpoint,
	}

	return &FitbitProvider{
		Config:     config,
		HttpClient: util.NewProviderHTTPClient(setting.ProviderTimeout),
		creds:      creds,
		profileURL: defaultProfileURL,
		revokeURL:  defaultRevokeURL,
	}
}

// AuthURL builds the consent page URL for the begin-authorization redirect.
func (p *FitbitProvider) AuthURL(state string) string {
	return p.Config.AuthCodeURL(state, oauth2.SetAuthURLParam("expires_in", setting.ConsentExpiresIn))
}

// Authenticate exchanges the authorization code for a token pair, fetches
// the Fitbit profile and persists the linked account. Codes are single-use,
// so a failed exchange is never retried.
func (p *FitbitProvider) Authenticate(ctx context.Context, userID, code string) (*types.FitbitAccount, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HttpClient)

	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		status := 0
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		return nil, &util.AuthExchangeError{Status: status, Err: err}
	}

	profile, err := p.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	acc := &types.FitbitAccount{
		UserID:       userID,
		FitbitUserID: profile.User.EncodedID,
		DisplayName:  profile.User.DisplayName,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Scope:        strings.Join(setting.FitbitScopes, " "),
		ExpiresAt:    token.Expiry,
	}
	if err := p.creds.Save(ctx, acc); err != nil {
		return nil, err
	}

	return acc, nil
}

// EnsureFreshToken is the pre-flight check wrapped around every provider
// call. Accounts within the expiry skew are refreshed before use.
func (p *FitbitProvider) EnsureFreshToken(ctx context.Context, acc *types.FitbitAccount) (*types.FitbitAccount, error) {
	if !acc.IsLinked() {
		return nil, util.NewAppError(
			http.StatusUnauthorized,
			"fitbit account not connected",
		)
	}
	if time.Until(acc.ExpiresAt) > setting.TokenExpirySkew {
		return acc, nil
	}

	return p.RefreshToken(ctx, acc)
}

// RefreshToken refreshes unconditionally. Concurrent callers for the same
// user share a single provider round-trip.
func (p *FitbitProvider) RefreshToken(ctx context.Context, acc *types.FitbitAccount) (*types.FitbitAccount, error) {
	v, err, _ := p.refreshes.Do(acc.UserID, func() (interface{}, error) {
		return p.doRefresh(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	return v.(*types.FitbitAccount), nil
}

func (p *FitbitProvider) doRefresh(ctx context.Context, acc *types.FitbitAccount) (*types.FitbitAccount, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HttpClient)

	// An already-expired expiry forces TokenSource to hit the refresh grant.
	stale := &oauth2.Token{
		RefreshToken: acc.RefreshToken,
		Expiry:       time.Now().AddDate(-100, 0, 0),
	}
	token, err := p.Config.TokenSource(ctx, stale).Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil &&
			rErr.Response.StatusCode >= 400 && rErr.Response.StatusCode < 500 {
			// The refresh token is dead; no further call can succeed until
			// the user re-links, so the account goes back to unlinked.
			if clearErr := p.creds.Clear(ctx, acc.UserID); clearErr != nil {
				return nil, clearErr
			}
			return nil, &util.RefreshError{Err: err}
		}

		// Transient failure (network, provider 5xx): the token pair is
		// still good, so the account stays linked and the caller gets a
		// gateway error instead of a re-link prompt.
		status := http.StatusBadGateway
		if errors.As(err, &rErr) && rErr.Response != nil {
			status = rErr.Response.StatusCode
		}
		return nil, &util.FetchError{Status: status, Body: err.Error()}
	}

	updated := *acc
	updated.AccessToken = token.AccessToken
	updated.RefreshToken = token.RefreshToken
	updated.TokenType = token.TokenType
	updated.ExpiresAt = token.Expiry

	if err := p.creds.Save(ctx, &updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Revoke invalidates the access token with the provider, then clears local
// credentials. Idempotent: an unlinked account is a no-op success. A failed
// provider revoke still clears local state; a stale token left active on
// the provider side is a lesser harm than blocking disconnect.
func (p *FitbitProvider) Revoke(ctx context.Context, userID string) error {
	acc, err := p.creds.Load(ctx, userID)
	if err != nil {
		return err
	}
	if !acc.IsLinked() {
		return nil
	}

	form := url.Values{}
	form.Set("token", acc.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(p.Config.ClientID, p.Config.ClientSecret)

	res, err := p.HttpClient.Do(req)
	if err != nil {
		slog.Warn("fitbit token revoke failed", "userID", userID, "err", err)
	} else {
		if res.StatusCode >= 300 {
			slog.Warn("fitbit token revoke failed", "userID", userID, "status", res.StatusCode)
		}
		res.Body.Close()
	}

	return p.creds.Clear(ctx, userID)
}

func (p *FitbitProvider) fetchProfile(ctx context.Context, accessToken string) (*types.FitbitProfileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	res, err := p.HttpClient.Do(req)
	if err != nil {
		return nil, util.NewAppError(
			http.StatusBadGateway,
			"failed to fetch the fitbit profile",
			"FitbitProvider, fetchProfile() error: ",
			err,
		)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, util.NewAppError(
			http.StatusBadGateway,
			"failed to fetch the fitbit profile",
			"FitbitProvider, fetchProfile() error: ",
			res.StatusCode,
		)
	}

	var profile types.FitbitProfileResponse
	if err := util.DecodeJSON(res.Body, &profile); err != nil {
		return nil, util.NewAppError(
			http.StatusInternalServerError,
			"failed to decode the profile response",
			"FitbitProvider, fetchProfile() error: ",
			err,
		)
	}

	return &profile, nil
}

// InitStore initializes all the providers on start-up based on the provided env variables.
func InitStore(env config.EnvConfig, creds types.CredentialStore) *ProviderRegistry {
	r := NewProviderRegistry()

	if len(env.FitbitClientID) != 0 || len(env.FitbitClientSecret) != 0 {
		fitbitProvider := NewFitbitProvider(fitbitProviderConfig{
			fitbitClientID:     env.FitbitClientID,
			fitbitClientSecret: env.FitbitClientSecret,
			fitbitRedirectURL:  env.AppURL + setting.APIPrefix + "/fitbit/auth/callback",
		}, creds)

		r.Register(setting.FitbitProvider, fitbitProvider)
	}

	return r
}
