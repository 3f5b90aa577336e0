package types

import (
	"context"
	"time"
)

// OAuthProvider is the server-side half of the account linking flow.
// Client credentials stay inside implementations and never cross this
// boundary.
type OAuthProvider interface {
	// AuthURL builds the consent page URL for a begin-authorization redirect.
	AuthURL(state string) string
	// Authenticate exchanges an authorization code, resolves the provider
	// profile and persists the linked account for userID.
	Authenticate(ctx context.Context, userID, code string) (*FitbitAccount, error)
	// EnsureFreshToken refreshes the token pair when it is stale (or about
	// to be) and returns the account to use for the next provider call.
	EnsureFreshToken(ctx context.Context, acc *FitbitAccount) (*FitbitAccount, error)
	// RefreshToken refreshes unconditionally. Used for the one permitted
	// retry after a provider 401.
	RefreshToken(ctx context.Context, acc *FitbitAccount) (*FitbitAccount, error)
	// Revoke invalidates the token with the provider and clears local
	// credentials. A no-op success when the account is already unlinked.
	Revoke(ctx context.Context, userID string) error
}

// CredentialStore is the sole holder of provider tokens.
type CredentialStore interface {
	// CreateUser provisions an app user row and returns its id.
	CreateUser(ctx context.Context) (string, error)
	// Save upserts the account keyed by its UserID.
	Save(ctx context.Context, acc *FitbitAccount) error
	// Load returns (nil, nil) when the user has no linked account.
	Load(ctx context.Context, userID string) (*FitbitAccount, error)
	// Clear deletes the user's credentials.
	Clear(ctx context.Context, userID string) error
	// RecordSync bumps last_synced_at after a successful sync batch.
	RecordSync(ctx context.Context, userID string, t time.Time) error
}
