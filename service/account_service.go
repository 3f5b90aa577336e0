package service

import (
	"context"

	"github.com/nilotpaul/go-fitsync/types"
)

// GetConnectionStatus is the secret-stripping read the UI layer goes
// through. A missing account simply reads as unlinked.
func GetConnectionStatus(ctx context.Context, creds types.CredentialStore, userID string) (types.ConnectionStatus, error) {
	acc, err := creds.Load(ctx, userID)
	if err != nil {
		return types.ConnectionStatus{}, err
	}

	return acc.Status(), nil
}
