package store

import (
	"fmt"

	"github.com/nilotpaul/go-fitsync/types"
)

// ProviderRegistry holds all the linked-account providers.
type ProviderRegistry struct {
	Providers map[string]types.OAuthProvider
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		Providers: make(map[string]types.OAuthProvider),
	}
}

// Register adds a provider in the `Providers` map.
func (r *ProviderRegistry) Register(providerName string, p types.OAuthProvider) {
	r.Providers[providerName] = p
}

// GetProvider retrieves a provider from the `Providers` map.
func (r *ProviderRegistry) GetProvider(providerName string) (types.OAuthProvider, error) {
	p, exists := r.Providers[providerName]
	if !exists {
		return nil, fmt.Errorf("provider not found")
	}

	return p, nil
}
