package service

import (
	"context"

	"github.com/nilotpaul/go-fitsync/types"
)

// MockProvider implements types.OAuthProvider for testing.
type MockProvider struct {
	EnsureCalls  int
	RefreshCalls int
	EnsureErr    error
	RefreshErr   error
	RefreshedTok string
}

func (p *MockProvider) AuthURL(string) string { return "https://example.test/consent" }

func (p *MockProvider) Authenticate(context.Context, string, string) (*types.FitbitAccount, error) {
	return nil, nil
}

func (p *MockProvider) EnsureFreshToken(_ context.Context, acc *types.FitbitAccount) (*types.FitbitAccount, error) {
	p.EnsureCalls++
	if p.EnsureErr != nil {
		return nil, p.EnsureErr
	}
	return acc, nil
}

func (p *MockProvider) RefreshToken(_ context.Context, acc *types.FitbitAccount) (*types.FitbitAccount, error) {
	p.RefreshCalls++
	if p.RefreshErr != nil {
		return nil, p.RefreshErr
	}

	cp := *acc
	if len(p.RefreshedTok) != 0 {
		cp.AccessToken = p.RefreshedTok
	}
	return &cp, nil
}

func (p *MockProvider) Revoke(context.Context, string) error { return nil }
