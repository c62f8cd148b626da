package auth

import (
	"context"
	"errors"
)

// ModuleVoterExports is the entitlement required to request and read voter
// exports.
const ModuleVoterExports = "voters_export"

var (
	// ErrNoSession is returned when a request carries no valid session token
	ErrNoSession = errors.New("no active session")
)

// Identity is the authenticated caller.
type Identity struct {
	UserID string
}

// SessionProvider resolves a bearer token into the calling identity.
type SessionProvider interface {
	CurrentUser(ctx context.Context, token string) (*Identity, error)
}

// Authorizer checks module entitlements for a user.
type Authorizer interface {
	HasModuleAccess(ctx context.Context, userID, moduleKey string) (bool, error)
}

// StaticSessionProvider resolves tokens from a fixed table. Deployment glue
// for environments without an external identity service.
type StaticSessionProvider struct {
	Tokens map[string]string // token -> user ID
}

func (p *StaticSessionProvider) CurrentUser(_ context.Context, token string) (*Identity, error) {
	userID, ok := p.Tokens[token]
	if !ok || token == "" {
		return nil, ErrNoSession
	}
	return &Identity{UserID: userID}, nil
}

// StaticAuthorizer grants module access from a fixed table.
type StaticAuthorizer struct {
	Grants map[string][]string // user ID -> module keys
}

func (a *StaticAuthorizer) HasModuleAccess(_ context.Context, userID, moduleKey string) (bool, error) {
	for _, key := range a.Grants[userID] {
		if key == moduleKey {
			return true, nil
		}
	}
	return false, nil
}
