package auth

import (
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Provider resolves the auth method for a remote URL.
type Provider interface {
	// Method returns the transport.AuthMethod for the given remote URL.
	// Returns nil if no authentication is needed/available for this URL.
	Method(remoteURL string) (transport.AuthMethod, error)
}

var _ Provider = (*TokenProvider)(nil)
