// Package auth provides token authentication for HTTP(S) remotes.
package auth

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// TokenUsername is the basic-auth user sent alongside a token.
const TokenUsername = "git"

// TokenProvider authenticates HTTP(S) remotes with a personal access token
// passed as the basic-auth password.
type TokenProvider struct {
	auth *http.BasicAuth

	// AllowedHosts lists the hosts that receive the token, either exact or
	// with one leading "*." or trailing ".*" wildcard. Empty means any host.
	AllowedHosts []string
}

// NewTokenProvider creates a provider for token. An empty token yields a
// provider that never authenticates.
func NewTokenProvider(token string) *TokenProvider {
	p := &TokenProvider{}
	if token != "" {
		p.auth = &http.BasicAuth{
			Username: TokenUsername,
			Password: token,
		}
	}
	return p
}

// WithAllowedHosts restricts the token to hosts matching one of hosts.
func (p *TokenProvider) WithAllowedHosts(hosts ...string) *TokenProvider {
	p.AllowedHosts = hosts
	return p
}

// Method returns basic auth for HTTP(S) remotes and nil for every other
// transport, for restricted hosts and when no token is configured.
//
//nolint:ireturn // go-git requires returning transport.AuthMethod interface
func (p *TokenProvider) Method(remoteURL string) (transport.AuthMethod, error) {
	if p.auth == nil {
		return nil, nil
	}

	ep, err := transport.NewEndpoint(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if ep.Protocol != "https" && ep.Protocol != "http" {
		return nil, nil
	}

	if len(p.AllowedHosts) > 0 && !p.isHostAllowed(ep.Host) {
		return nil, nil
	}

	return p.auth, nil
}

// isHostAllowed checks if the given host matches any of the allowed host patterns.
func (p *TokenProvider) isHostAllowed(host string) bool {
	for _, pattern := range p.AllowedHosts {
		if matchesPattern(host, pattern) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a host matches a pattern with a single "*" wildcard.
func matchesPattern(host, pattern string) bool {
	if host == pattern {
		return true
	}

	if strings.Count(pattern, "*") != 1 {
		return false
	}

	if strings.HasPrefix(pattern, "*.") {
		suffix := strings.TrimPrefix(pattern, "*.")
		return strings.HasSuffix(host, "."+suffix) || host == suffix
	}

	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(host, prefix+".")
	}

	return false
}
