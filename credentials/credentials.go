// Package credentials resolves the access token used for authenticated
// fetch, clone and push operations.
//
// An empty token means anonymous access. A missing token source is not an
// error; providers only fail when the source exists but cannot be read.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

// Provider resolves the current access token.
type Provider interface {
	// Token returns the token, or "" for anonymous access.
	Token(ctx context.Context) (string, error)

	// Name identifies the provider in logs and errors.
	Name() string
}

var (
	// ErrAccessDenied indicates the token source refused access.
	ErrAccessDenied = errors.New("access denied")

	// ErrProviderError indicates a general failure inside a provider.
	ErrProviderError = errors.New("provider error")
)

// ProviderError wraps a provider failure with the provider name and the
// source it was reading.
type ProviderError struct {
	Provider string
	Source   string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %q error for %q: %v", e.Provider, e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider, source string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Source: source, Err: err}
}

// Static always returns the same token.
type Static string

// Token implements Provider.
func (s Static) Token(context.Context) (string, error) { return string(s), nil }

// Name implements Provider.
func (Static) Name() string { return "static" }

// Anonymous returns a provider that never supplies a token.
func Anonymous() Provider { return Static("") }
