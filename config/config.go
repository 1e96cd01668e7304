// Package config loads gitsync configuration from YAML or CUE files.
//
// Configuration is optional: every field has a default, and the file is
// looked up in the XDG config directories when no explicit path is given.
// The format is chosen by file extension (.yaml, .yml or .cue).
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/adrg/xdg"
)

// AppName is the directory name used under the XDG base directories.
const AppName = "gitsync"

// Token sources.
const (
	TokenSourceFile = "file"
	TokenSourceAWS  = "aws"
	TokenSourceNone = "none"
)

const (
	// DefaultTokenFile is read relative to Root when the token source is "file".
	DefaultTokenFile = "git.token"

	// DefaultWorkers bounds the number of repositories processed at once.
	DefaultWorkers = 4

	// DefaultSummaryLimit is the entry count above which pull summaries collapse.
	DefaultSummaryLimit = 200
)

// Config is the complete gitsync configuration.
type Config struct {
	// Version declares the schema version the file was written against.
	Version string `yaml:"version" json:"version,omitempty"`

	// Root is the application root every repository path resolves against.
	Root string `yaml:"root" json:"root,omitempty"`

	Token TokenConfig `yaml:"token" json:"token,omitempty"`

	// InsecureSkipTLS disables certificate verification for HTTPS remotes.
	InsecureSkipTLS bool `yaml:"insecure_skip_tls" json:"insecure_skip_tls,omitempty"`

	// Workers bounds how many repositories are processed concurrently.
	Workers int `yaml:"workers" json:"workers,omitempty"`

	Log      LogConfig      `yaml:"log" json:"log,omitempty"`
	Merge    IdentityConfig `yaml:"merge" json:"merge,omitempty"`
	Commit   CommitConfig   `yaml:"commit" json:"commit,omitempty"`
	Checkout CheckoutConfig `yaml:"checkout" json:"checkout,omitempty"`
	Diff     DiffConfig     `yaml:"diff" json:"diff,omitempty"`
}

// TokenConfig selects where the remote access token comes from.
type TokenConfig struct {
	// Source is one of "file", "aws" or "none".
	Source string `yaml:"source" json:"source,omitempty"`

	// File is the token file, relative to Root unless absolute.
	File string `yaml:"file" json:"file,omitempty"`

	SecretID string `yaml:"secret_id" json:"secret_id,omitempty"`
	Region   string `yaml:"region" json:"region,omitempty"`
	Endpoint string `yaml:"endpoint" json:"endpoint,omitempty"`

	// AllowedHosts limits which HTTP(S) hosts receive the token, for example
	// "github.com" or "*.example.com". Empty allows every host.
	AllowedHosts []string `yaml:"allowed_hosts" json:"allowed_hosts,omitempty"`
}

// LogConfig configures the log sink.
type LogConfig struct {
	Level  string `yaml:"level" json:"level,omitempty"`
	Format string `yaml:"format" json:"format,omitempty"`
	Color  string `yaml:"color" json:"color,omitempty"`
}

// IdentityConfig names the author of commits gitsync creates itself.
type IdentityConfig struct {
	Name  string `yaml:"name" json:"name,omitempty"`
	Email string `yaml:"email" json:"email,omitempty"`
}

// CommitConfig configures Commit.
type CommitConfig struct {
	DefaultName  string `yaml:"default_name" json:"default_name,omitempty"`
	DefaultEmail string `yaml:"default_email" json:"default_email,omitempty"`

	// Conventional rejects messages that are not Conventional Commits.
	Conventional bool `yaml:"conventional" json:"conventional,omitempty"`
}

// CheckoutConfig configures Checkout.
type CheckoutConfig struct {
	// SemverTags resolves version constraints such as "^1.2" to tags.
	SemverTags bool `yaml:"semver_tags" json:"semver_tags,omitempty"`
}

// DiffConfig configures pull summaries.
type DiffConfig struct {
	SummaryLimit int `yaml:"summary_limit" json:"summary_limit,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset field with its default.
func (c *Config) ApplyDefaults() {
	if c.Root == "" {
		c.Root = filepath.Join(xdg.DataHome, AppName)
	}
	if c.Token.Source == "" {
		c.Token.Source = TokenSourceFile
	}
	if c.Token.File == "" {
		c.Token.File = DefaultTokenFile
	}
	if c.Workers == 0 {
		c.Workers = DefaultWorkers
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Color == "" {
		c.Log.Color = "auto"
	}
	if c.Diff.SummaryLimit == 0 {
		c.Diff.SummaryLimit = DefaultSummaryLimit
	}
}

var (
	tokenSources = []string{TokenSourceFile, TokenSourceAWS, TokenSourceNone}
	logLevels    = []string{"info", "success", "warn", "warning", "error"}
	logFormats   = []string{"console", "json"}
	colorModes   = []string{"auto", "always", "never"}
)

// Validate reports every invalid field in one error.
func (c *Config) Validate() error {
	var problems []string

	if c.Version != "" {
		ok, err := IsCompatible(c.Version)
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case !ok:
			return fmt.Errorf("%w: %s is not compatible with %s", ErrIncompatibleVersion, c.Version, SchemaVersion)
		}
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers must not be negative, got %d", c.Workers))
	}
	if c.Diff.SummaryLimit < 0 {
		problems = append(problems, fmt.Sprintf("diff.summary_limit must not be negative, got %d", c.Diff.SummaryLimit))
	}
	if !oneOf(c.Token.Source, tokenSources) {
		problems = append(problems, fmt.Sprintf("token.source must be one of %s, got %q",
			strings.Join(tokenSources, ", "), c.Token.Source))
	}
	if c.Token.Source == TokenSourceAWS && c.Token.SecretID == "" {
		problems = append(problems, "token.secret_id is required when token.source is aws")
	}
	for _, h := range c.Token.AllowedHosts {
		if !validHostPattern(h) {
			problems = append(problems, fmt.Sprintf("token.allowed_hosts: %q must be a host with at most a leading \"*.\" or trailing \".*\"", h))
		}
	}
	if !oneOf(c.Log.Level, logLevels) {
		problems = append(problems, fmt.Sprintf("log.level must be one of %s, got %q",
			strings.Join(logLevels, ", "), c.Log.Level))
	}
	if !oneOf(c.Log.Format, logFormats) {
		problems = append(problems, fmt.Sprintf("log.format must be one of %s, got %q",
			strings.Join(logFormats, ", "), c.Log.Format))
	}
	if !oneOf(c.Log.Color, colorModes) {
		problems = append(problems, fmt.Sprintf("log.color must be one of %s, got %q",
			strings.Join(colorModes, ", "), c.Log.Color))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// validHostPattern accepts a plain host or one with a single leading "*."
// or trailing ".*" wildcard.
func validHostPattern(p string) bool {
	switch strings.Count(p, "*") {
	case 0:
		return p != ""
	case 1:
		return len(p) > 2 && (strings.HasPrefix(p, "*.") || strings.HasSuffix(p, ".*"))
	default:
		return false
	}
}

// TokenPath returns the token file path, resolved against Root.
func (c *Config) TokenPath() string {
	if filepath.IsAbs(c.Token.File) {
		return c.Token.File
	}
	return filepath.Join(c.Root, c.Token.File)
}

func oneOf(v string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(v))
}
