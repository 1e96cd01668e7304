package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, filepath.Join(xdg.DataHome, AppName), cfg.Root)
	assert.Equal(t, TokenSourceFile, cfg.Token.Source)
	assert.Equal(t, DefaultTokenFile, cfg.Token.File)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "auto", cfg.Log.Color)
	assert.Equal(t, DefaultSummaryLimit, cfg.Diff.SummaryLimit)
	assert.False(t, cfg.InsecureSkipTLS)
	assert.NoError(t, cfg.Validate())
}

func TestTokenPath(t *testing.T) {
	cfg := &Config{Root: "/srv/app", Token: TokenConfig{File: "git.token"}}
	assert.Equal(t, "/srv/app/git.token", cfg.TokenPath())

	cfg.Token.File = "/etc/gitsync/token"
	assert.Equal(t, "/etc/gitsync/token", cfg.TokenPath())
}

func TestParseYAML(t *testing.T) {
	data := []byte(`
version: 0.1.2
root: /srv/app
token:
  source: aws
  secret_id: prod/git
  region: eu-central-1
  allowed_hosts:
    - github.com
    - "*.example.com"
insecure_skip_tls: true
workers: 8
log:
  level: warn
  format: json
  color: never
merge:
  name: Sync Bot
  email: bot@example.com
commit:
  default_name: Server
  default_email: server@example.com
  conventional: true
checkout:
  semver_tags: true
diff:
  summary_limit: 50
`)

	cfg, err := Parse("config.yaml", data)
	require.NoError(t, err)

	assert.Equal(t, &Config{
		Version: "0.1.2",
		Root:    "/srv/app",
		Token: TokenConfig{
			Source:       TokenSourceAWS,
			File:         DefaultTokenFile,
			SecretID:     "prod/git",
			Region:       "eu-central-1",
			AllowedHosts: []string{"github.com", "*.example.com"},
		},
		InsecureSkipTLS: true,
		Workers:         8,
		Log:             LogConfig{Level: "warn", Format: "json", Color: "never"},
		Merge:           IdentityConfig{Name: "Sync Bot", Email: "bot@example.com"},
		Commit: CommitConfig{
			DefaultName:  "Server",
			DefaultEmail: "server@example.com",
			Conventional: true,
		},
		Checkout: CheckoutConfig{SemverTags: true},
		Diff:     DiffConfig{SummaryLimit: 50},
	}, cfg)
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		is   error
	}{
		{name: "unknown field", data: "wrokers: 2\n"},
		{name: "wrong type", data: "workers: many\n"},
		{name: "invalid value", data: "log:\n  format: xml\n", is: ErrInvalidConfig},
		{name: "incompatible version", data: "version: 1.0.0\n", is: ErrIncompatibleVersion},
		{name: "malformed version", data: "version: latest\n", is: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("config.yml", []byte(tt.data))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseEmptyYAML(t *testing.T) {
	cfg, err := Parse("config.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseCUE(t *testing.T) {
	data := []byte(`
root: "/srv/app"
workers: 2
token: {
	source: "none"
}
log: level: "error"
merge: {
	name:  "Sync Bot"
	email: "bot@example.com"
}
diff: summary_limit: 10
`)

	cfg, err := Parse("config.cue", data)
	require.NoError(t, err)

	assert.Equal(t, "/srv/app", cfg.Root)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, TokenSourceNone, cfg.Token.Source)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format, "unset fields keep their defaults")
	assert.Equal(t, "Sync Bot", cfg.Merge.Name)
	assert.Equal(t, 10, cfg.Diff.SummaryLimit)
}

func TestParseCUEErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		is   error
	}{
		{name: "syntax", data: `workers: `},
		{name: "unknown field", data: `wrokers: 2`, is: ErrInvalidConfig},
		{name: "enum violation", data: `log: level: "loud"`, is: ErrInvalidConfig},
		{name: "negative workers", data: `workers: -1`, is: ErrInvalidConfig},
		{name: "aws without secret", data: `token: source: "aws"`, is: ErrInvalidConfig},
		{name: "allowed host not a string", data: `token: allowed_hosts: [1]`, is: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("config.cue", []byte(tt.data))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, err := Parse("config.toml", []byte("workers = 2"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{name: "defaults", mutate: func(*Config) {}, valid: true},
		{name: "upper case level", mutate: func(c *Config) { c.Log.Level = "WARN" }, valid: true},
		{name: "aws with secret", mutate: func(c *Config) {
			c.Token.Source = TokenSourceAWS
			c.Token.SecretID = "git"
		}, valid: true},
		{name: "negative workers", mutate: func(c *Config) { c.Workers = -1 }},
		{name: "negative limit", mutate: func(c *Config) { c.Diff.SummaryLimit = -5 }},
		{name: "unknown source", mutate: func(c *Config) { c.Token.Source = "vault" }},
		{name: "aws without secret", mutate: func(c *Config) { c.Token.Source = TokenSourceAWS }},
		{name: "allowed host patterns", mutate: func(c *Config) {
			c.Token.AllowedHosts = []string{"github.com", "*.example.com", "gitlab.*"}
		}, valid: true},
		{name: "bad host pattern", mutate: func(c *Config) { c.Token.AllowedHosts = []string{"git*hub.com"} }},
		{name: "empty host pattern", mutate: func(c *Config) { c.Token.AllowedHosts = []string{""} }},
		{name: "unknown level", mutate: func(c *Config) { c.Log.Level = "trace" }},
		{name: "unknown format", mutate: func(c *Config) { c.Log.Format = "xml" }},
		{name: "unknown color", mutate: func(c *Config) { c.Log.Color = "sometimes" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Workers = -1
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers")
	assert.Contains(t, err.Error(), "log.format")
}

func TestLoadFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "etc/gitsync.yaml", []byte("workers: 3\n"), 0o644))

	cfg, err := LoadFS(fs, "etc/gitsync.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)

	_, err = LoadFS(fs, "etc/missing.yaml")
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.cue")
	require.NoError(t, os.WriteFile(path, []byte(`workers: 6`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDiscover(t *testing.T) {
	// Registered first so it runs after the environment is restored.
	t.Cleanup(xdg.Reload)

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	xdg.Reload()

	t.Run("nothing found", func(t *testing.T) {
		cfg, path, err := Discover()
		require.NoError(t, err)
		assert.Empty(t, path)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("yaml in config home", func(t *testing.T) {
		dir := filepath.Join(home, AppName)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		want := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(want, []byte("workers: 5\n"), 0o644))

		cfg, path, err := Discover()
		require.NoError(t, err)
		assert.Equal(t, want, path)
		assert.Equal(t, 5, cfg.Workers)
	})
}

func TestIsCompatible(t *testing.T) {
	tests := []struct {
		version string
		want    bool
		wantErr bool
	}{
		{version: "0.1.0", want: true},
		{version: "0.1.9", want: true},
		{version: "0.2.0", want: false},
		{version: "1.0.0", want: false},
		{version: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			got, err := IsCompatible(tt.version)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
