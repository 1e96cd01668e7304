package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// Schema is the CUE definition every .cue configuration is unified with.
//
//go:embed schema.cue
var Schema string

// searchNames are tried in order under the XDG config directories.
var searchNames = []string{"config.yaml", "config.yml", "config.cue"}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(path, data)
}

// LoadFS reads and validates the configuration file at path on fsys.
func LoadFS(fsys billy.Filesystem, path string) (*Config, error) {
	data, err := util.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(path, data)
}

// Discover loads the first configuration file found in the XDG config
// directories. It returns the defaults and an empty path when none exists.
func Discover() (*Config, string, error) {
	for _, name := range searchNames {
		path, err := xdg.SearchConfigFile(filepath.Join(AppName, name))
		if err != nil {
			continue
		}
		cfg, err := Load(path)
		return cfg, path, err
	}
	return Default(), "", nil
}

// Parse decodes data in the format implied by the extension of name, fills
// defaults and validates the result.
func Parse(name string, data []byte) (*Config, error) {
	var (
		cfg Config
		err error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &cfg)
	case ".cue":
		err = decodeCUE(name, data, &cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", name, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeCUE(name string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(Schema, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return err
	}

	v = schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return v.Decode(cfg)
}
