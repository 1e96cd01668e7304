package config

import "errors"

var (
	// ErrInvalidConfig is returned when a configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat is returned for file extensions other than .yaml, .yml and .cue.
	ErrUnsupportedFormat = errors.New("unsupported configuration format")

	// ErrIncompatibleVersion is returned when the declared version does not match SchemaVersion.
	ErrIncompatibleVersion = errors.New("incompatible configuration version")
)
