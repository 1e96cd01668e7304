package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the current configuration schema version.
const SchemaVersion = "0.1.0"

// IsCompatible reports whether a configuration written against version can
// be read by this build. Compatibility follows caret semantics, so within
// 0.x only patch releases are compatible.
func IsCompatible(version string) (bool, error) {
	constraint, err := semver.NewConstraint("^" + SchemaVersion)
	if err != nil {
		return false, fmt.Errorf("invalid schema version: %w", err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid config version %q: %w", version, err)
	}

	return constraint.Check(v), nil
}
