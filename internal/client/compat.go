package client

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SupportedServiceVersions is the semver range of service versions this
// client speaks to.
const SupportedServiceVersions = ">= 0.1.0, < 2.0.0"

// ErrIncompatibleService is returned when the service version is outside
// SupportedServiceVersions.
var ErrIncompatibleService = errors.New("incompatible service version")

// CheckCompatibility reports whether version satisfies SupportedServiceVersions.
// An empty version is accepted since older services do not report one.
func CheckCompatibility(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: %q has invalid semver format: %w", ErrIncompatibleService, version, err)
	}
	constraint, err := semver.NewConstraint(SupportedServiceVersions)
	if err != nil {
		return fmt.Errorf("parsing constraint: %w", err)
	}
	if !constraint.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %q", ErrIncompatibleService, v, SupportedServiceVersions)
	}
	return nil
}
