package strategy

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SchemaVersion is the current strategy contract's schema version.
// Bumped whenever the Strategy interface or HyperSpace shape changes
// in a way that invalidates strategies written against an older
// version.
const SchemaVersion = "1.0.0"

// MinSupportedSchemaVersion is the oldest strategy schema version the
// engine still accepts (spec.md never requires migrating strategies
// written against the current contract, only rejecting incompatible
// ones at load time).
const MinSupportedSchemaVersion = "1.0.0"

// CheckCompatible verifies a strategy's declared schema version falls
// within [MinSupportedSchemaVersion, SchemaVersion], grounded in the
// teacher's semver-based migration gate (internal/strategy/version.go)
// but simplified: this engine's Strategy contract carries no legacy
// fields to migrate, so an incompatible version is rejected at load
// time (a ConfigInvalid-class error) instead of silently upgraded.
func CheckCompatible(s Strategy) error {
	v, err := semver.NewVersion(s.SchemaVersion())
	if err != nil {
		return fmt.Errorf("strategy %s: invalid schema version %q: %w", s.Name(), s.SchemaVersion(), err)
	}
	min, err := semver.NewVersion(MinSupportedSchemaVersion)
	if err != nil {
		return fmt.Errorf("internal: invalid MinSupportedSchemaVersion %q: %w", MinSupportedSchemaVersion, err)
	}
	max, err := semver.NewVersion(SchemaVersion)
	if err != nil {
		return fmt.Errorf("internal: invalid SchemaVersion %q: %w", SchemaVersion, err)
	}
	if v.LessThan(min) {
		return fmt.Errorf("strategy %s: schema version %s is older than minimum supported %s", s.Name(), v, min)
	}
	if v.GreaterThan(max) {
		return fmt.Errorf("strategy %s: schema version %s is newer than supported %s", s.Name(), v, max)
	}
	return nil
}
