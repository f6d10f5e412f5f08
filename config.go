package archtable

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds process-wide configuration for the table engine, following
// this codebase's global-singleton style for cross-cutting policy.
var Config config = config{
	engine: EngineConfig{
		DirtyTrackingDefault: 1,
	},
}

type config struct {
	engine EngineConfig
}

// SetEngineConfig installs engine-wide tuning knobs.
func (c *config) SetEngineConfig(ec EngineConfig) {
	c.engine = ec
}

// EngineConfig carries tuning knobs that don't change the engine's
// semantics, only its performance characteristics and assertion strictness.
// It is TOML-loadable so an embedding host can tune the engine without a
// recompile.
type EngineConfig struct {
	// InitialColumnCapacity is the element capacity newly appended tables
	// reserve on their first entity, amortising the first few growths.
	InitialColumnCapacity int32 `toml:"initial_column_capacity"`
	// SanityChecks runs the full invariant sweep after every mutating
	// call. Expensive; mirrors flecs' FLECS_SANITIZE build flag, off by
	// default for the same reason.
	SanityChecks bool `toml:"sanity_checks"`
	// DirtyTrackingDefault is the initial value every dirty_state slot gets
	// when it is first allocated, so that a query's "unseen" sentinel of 0
	// can never alias a freshly allocated column.
	DirtyTrackingDefault uint32 `toml:"dirty_tracking_default"`
}

// LoadEngineConfig reads an EngineConfig from a TOML file at path, starting
// from the current Config.engine so unset fields fall back to their current
// values.
func LoadEngineConfig(path string) (EngineConfig, error) {
	ec := Config.engine
	data, err := os.ReadFile(path)
	if err != nil {
		return ec, err
	}
	if err := toml.Unmarshal(data, &ec); err != nil {
		return ec, err
	}
	return ec, nil
}
