// Package config defines the shared config.json record of §6 (Config) and
// its load/marshal helpers. It holds no runtime-only settings: worker-pool
// size, refresh intervals, guard-rail thresholds and retry counts are set
// by the packages that use them.
package config

import (
	"encoding/json"
	"os"
)

// SchemaVersion is bumped whenever the on-disk Config shape changes
// incompatibly; a mismatched version is the one persistence failure mode
// that is allowed to abort startup (§7 "Propagation").
const SchemaVersion = 1

// Draft is the in-progress UI input state persisted so a reload doesn't
// lose an unsent keystroke.
type Draft struct {
	InputText     string `json:"input_text"`
	Cursor        int    `json:"cursor"`
	SelectedPanel string `json:"selected_panel,omitempty"`
}

// Config is the shared config.json record (§6): schema version, current
// owner PID, active theme, UI draft, global UID counter, and per-module
// global payloads keyed by module name.
type Config struct {
	SchemaVersion int    `json:"schema_version"`
	OwnerPID      int    `json:"owner_pid"`
	Theme         string `json:"theme,omitempty"`
	Draft         Draft  `json:"draft"`
	UIDCounter    uint64 `json:"uid_counter"`

	ModulePayloads map[string]json.RawMessage `json:"module_payloads,omitempty"`
}

// Default returns a freshly-initialized Config for a new state directory.
func Default() Config {
	return Config{
		SchemaVersion:  SchemaVersion,
		Theme:          "default",
		ModulePayloads: map[string]json.RawMessage{},
	}
}

// Load reads and parses path. A missing file is not an error: it returns
// Default() so first-run bootstrap proceeds without a pre-existing
// directory.
func Load(path string) (Config, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, err
	}
	var c Config
	if err := json.Unmarshal(bytes, &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Marshal serializes c for a WriteOp, pure CPU work performed on the
// event-loop thread per §4.3's build-side contract.
func (c Config) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
