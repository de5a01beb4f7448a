// Package config loads crev's configuration from a CUE file, the same way
// the codebase this project grew out of loads its own tool configuration:
// build a CUE instance, look up a top-level block, and JSON-roundtrip it
// into a typed struct, falling back to defaults when the file is absent.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	crerrors "github.com/ThomasdenH/crev/internal/errors"
	"github.com/ThomasdenH/crev/internal/trustset"
)

const (
	// DefaultConfigDir is the default location of crev.cue.
	DefaultConfigDir = "~/.config/crev"
	// DefaultDataDir is the default location of the local proof store clone.
	DefaultDataDir = "~/.local/share/crev/proofs"
	// ConfigFileName is the CUE file name within the config directory.
	ConfigFileName = "crev.cue"
)

// Config is crev's loaded configuration.
type Config struct {
	// TrustDistanceParams controls TrustSetResolver's traversal.
	TrustDistanceParams trustset.TrustDistanceParams `json:"trustDistanceParams"`
	// ProofRepoURL is the remote the ProofStore clones/pulls/pushes.
	ProofRepoURL string `json:"proofRepoUrl"`
	// ProofRepoPath is the local clone path of the proof store.
	ProofRepoPath string `json:"proofRepoPath"`
	// IgnoreList is additional directory-digest ignore entries, layered
	// onto digest.DefaultIgnore.
	IgnoreList []string `json:"ignoreList,omitempty"`
}

// Default returns the built-in configuration used when crev.cue is absent.
func Default() *Config {
	return &Config{
		TrustDistanceParams: trustset.DefaultTrustDistanceParams(),
		ProofRepoPath:       DefaultDataDir,
	}
}

// Load loads configuration from configDir/crev.cue. It returns the default
// configuration if the file does not exist.
func Load(configDir string) (*Config, error) {
	configDir = expandTilde(configDir)
	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Default(), nil
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{ConfigFileName}, &load.Config{Dir: configDir})
	if len(instances) == 0 {
		return Default(), nil
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, crerrors.Wrap(crerrors.CodeConfigInvalid, "load "+ConfigFileName, inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if value.Err() != nil {
		return nil, crerrors.Wrap(crerrors.CodeConfigInvalid, "build "+ConfigFileName, value.Err())
	}

	configValue := value.LookupPath(cue.ParsePath("config"))
	if !configValue.Exists() {
		return Default(), nil
	}

	cfg := Default()
	jsonBytes, err := configValue.MarshalJSON()
	if err != nil {
		return nil, crerrors.Wrap(crerrors.CodeConfigInvalid, "marshal config", err)
	}
	if err := json.Unmarshal(jsonBytes, cfg); err != nil {
		return nil, crerrors.Wrap(crerrors.CodeConfigInvalid, "unmarshal config", err)
	}

	cfg.ProofRepoPath = expandTilde(cfg.ProofRepoPath)
	return cfg, nil
}

// expandTilde replaces a leading ~/ with the user's home directory.
func expandTilde(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}
