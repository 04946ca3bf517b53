// Package pipeline implements pipeline mode: the TOML config file,
// bin-file placeholder substitution, and the dependency-ordered
// resolver that mines each target in turn.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"

	"github.com/KONFeature/create2crunch/pkg/types"
)

// placeholderPattern matches ${IDENT} references in bin file hex text.
var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)\}`)

// StopThresholdsConfig is the TOML shape of a target's stop criterion.
type StopThresholdsConfig struct {
	LeadingZeroes *uint8 `toml:"leading_zeroes"`
	TotalZeroes   *uint8 `toml:"total_zeroes"`
}

// TargetConfig is the TOML shape of one [[targets]] entry.
type TargetConfig struct {
	Name            string                `toml:"name"`
	PlaceholderName string                `toml:"placeholder_name"`
	StopThresholds  *StopThresholdsConfig `toml:"stop_thresholds"`
}

// ConfigFile is the decoded pipeline config.toml.
type ConfigFile struct {
	BinFolder      string         `toml:"bin_folder"`
	FactoryAddress string         `toml:"factory_address"`
	CallingAddress string         `toml:"calling_address"`
	GPUDevice      *uint8         `toml:"gpu_device"`
	Targets        []TargetConfig `toml:"targets"`
}

// LoadConfigFile reads and validates a pipeline config.toml at path.
func LoadConfigFile(path string) (*ConfigFile, error) {
	var cfg ConfigFile
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if info, err := os.Stat(cfg.BinFolder); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("bin folder %q does not exist", cfg.BinFolder)
	}

	for _, t := range cfg.Targets {
		binPath := filepath.Join(cfg.BinFolder, t.Name)
		if _, err := os.Stat(binPath); err != nil {
			return nil, fmt.Errorf("bin file %q does not exist", binPath)
		}
	}

	if err := cfg.validateStopPoints(); err != nil {
		return nil, err
	}
	if err := cfg.validatePlaceholders(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validateStopPoints enforces that every target has at least one stop
// criterion and that any criterion present falls within the valid
// bounds (0..=20 for both, plus the 255 "disabled" sentinel for
// total_zeroes), rejected here at config-load time rather than only
// once Resolver.Run reaches that target's mining session.
func (c *ConfigFile) validateStopPoints() error {
	for _, t := range c.Targets {
		if t.StopThresholds == nil ||
			(t.StopThresholds.LeadingZeroes == nil && t.StopThresholds.TotalZeroes == nil) {
			return fmt.Errorf("target %q does not have any stop points defined", t.Name)
		}
		if lz := t.StopThresholds.LeadingZeroes; lz != nil && *lz > 20 {
			return fmt.Errorf("target %q: invalid leading_zeroes %d (valid: 0..=20)", t.Name, *lz)
		}
		if tz := t.StopThresholds.TotalZeroes; tz != nil && *tz > 20 && *tz != types.NoTotalZeroesThreshold {
			return fmt.Errorf("target %q: invalid total_zeroes %d (valid: 0..=20 | 255)", t.Name, *tz)
		}
	}
	return nil
}

// validatePlaceholders enforces the closed-graph invariant: every
// ${NAME} referenced by any bin file must be defined by some target's
// placeholder_name, and no target may reference its own placeholder.
func (c *ConfigFile) validatePlaceholders() error {
	for _, t := range c.Targets {
		binPath := filepath.Join(c.BinFolder, t.Name)
		content, err := os.ReadFile(binPath)
		if err != nil {
			return fmt.Errorf("reading bin file %q: %w", binPath, err)
		}

		for _, match := range placeholderPattern.FindAllStringSubmatch(string(content), -1) {
			placeholder := match[1]

			if t.PlaceholderName == placeholder {
				return fmt.Errorf("circular dependency detected for placeholder %q", placeholder)
			}

			defined := false
			for _, other := range c.Targets {
				if other.PlaceholderName == placeholder {
					defined = true
					break
				}
			}
			if !defined {
				return fmt.Errorf("missing placeholder %q in the target configuration", placeholder)
			}
		}
	}
	return nil
}

// TargetStopThresholds converts a TOML stop-thresholds block into the
// pkg/types shape.
func (t TargetConfig) TargetStopThresholds() types.StopThresholds {
	if t.StopThresholds == nil {
		return types.StopThresholds{}
	}
	return types.StopThresholds{
		LeadingZeroes: t.StopThresholds.LeadingZeroes,
		TotalZeroes:   t.StopThresholds.TotalZeroes,
	}
}
