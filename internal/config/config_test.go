package config

import (
	"testing"

	"github.com/KONFeature/create2crunch/pkg/types"
)

func TestParseArgsDefaults(t *testing.T) {
	args := []string{
		"0011223344556677889900112233445566778899",
		"1100223344556677889900112233445566778899",
		"aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899",
	}
	cfg, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if cfg.GPUDevice != types.NoGPUDevice {
		t.Errorf("GPUDevice = %d, want %d (default CPU)", cfg.GPUDevice, types.NoGPUDevice)
	}
	if cfg.LeadingZeroesThreshold != DefaultLeadingZeroesThreshold {
		t.Errorf("LeadingZeroesThreshold = %d, want %d", cfg.LeadingZeroesThreshold, DefaultLeadingZeroesThreshold)
	}
	if cfg.TotalZeroesThreshold != DefaultTotalZeroesThreshold {
		t.Errorf("TotalZeroesThreshold = %d, want %d", cfg.TotalZeroesThreshold, DefaultTotalZeroesThreshold)
	}
	if cfg.EarlyStop {
		t.Error("EarlyStop = true, want false for standalone mode")
	}
}

func TestParseArgsOverrides(t *testing.T) {
	args := []string{
		"0011223344556677889900112233445566778899",
		"1100223344556677889900112233445566778899",
		"aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899",
		"0",
		"10",
		"15",
	}
	cfg, err := ParseArgs(args)
	if err != nil {
		t.Fatalf("ParseArgs() error = %v", err)
	}
	if cfg.GPUDevice != 0 {
		t.Errorf("GPUDevice = %d, want 0", cfg.GPUDevice)
	}
	if cfg.LeadingZeroesThreshold != 10 {
		t.Errorf("LeadingZeroesThreshold = %d, want 10", cfg.LeadingZeroesThreshold)
	}
	if cfg.TotalZeroesThreshold != 15 {
		t.Errorf("TotalZeroesThreshold = %d, want 15", cfg.TotalZeroesThreshold)
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "too few arguments", args: []string{"00112233"}},
		{name: "invalid factory hex", args: []string{"zz", "1100223344556677889900112233445566778899", "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"}},
		{name: "leading threshold out of range", args: []string{
			"0011223344556677889900112233445566778899",
			"1100223344556677889900112233445566778899",
			"aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899",
			"255", "21",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseArgs(tt.args); err == nil {
				t.Errorf("ParseArgs(%v) did not error", tt.args)
			}
		})
	}
}
