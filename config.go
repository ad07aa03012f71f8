package bfs

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig is the on-disk TOML shape for a Scheduler's tunables, the
// knobs the original exposes as /proc/sys sysctls (rr_interval,
// sched_iso_cpu). Loaded via [LoadConfig] and turned into [Option] values
// by [FileConfig.Options].
type FileConfig struct {
	NumCPUs      int `toml:"num_cpus"`
	RRIntervalMS int `toml:"rr_interval_ms"`
	ISOCPUPercent int `toml:"sched_iso_cpu"`
	OSThreadAffinity bool `toml:"os_thread_affinity"`
}

// LoadConfig reads and decodes a TOML config file.
func LoadConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bfs: LoadConfig: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("bfs: LoadConfig: decode: %w", err)
	}
	return &cfg, nil
}

// Options converts the file config into [Option] values suitable for
// [New]. Zero-valued fields are skipped so callers can layer a FileConfig
// under explicit in-code overrides.
func (c *FileConfig) Options() []Option {
	var opts []Option
	if c.NumCPUs > 0 {
		opts = append(opts, WithNumCPUs(c.NumCPUs))
	}
	if c.RRIntervalMS > 0 {
		opts = append(opts, WithRRInterval(c.RRIntervalMS))
	}
	if c.ISOCPUPercent > 0 {
		opts = append(opts, WithISOCPUPercent(c.ISOCPUPercent))
	}
	if c.OSThreadAffinity {
		opts = append(opts, WithOSThreadAffinity(true))
	}
	return opts
}
