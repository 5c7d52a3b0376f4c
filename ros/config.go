package ros

import (
	"os"

	"github.com/BurntSushi/toml"
)

// ExecutorConfig holds optional TOML-configurable tuning values: worker
// pool size for a MultiThreadedExecutor, a QoS depth for publishers,
// and a spin timeout in milliseconds. Nothing in this package reads it
// on its own; callers load it and pass the values on themselves (to
// NewMultiThreadedExecutor, CreatePublisher, SpinNodeOnce).
type ExecutorConfig struct {
	Workers      int `toml:"workers"`
	DefaultDepth int `toml:"default_depth"`
	SpinTimeoutMS int `toml:"spin_timeout_ms"`
}

// DefaultExecutorConfig returns the values LoadExecutorConfig starts
// from before applying a config file.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{Workers: 4, DefaultDepth: defaultRingDepth, SpinTimeoutMS: 100}
}

// LoadExecutorConfig reads TOML configuration from path, falling back
// to DefaultExecutorConfig for any field the file leaves unset. When
// path is empty the RCLGO_CONFIG environment variable names the file
// instead; an explicit path always wins over it. A missing file, or no
// path at all, is not an error — the defaults are returned.
func LoadExecutorConfig(path string) (ExecutorConfig, error) {
	cfg := DefaultExecutorConfig()
	if path == "" {
		path = os.Getenv("RCLGO_CONFIG")
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
