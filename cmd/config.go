package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Settings are the run parameters resolved from (lowest to highest
// precedence) built-in defaults, an optional YAML settings file and
// CORESCHED_* environment variables. Explicit CLI flags override all three.
type Settings struct {
	Seed    int64 `mapstructure:"seed"`
	Horizon int64 `mapstructure:"horizon"`

	Cores        int   `mapstructure:"cores"`
	MaxProcesses int   `mapstructure:"max_processes"`
	Quantum      int64 `mapstructure:"quantum"`
	HistorySize  int   `mapstructure:"history_size"`

	Policy       string  `mapstructure:"policy"`
	PolicyBundle string  `mapstructure:"policy_bundle"` // path to a YAML policy bundle
	Workload     string  `mapstructure:"workload"`      // path to a YAML archetype list
	Signal       float64 `mapstructure:"signal"`        // system-wide advisory value

	TraceFile string `mapstructure:"trace_file"` // span output, empty disables tracing
}

// LoadSettings reads the run settings. Env var overrides use prefix
// CORESCHED_, e.g. CORESCHED_QUANTUM=8. A missing settings file is an error
// only when one was named explicitly.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()

	v.SetDefault("seed", 42)
	v.SetDefault("horizon", 1000)
	v.SetDefault("cores", 4)
	v.SetDefault("max_processes", 256)
	v.SetDefault("quantum", 4)
	v.SetDefault("history_size", 1024)
	v.SetDefault("policy", "round-robin")
	v.SetDefault("policy_bundle", "")
	v.SetDefault("workload", "")
	v.SetDefault("signal", 0.35)
	v.SetDefault("trace_file", "")

	v.SetConfigType("yaml")
	v.SetEnvPrefix("CORESCHED")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
