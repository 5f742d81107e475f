package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/parkos/parkos/sim"
)

const envPrefix = "PARKOS"

// Config is the resolved configuration after layering, highest first:
// explicitly set flags, PARKOS_* environment variables, the config file,
// then flag defaults.
type Config struct {
	LogLevel         string
	Seed             int64
	RegistryPath     string
	FeasibilityDelay time.Duration
	InferenceDelay   time.Duration
	TickPeriod       time.Duration
	MaxWaitSeconds   float64
	Listen           string
	KafkaBrokers     []string
	KafkaTopic       string
}

// loadConfig binds flags into a fresh viper instance and reads the result.
func loadConfig(flags *pflag.FlagSet, path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, fmt.Errorf("binding flags: %w", err)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		logrus.Debugf("config file: %s", v.ConfigFileUsed())
	}

	cfg := Config{
		LogLevel:         v.GetString("log"),
		Seed:             v.GetInt64("seed"),
		RegistryPath:     v.GetString("registry"),
		FeasibilityDelay: v.GetDuration("feasibility-delay"),
		InferenceDelay:   v.GetDuration("inference-delay"),
		TickPeriod:       v.GetDuration("tick"),
		MaxWaitSeconds:   v.GetFloat64("max-wait"),
		Listen:           v.GetString("listen"),
		KafkaBrokers:     splitList(v.GetStringSlice("kafka-brokers")),
		KafkaTopic:       v.GetString("kafka-topic"),
	}
	if err := cfg.SessionConfig().Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SessionConfig extracts the orchestrator settings.
func (c Config) SessionConfig() sim.SessionConfig {
	return sim.SessionConfig{
		FeasibilityDelay: c.FeasibilityDelay,
		InferenceDelay:   c.InferenceDelay,
		TickPeriod:       c.TickPeriod,
		MaxWaitSeconds:   c.MaxWaitSeconds,
	}
}

// Registry loads the configured registry file, or the built-in one.
func (c Config) Registry() (*sim.Registry, error) {
	if c.RegistryPath == "" {
		return sim.DefaultRegistry(), nil
	}
	return sim.LoadRegistry(c.RegistryPath)
}

// resolveSeed substitutes a wall-clock seed for 0 and logs the seed in use
// so a run can be replayed.
func resolveSeed(seed int64) int64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logrus.Infof("Using seed %d", seed)
	return seed
}

// newSession wires a session from cfg over the given scheduler.
func newSession(cfg Config, scheduler sim.Scheduler) (*sim.Session, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(resolveSeed(cfg.Seed)))
	return sim.NewSession(reg, scheduler, rng, cfg.SessionConfig())
}

// splitList flattens comma-separated entries; env values arrive as one string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
