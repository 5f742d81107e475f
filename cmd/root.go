package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/parkos/parkos/sim"
)

// configPath is the optional YAML/JSON config file. The remaining persistent
// flags have no backing variables: loadConfig reads them through viper so the
// config file and PARKOS_* environment variables can supply them too.
var configPath string

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "parkos",
	Short: "Simulated smart-parking assignment workflow",
	Long: `parkos resolves a destination to a parking hub, simulates a demand
forecast that either commits immediately or defers for a pooling wait, and
locks a shared parking spot with a synthesized walking distance.`,
	SilenceUsage: true,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mustConfig loads the layered configuration for cmd and applies the log
// level. Invalid values are fatal.
func mustConfig(cmd *cobra.Command) Config {
	cfg, err := loadConfig(cmd.Flags(), configPath)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", cfg.LogLevel)
	}
	logrus.SetLevel(level)
	return cfg
}

// init sets up CLI flags and subcommands
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (keys match flag names)")
	pf.String("log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	pf.Int64("seed", 0, "Seed for forecast and assignment draws (0 = derive from wall clock)")
	pf.String("registry", "", "Hub registry YAML (default: built-in Jiefangbei registry)")
	pf.Duration("feasibility-delay", sim.DefaultFeasibilityDelay, "Delay before the feasibility check passes")
	pf.Duration("inference-delay", sim.DefaultInferenceDelay, "Delay of the simulated demand model")
	pf.Duration("tick", sim.DefaultTickPeriod, "Wait tick period while a request is deferred")
	pf.Float64("max-wait", 0, "Cap on deferred waits in seconds, 0 or within [1, 8]")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(hubsCmd)
	rootCmd.AddCommand(serveCmd)
}
