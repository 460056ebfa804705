package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/aerofit-cli/internal/config"
	"github.com/KaramelBytes/aerofit-cli/internal/logger"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "aerofit",
	Short: "Aerofit CLI: profile treadmill purchasers and report buyer segments",
	Long: `Aerofit loads the treadmill purchase dataset (CSV, TSV, XLSX or Arrow IPC) and produces
descriptive statistics per product, contingency and conditional probability tables,
correlations, IQR outliers, charts and a report.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.aerofit/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so config set can repair a bad file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	l, _, err := logger.Init(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; using info\n", err)
		l, _, _ = logger.Init("info")
	}
	log = l
}

// settings returns the loaded configuration, or defaults when none was loaded.
func settings() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}
