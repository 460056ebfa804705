package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/aerofit-cli/internal/config"
	"github.com/KaramelBytes/aerofit-cli/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set Aerofit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "data_path: %s\n", c.DataPath)
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "figures_dir: %s\n", c.FiguresDir)
		fmt.Fprintf(out, "iqr_multiplier: %g\n", c.IQRMultiplier)
		fmt.Fprintf(out, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(out, "charts: %t\n", c.Charts)
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		if c.MetricsFile != "" {
			fmt.Fprintf(out, "metrics_file: %s\n", c.MetricsFile)
		}
		fmt.Fprintf(out, "decimal_separator: %s\n", c.DecimalSeparator)
		if c.ThousandsSeparator != "" {
			fmt.Fprintf(out, "thousands_separator: %s\n", c.ThousandsSeparator)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "data_path":
		c.DataPath = val
	case "output_dir":
		c.OutputDir = val
	case "figures_dir":
		c.FiguresDir = val
	case "iqr_multiplier":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || !(f > 0) {
			return fmt.Errorf("invalid positive float for iqr_multiplier: %v", val)
		}
		c.IQRMultiplier = f
	case "sample_rows":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for sample_rows: %v", val)
		}
		c.SampleRows = i
	case "charts":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for charts: %w", err)
		}
		c.Charts = b
	case "log_level":
		if _, err := logger.ParseLevel(val); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(val)
	case "metrics_file":
		c.MetricsFile = val
	case "decimal_separator":
		switch strings.ToLower(val) {
		case ".", "dot":
			c.DecimalSeparator = "."
		case ",", "comma":
			c.DecimalSeparator = ","
		default:
			return fmt.Errorf("invalid decimal_separator: %s (use '.' or ',')", val)
		}
	case "thousands_separator":
		switch strings.ToLower(val) {
		case ",", ".", "space", "":
			c.ThousandsSeparator = strings.ToLower(val)
		case " ":
			c.ThousandsSeparator = "space"
		default:
			return fmt.Errorf("invalid thousands_separator: %s (use ',', '.' or space)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
