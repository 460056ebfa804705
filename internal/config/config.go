package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// DataPath is analyzed when a command is given no file argument.
	DataPath   string `mapstructure:"data_path" yaml:"data_path"`
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	FiguresDir string `mapstructure:"figures_dir" yaml:"figures_dir"`

	IQRMultiplier float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	SampleRows    int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	Charts        bool    `mapstructure:"charts" yaml:"charts"`

	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`

	// Numeric parsing locale: "." or "," for decimals; ",", "." or "space" for thousands.
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
}

// Defaults returns the configuration used when no file or environment overrides exist.
func Defaults() *Global {
	return &Global{
		OutputDir:        "reports",
		FiguresDir:       "figures",
		IQRMultiplier:    1.5,
		SampleRows:       5,
		LogLevel:         "info",
		DecimalSeparator: ".",
	}
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".aerofit"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.aerofit/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("AEROFIT")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("data_path", d.DataPath)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("figures_dir", d.FiguresDir)
	v.SetDefault("iqr_multiplier", d.IQRMultiplier)
	v.SetDefault("sample_rows", d.SampleRows)
	v.SetDefault("charts", d.Charts)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("decimal_separator", d.DecimalSeparator)
	v.SetDefault("thousands_separator", d.ThousandsSeparator)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects values no command could use.
func (c *Global) Validate() error {
	if !(c.IQRMultiplier > 0) {
		return fmt.Errorf("iqr_multiplier must be positive, got %v", c.IQRMultiplier)
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("sample_rows must not be negative, got %d", c.SampleRows)
	}
	return nil
}
