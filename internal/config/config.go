package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// GroupConfig describes one experimental cohort: the school running it, the
// EC level it targets, and the color its series are drawn with.
type GroupConfig struct {
	Name     string  `mapstructure:"name" yaml:"name"`
	TargetEC float64 `mapstructure:"target_ec" yaml:"target_ec"`
	Color    string  `mapstructure:"color" yaml:"color"`
}

// Global configuration structure.
type Global struct {
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir"`
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ReportTitle string `mapstructure:"report_title" yaml:"report_title"`

	Groups []GroupConfig `mapstructure:"groups" yaml:"groups"`

	// Column labels used in the growth workbook sheets. The source data is
	// entered by hand in Korean with units in the header.
	WeightColumn string `mapstructure:"weight_column" yaml:"weight_column"`
	LeafColumn   string `mapstructure:"leaf_column" yaml:"leaf_column"`
	ShootColumn  string `mapstructure:"shoot_column" yaml:"shoot_column"`
}

// DefaultGroups returns the four participating schools with their assigned
// target EC levels and chart colors.
func DefaultGroups() []GroupConfig {
	return []GroupConfig{
		{Name: "송도고", TargetEC: 1.0, Color: "#1f77b4"},
		{Name: "하늘고", TargetEC: 2.0, Color: "#2ca02c"},
		{Name: "아라고", TargetEC: 4.0, Color: "#ff7f0e"},
		{Name: "동산고", TargetEC: 8.0, Color: "#d62728"},
	}
}

// Default returns the built-in configuration, as used when no config file
// overrides it.
func Default() *Global {
	return &Global{
		DataDir:      "data",
		ListenAddr:   ":8090",
		ReportTitle:  "극지식물 최적 EC 농도 연구",
		Groups:       DefaultGroups(),
		WeightColumn: "생중량(g)",
		LeafColumn:   "잎 수(장)",
		ShootColumn:  "지상부 길이(mm)",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.ecdash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".ecdash")
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
	v.SetEnvPrefix("ECDASH")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data_dir", "data")
	v.SetDefault("listen_addr", ":8090")
	v.SetDefault("report_title", "극지식물 최적 EC 농도 연구")
	v.SetDefault("weight_column", "생중량(g)")
	v.SetDefault("leaf_column", "잎 수(장)")
	v.SetDefault("shoot_column", "지상부 길이(mm)")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".ecdash")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if len(c.Groups) == 0 {
		c.Groups = DefaultGroups()
	}
	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the pipeline cannot aggregate over:
// unnamed or duplicate groups, and non-positive target EC levels.
func Validate(c *Global) error {
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		if g.Name == "" {
			return fmt.Errorf("validate config: group with empty name")
		}
		if seen[g.Name] {
			return fmt.Errorf("validate config: duplicate group %q", g.Name)
		}
		seen[g.Name] = true
		if g.TargetEC <= 0 {
			return fmt.Errorf("validate config: group %q: target_ec must be positive, got %v", g.Name, g.TargetEC)
		}
	}
	return nil
}

// Group returns the configuration entry for the named group, or false when
// the group is not configured.
func (c *Global) Group(name string) (GroupConfig, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupConfig{}, false
}

// GroupNames returns group names in configuration order. This order is the
// canonical iteration order everywhere downstream, so tie-breaks in
// best-group selection stay deterministic.
func (c *Global) GroupNames() []string {
	names := make([]string, 0, len(c.Groups))
	for _, g := range c.Groups {
		names = append(names, g.Name)
	}
	return names
}
