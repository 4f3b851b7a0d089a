package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Mode     string // test, direct or chroot
	DryRun   bool
	LogLevel string

	// Pool filtering (empty = all pools).
	PoolWhitelist []string

	// Base commands the managers prepend their subcommands to.
	ZpoolCmd []string
	ZfsCmd   []string

	// Fixture commands used in test mode instead of the real tools.
	ZpoolStatusCmd []string
	ZpoolListCmd   []string
	ZfsListCmd     []string
}

// fileConfig is the optional YAML overlay (ZFSKIT_CONFIG).
type fileConfig struct {
	DryRun        *bool    `yaml:"dry_run"`
	PoolWhitelist []string `yaml:"pool_whitelist"`
	ZpoolCmd      []string `yaml:"zpool_cmd"`
	ZfsCmd        []string `yaml:"zfs_cmd"`
}

// NewConfig creates a configuration for the given mode. Environment is
// loaded from .env when present, then ZPOOL_CMD/ZFS_CMD override the
// tool binaries and an optional YAML file overrides the rest.
func NewConfig(mode string) (*Config, error) {
	// Missing .env is fine; only report real read failures.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Mode:          mode,
		DryRun:        getEnvAsBool("DRY_RUN", false),
		PoolWhitelist: getEnvAsStringSlice("POOL_WHITELIST", []string{}),
	}

	switch mode {
	case "test":
		cfg.ZpoolStatusCmd = []string{"cat", "testdata/zpool_status.txt"}
		cfg.ZpoolListCmd = []string{"cat", "testdata/zpool_list.txt"}
		cfg.ZfsListCmd = []string{"cat", "testdata/zfs_list.txt"}
		cfg.ZpoolCmd = []string{"true"}
		cfg.ZfsCmd = []string{"true"}
	case "chroot":
		cfg.ZpoolCmd = []string{"chroot", "/host", getEnv("ZPOOL_CMD", "/usr/local/sbin/zpool")}
		cfg.ZfsCmd = []string{"chroot", "/host", getEnv("ZFS_CMD", "/usr/local/sbin/zfs")}
	default:
		cfg.ZpoolCmd = []string{getEnv("ZPOOL_CMD", "zpool")}
		cfg.ZfsCmd = []string{getEnv("ZFS_CMD", "zfs")}
	}

	if path := os.Getenv("ZFSKIT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if fc.DryRun != nil {
		c.DryRun = *fc.DryRun
	}
	if len(fc.PoolWhitelist) > 0 {
		c.PoolWhitelist = fc.PoolWhitelist
	}
	if len(fc.ZpoolCmd) > 0 {
		c.ZpoolCmd = fc.ZpoolCmd
	}
	if len(fc.ZfsCmd) > 0 {
		c.ZfsCmd = fc.ZfsCmd
	}
	return nil
}

// IsDebug reports whether debug logging was requested.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsPoolAllowed checks the whitelist; an empty whitelist allows all.
func (c *Config) IsPoolAllowed(poolName string) bool {
	if len(c.PoolWhitelist) == 0 {
		return true
	}
	for _, allowed := range c.PoolWhitelist {
		if allowed == poolName {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice reads an environment variable as a
// comma-separated list, or returns the default value if not set.
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
