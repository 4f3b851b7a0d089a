package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigTestMode(t *testing.T) {
	cfg, err := NewConfig("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Mode)
	assert.Equal(t, []string{"cat", "testdata/zpool_status.txt"}, cfg.ZpoolStatusCmd)
	assert.Equal(t, []string{"cat", "testdata/zpool_list.txt"}, cfg.ZpoolListCmd)
	assert.Equal(t, []string{"cat", "testdata/zfs_list.txt"}, cfg.ZfsListCmd)
	assert.Equal(t, []string{"true"}, cfg.ZpoolCmd)
	assert.Equal(t, []string{"true"}, cfg.ZfsCmd)
}

func TestNewConfigDirectMode(t *testing.T) {
	cfg, err := NewConfig("direct")
	require.NoError(t, err)

	assert.Equal(t, []string{"zpool"}, cfg.ZpoolCmd)
	assert.Equal(t, []string{"zfs"}, cfg.ZfsCmd)
}

func TestNewConfigDirectModeEnvOverride(t *testing.T) {
	t.Setenv("ZPOOL_CMD", "/opt/zfs/bin/zpool")
	t.Setenv("ZFS_CMD", "/opt/zfs/bin/zfs")

	cfg, err := NewConfig("direct")
	require.NoError(t, err)

	assert.Equal(t, []string{"/opt/zfs/bin/zpool"}, cfg.ZpoolCmd)
	assert.Equal(t, []string{"/opt/zfs/bin/zfs"}, cfg.ZfsCmd)
}

func TestNewConfigChrootMode(t *testing.T) {
	cfg, err := NewConfig("chroot")
	require.NoError(t, err)

	assert.Equal(t, []string{"chroot", "/host", "/usr/local/sbin/zpool"}, cfg.ZpoolCmd)
	assert.Equal(t, []string{"chroot", "/host", "/usr/local/sbin/zfs"}, cfg.ZfsCmd)
}

func TestNewConfigDryRunEnv(t *testing.T) {
	t.Setenv("DRY_RUN", "true")

	cfg, err := NewConfig("direct")
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
}

func TestNewConfigPoolWhitelistEnv(t *testing.T) {
	t.Setenv("POOL_WHITELIST", "tank, backup ,")

	cfg, err := NewConfig("direct")
	require.NoError(t, err)
	assert.Equal(t, []string{"tank", "backup"}, cfg.PoolWhitelist)
}

func TestNewConfigFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zfskit.yaml")
	data := "dry_run: true\npool_whitelist:\n  - tank\nzpool_cmd:\n  - sudo\n  - zpool\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("ZFSKIT_CONFIG", path)

	cfg, err := NewConfig("direct")
	require.NoError(t, err)

	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"tank"}, cfg.PoolWhitelist)
	assert.Equal(t, []string{"sudo", "zpool"}, cfg.ZpoolCmd)
	// Fields absent from the file keep their mode defaults.
	assert.Equal(t, []string{"zfs"}, cfg.ZfsCmd)
}

func TestNewConfigFileOverlayMissing(t *testing.T) {
	t.Setenv("ZFSKIT_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := NewConfig("direct")
	require.Error(t, err)
}

func TestNewConfigFileOverlayInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dry_run: [unclosed"), 0o644))
	t.Setenv("ZFSKIT_CONFIG", path)

	_, err := NewConfig("direct")
	require.Error(t, err)
}

func TestIsPoolAllowed(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.IsPoolAllowed("anything"), "empty whitelist allows all")

	cfg.PoolWhitelist = []string{"tank", "backup"}
	assert.True(t, cfg.IsPoolAllowed("tank"))
	assert.True(t, cfg.IsPoolAllowed("backup"))
	assert.False(t, cfg.IsPoolAllowed("scratch"))
}

func TestIsDebug(t *testing.T) {
	cfg := &Config{LogLevel: "info"}
	assert.False(t, cfg.IsDebug())
	cfg.LogLevel = "debug"
	assert.True(t, cfg.IsDebug())
}
