package zpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfskit/zfskit/pkg/config"
	"github.com/zfskit/zfskit/pkg/models"
	"github.com/zfskit/zfskit/pkg/parser"
	"github.com/zfskit/zfskit/pkg/topology"
)

func testConfig() *config.Config {
	return &config.Config{
		Mode:           "test",
		ZpoolStatusCmd: []string{"cat", "testdata/zpool_status.txt"},
		ZpoolListCmd:   []string{"cat", "testdata/zpool_list.txt"},
		ZpoolCmd:       []string{"true"},
	}
}

func TestStatus(t *testing.T) {
	cfg := testConfig()
	cfg.ZpoolStatusCmd = []string{"cat", "testdata/zpool_import.txt"}
	m := NewManager(cfg)

	pool, err := m.Status("exported")
	require.NoError(t, err)

	assert.Equal(t, "exported", pool.Name)
	assert.Equal(t, models.Online, pool.Health)
	require.NotNil(t, pool.ID)
	assert.Equal(t, uint64(3364973538352047455), *pool.ID)
	assert.Len(t, pool.Vdevs, 2)
}

func TestStatusAll(t *testing.T) {
	m := NewManager(testConfig())

	pools, err := m.StatusAll()
	require.NoError(t, err)
	require.Len(t, pools, 2)

	storage := pools[0]
	assert.Equal(t, "storage", storage.Name)
	assert.Equal(t, models.Degraded, storage.Health)
	require.Len(t, storage.Vdevs, 1)
	assert.Equal(t, models.KindMirror, storage.Vdevs[0].Kind)
	assert.Len(t, storage.Logs, 1)
	assert.Len(t, storage.Caches, 1)
	assert.Empty(t, storage.Errors)

	tank := pools[1]
	assert.Equal(t, "tank", tank.Name)
	assert.Equal(t, models.Online, tank.Health)
	assert.Len(t, tank.Vdevs, 2)
}

func TestStatusAllNoPools(t *testing.T) {
	cfg := testConfig()
	cfg.ZpoolStatusCmd = []string{"echo", "no pools available"}
	m := NewManager(cfg)

	pools, err := m.StatusAll()
	require.NoError(t, err)
	assert.Nil(t, pools)
}

func TestAvailable(t *testing.T) {
	cfg := testConfig()
	cfg.ZpoolStatusCmd = []string{"cat", "testdata/zpool_import.txt"}
	m := NewManager(cfg)

	pools, err := m.Available()
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, "exported", pools[0].Name)
	require.NotNil(t, pools[0].ID)
}

func TestList(t *testing.T) {
	m := NewManager(testConfig())

	entries, err := m.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, PoolListEntry{
		Name: "storage", Size: "928G", Alloc: "411G", Free: "517G", Cap: "44%",
		Health: models.Degraded,
	}, entries[0])
	assert.Equal(t, "tank", entries[1].Name)
	assert.Equal(t, models.Online, entries[1].Health)
}

func TestListMalformed(t *testing.T) {
	cfg := testConfig()
	cfg.ZpoolListCmd = []string{"echo", "just-one-field"}
	m := NewManager(cfg)

	_, err := m.List()
	require.Error(t, err)

	var malformed *parser.MalformedError
	assert.True(t, errors.As(err, &malformed))
}

func TestCreateDryRun(t *testing.T) {
	cfg := &config.Config{Mode: "direct", DryRun: true, ZpoolCmd: []string{"zpool"}}
	m := NewManager(cfg)

	req := topology.CreateRequest{
		Name:  "tank",
		Vdevs: []topology.VdevSpec{topology.Mirror("/dev/da0", "/dev/da1")},
	}
	assert.NoError(t, m.Create(req, false))
}

func TestCreateRejectsInvalidTopology(t *testing.T) {
	// Validation runs before dry-run short-circuits anything.
	cfg := &config.Config{Mode: "direct", DryRun: true, ZpoolCmd: []string{"zpool"}}
	m := NewManager(cfg)

	err := m.Create(topology.CreateRequest{Name: "tank"}, false)
	require.Error(t, err)

	var empty *topology.EmptyTopologyError
	assert.True(t, errors.As(err, &empty))
}

func TestAddRejectsInvalidTopology(t *testing.T) {
	cfg := &config.Config{Mode: "direct", DryRun: true, ZpoolCmd: []string{"zpool"}}
	m := NewManager(cfg)

	err := m.Add("tank", []topology.VdevSpec{topology.Mirror("/dev/da0")}, false)
	require.Error(t, err)

	var insufficient *topology.InsufficientDevicesError
	assert.True(t, errors.As(err, &insufficient))
}

func TestDestroyCommandError(t *testing.T) {
	cfg := &config.Config{Mode: "direct", ZpoolCmd: []string{"sh", "-c", "echo boom >&2; exit 2"}}
	m := NewManager(cfg)

	err := m.Destroy("tank", false)
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Contains(t, cmdErr.Stderr, "boom")
}

func TestExists(t *testing.T) {
	cfg := &config.Config{Mode: "direct", ZpoolCmd: []string{"true"}}
	m := NewManager(cfg)

	ok, err := m.Exists("tank")
	require.NoError(t, err)
	assert.True(t, ok)

	// Exit code 1 means no such pool, not a failure.
	cfg.ZpoolCmd = []string{"sh", "-c", "exit 1"}
	ok, err = m.Exists("tank")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsPoolHealthy(t *testing.T) {
	cfg := testConfig()
	cfg.ZpoolStatusCmd = []string{"cat", "testdata/zpool_import.txt"}
	m := NewManager(cfg)

	healthy, err := m.IsPoolHealthy("exported")
	require.NoError(t, err)
	assert.True(t, healthy)
}
