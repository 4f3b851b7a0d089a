package zpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zfskit/zfskit/pkg/models"
)

func healthyPool() *models.Zpool {
	return &models.Zpool{
		Name:   "tank",
		Health: models.Online,
		Vdevs: []models.Vdev{
			{
				Kind:   models.KindMirror,
				Health: models.Online,
				Index:  0,
				Disks: []models.Disk{
					{Path: "/dev/da0", Health: models.Online},
					{Path: "/dev/da1", Health: models.Online},
				},
			},
		},
	}
}

func TestEvaluateHealthy(t *testing.T) {
	assert.Empty(t, Evaluate(healthyPool()))
}

func TestEvaluateDegradedPool(t *testing.T) {
	pool := healthyPool()
	pool.Health = models.Degraded

	problems := Evaluate(pool)
	assert.Equal(t, []string{"pool is DEGRADED"}, problems)
}

func TestEvaluateDeviceProblems(t *testing.T) {
	pool := healthyPool()
	pool.Vdevs[0].Disks[1].Health = models.Unavail
	pool.Vdevs[0].Disks[1].Stats = models.ErrorStats{Read: 3}

	problems := Evaluate(pool)
	assert.Contains(t, problems, "device /dev/da1 is UNAVAIL")
	assert.Contains(t, problems, "device /dev/da1 has errors")
}

func TestEvaluatePoolCounters(t *testing.T) {
	pool := healthyPool()
	pool.Stats = models.ErrorStats{Write: 2}

	problems := Evaluate(pool)
	assert.Contains(t, problems, "pool has 0 read, 2 write, 0 checksum errors")
}

func TestEvaluateDataErrors(t *testing.T) {
	pool := healthyPool()
	pool.Errors = "Permanent errors have been detected in the following files:\n/tank/corrupted.bin"

	problems := Evaluate(pool)
	assert.Len(t, problems, 1)
	assert.Contains(t, problems[0], "data errors reported")
}
