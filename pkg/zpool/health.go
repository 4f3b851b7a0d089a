package zpool

import (
	"fmt"

	"github.com/zfskit/zfskit/pkg/models"
	"k8s.io/klog/v2"
)

// Evaluate inspects a parsed report and returns the list of problems
// that make the pool unsafe for further operations. An empty list
// means the pool is healthy.
func Evaluate(pool *models.Zpool) []string {
	var problems []string

	if pool.Health != models.Online {
		problems = append(problems, fmt.Sprintf("pool is %s", pool.Health))
	}
	if pool.Stats != (models.ErrorStats{}) {
		problems = append(problems, fmt.Sprintf("pool has %d read, %d write, %d checksum errors",
			pool.Stats.Read, pool.Stats.Write, pool.Stats.Checksum))
	}
	if pool.Errors != "" {
		problems = append(problems, fmt.Sprintf("data errors reported: %s", pool.Errors))
	}
	for _, vdev := range pool.Vdevs {
		for _, disk := range vdev.Disks {
			if disk.Health != models.Online {
				problems = append(problems, fmt.Sprintf("device %s is %s", disk.Path, disk.Health))
			}
			if disk.Stats != (models.ErrorStats{}) {
				problems = append(problems, fmt.Sprintf("device %s has errors", disk.Path))
			}
		}
	}
	return problems
}

// IsPoolHealthy checks if a pool is healthy and safe for operations.
func (m *Manager) IsPoolHealthy(name string) (bool, error) {
	pool, err := m.Status(name)
	if err != nil {
		return false, err
	}
	problems := Evaluate(pool)
	for _, problem := range problems {
		klog.Infof("Pool %s: %s", name, problem)
	}
	return len(problems) == 0, nil
}
