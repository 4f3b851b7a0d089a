// Package topology models the write path of pool administration: a
// desired device layout is validated against the structural rules of
// zpool(8) and serialized into the flat, order-sensitive argument
// sequence the tool expects. Argument order is load-bearing — the tool
// assigns each positional device to the most recently named group, so
// reordering silently changes the resulting layout.
package topology

import (
	"fmt"

	"github.com/zfskit/zfskit/pkg/models"
)

// VdevSpec describes one device group to be created: a redundancy kind
// and the ordered device paths backing it. Devices are bare path
// strings with no state, since they are not yet part of a live pool.
type VdevSpec struct {
	Kind models.VdevKind
	// Optional disambiguating suffix emitted after the kind token
	// (mirror-1). -1 means none.
	Index   int
	Devices []string
}

// Disk is a convenience constructor for a single-device vdev.
func Disk(path string) VdevSpec {
	return VdevSpec{Kind: models.KindSingle, Index: -1, Devices: []string{path}}
}

// Mirror builds a mirror spec over the given devices.
func Mirror(paths ...string) VdevSpec {
	return VdevSpec{Kind: models.KindMirror, Index: -1, Devices: paths}
}

// RaidZ builds a parity group spec of the given level (1-3).
func RaidZ(level int, paths ...string) VdevSpec {
	kind := models.KindRaidZ1
	switch level {
	case 2:
		kind = models.KindRaidZ2
	case 3:
		kind = models.KindRaidZ3
	}
	return VdevSpec{Kind: kind, Index: -1, Devices: paths}
}

// token is the kind token emitted ahead of the group's devices.
func (v VdevSpec) token() string {
	if v.Index >= 0 {
		return fmt.Sprintf("%s-%d", v.Kind, v.Index)
	}
	return string(v.Kind)
}

// appendArgs emits the spec onto args. Naked leaves are bare
// identifiers with no kind token.
func (v VdevSpec) appendArgs(args []string) []string {
	if v.Kind != models.KindSingle {
		args = append(args, v.token())
	}
	return append(args, v.Devices...)
}

// CreateRequest describes a pool to create: its name and the ordered
// forest of device groups, plus the optional log, cache and spare
// sections. It is built by the caller, validated, and consumed once by
// argument generation.
type CreateRequest struct {
	Name  string
	Vdevs []VdevSpec
	// ZFS intent log devices, emitted behind the log marker.
	Logs []VdevSpec
	// L2ARC cache devices, emitted behind the cache marker.
	Caches []string
	// Hot spares, emitted behind the spare marker.
	Spares []string
}

// RequestFromReport re-derives a create request from the device forest
// of a parsed report, preserving kind, index and device order. Useful
// for echoing an existing pool's layout onto new hardware.
func RequestFromReport(pool *models.Zpool) CreateRequest {
	req := CreateRequest{Name: pool.Name}
	for _, vdev := range pool.Vdevs {
		spec := VdevSpec{Kind: vdev.Kind, Index: vdev.Index}
		for _, disk := range vdev.Disks {
			spec.Devices = append(spec.Devices, disk.Path)
		}
		req.Vdevs = append(req.Vdevs, spec)
	}
	for _, disk := range pool.Logs {
		req.Logs = append(req.Logs, Disk(disk.Path))
	}
	for _, disk := range pool.Caches {
		req.Caches = append(req.Caches, disk.Path)
	}
	for _, disk := range pool.Spares {
		req.Spares = append(req.Spares, disk.Path)
	}
	return req
}

// CreateArgs validates the request and serializes it into the
// topology-describing argument tail of zpool create. The binary name,
// subcommand, flags and pool name are owned by the invocation layer.
// On validation failure no partial argument list is returned.
func CreateArgs(req CreateRequest) ([]string, error) {
	if err := validate(req, false); err != nil {
		return nil, err
	}
	return emit(req), nil
}

// AddArgs validates a forest to attach to an existing pool and emits
// the pool name followed by the topology tail of zpool add.
func AddArgs(poolName string, vdevs []VdevSpec) ([]string, error) {
	if poolName == "" {
		return nil, fmt.Errorf("pool name cannot be empty")
	}
	req := CreateRequest{Name: poolName, Vdevs: vdevs}
	if err := validate(req, true); err != nil {
		return nil, err
	}
	return append([]string{poolName}, emit(req)...), nil
}

func emit(req CreateRequest) []string {
	var args []string
	for _, vdev := range req.Vdevs {
		args = vdev.appendArgs(args)
	}
	if len(req.Logs) > 0 {
		args = append(args, "log")
		for _, vdev := range req.Logs {
			args = vdev.appendArgs(args)
		}
	}
	if len(req.Caches) > 0 {
		args = append(args, "cache")
		args = append(args, req.Caches...)
	}
	if len(req.Spares) > 0 {
		args = append(args, "spare")
		args = append(args, req.Spares...)
	}
	return args
}
