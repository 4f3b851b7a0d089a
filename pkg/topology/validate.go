package topology

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/zfskit/zfskit/pkg/models"
)

// InsufficientDevicesError reports a redundancy group below the
// minimum member count its kind can operate with.
type InsufficientDevicesError struct {
	Kind     models.VdevKind
	Required int
	Got      int
}

func (e *InsufficientDevicesError) Error() string {
	return fmt.Sprintf("%s requires at least %d devices, got %d", e.Kind, e.Required, e.Got)
}

// DuplicateDeviceError reports a device path appearing more than once
// anywhere in one topology request.
type DuplicateDeviceError struct {
	Device string
}

func (e *DuplicateDeviceError) Error() string {
	return fmt.Sprintf("device %s appears more than once in topology", e.Device)
}

// EmptyTopologyError reports a request with nothing to build from.
type EmptyTopologyError struct{}

func (e *EmptyTopologyError) Error() string {
	return "topology has no devices"
}

// minDevices is the smallest member count per kind: one more than the
// parity level, the minimum needed to tolerate the stated number of
// failures and still store data.
func minDevices(kind models.VdevKind) int {
	switch kind {
	case models.KindMirror, models.KindRaidZ1:
		return 2
	case models.KindRaidZ2:
		return 3
	case models.KindRaidZ3:
		return 4
	}
	return 1
}

// validate checks every structural rule before any argument is
// emitted, collecting all violations rather than stopping at the
// first. forUpdate permits an empty data forest, since zpool add may
// contribute only log/cache/spare devices.
func validate(req CreateRequest, forUpdate bool) error {
	var result *multierror.Error

	empty := len(req.Vdevs) == 0 && len(req.Logs) == 0 && len(req.Caches) == 0 && len(req.Spares) == 0
	if empty || (!forUpdate && len(req.Vdevs) == 0) {
		result = multierror.Append(result, &EmptyTopologyError{})
	}

	for _, vdev := range append(append([]VdevSpec{}, req.Vdevs...), req.Logs...) {
		min := minDevices(vdev.Kind)
		if len(vdev.Devices) < min {
			result = multierror.Append(result, &InsufficientDevicesError{
				Kind:     vdev.Kind,
				Required: min,
				Got:      len(vdev.Devices),
			})
		}
	}

	// Duplicate detection is an explicit pre-pass over the whole
	// request, case-sensitive on the exact path string.
	seen := make(map[string]bool)
	dup := func(path string) {
		if seen[path] {
			result = multierror.Append(result, &DuplicateDeviceError{Device: path})
			return
		}
		seen[path] = true
	}
	for _, vdev := range req.Vdevs {
		for _, path := range vdev.Devices {
			dup(path)
		}
	}
	for _, vdev := range req.Logs {
		for _, path := range vdev.Devices {
			dup(path)
		}
	}
	for _, path := range req.Caches {
		dup(path)
	}
	for _, path := range req.Spares {
		dup(path)
	}

	return result.ErrorOrNil()
}
