package models

// Health is the state reported by zpool for a pool, a vdev or a single
// device. The constants cover the vocabulary of current zpool releases;
// any other token can still be carried as a Health value, with Known
// reporting false, so that a new tool version degrades to a typed but
// unrecognized value instead of being unrepresentable.
type Health string

const (
	Online   Health = "ONLINE"
	Degraded Health = "DEGRADED"
	Faulted  Health = "FAULTED"
	Offline  Health = "OFFLINE"
	Removed  Health = "REMOVED"
	Unavail  Health = "UNAVAIL"
	// Device-only states.
	Avail Health = "AVAIL"
	InUse Health = "INUSE"
)

// ParseHealth maps a state token to a Health value. ok is false when
// the token is outside the recognized set.
func ParseHealth(token string) (Health, bool) {
	h := Health(token)
	switch h {
	case Online, Degraded, Faulted, Offline, Removed, Unavail, Avail, InUse:
		return h, true
	}
	return h, false
}

// Known reports whether the value belongs to the recognized state set.
func (h Health) Known() bool {
	_, ok := ParseHealth(string(h))
	return ok
}

// VdevKind is the redundancy scheme of a device group.
type VdevKind string

const (
	KindSingle VdevKind = "disk"
	KindMirror VdevKind = "mirror"
	KindRaidZ1 VdevKind = "raidz1"
	KindRaidZ2 VdevKind = "raidz2"
	KindRaidZ3 VdevKind = "raidz3"
)

// ParseVdevKind maps a group token from the device table to a VdevKind.
// zpool prints plain "raidz" for single-parity groups on some
// platforms; it is folded into KindRaidZ1.
func ParseVdevKind(token string) (VdevKind, bool) {
	switch token {
	case "mirror":
		return KindMirror, true
	case "raidz", "raidz1":
		return KindRaidZ1, true
	case "raidz2":
		return KindRaidZ2, true
	case "raidz3":
		return KindRaidZ3, true
	}
	return VdevKind(token), false
}

// ErrorStats holds the READ/WRITE/CKSUM counters of a device-table row.
type ErrorStats struct {
	Read     uint64
	Write    uint64
	Checksum uint64
}

// Disk is a leaf device of a pool: a whole block device, a partition or
// a file. Only groups nest; a Disk never has children.
type Disk struct {
	// Path to the backing device or file. Relative paths are
	// relative to /dev.
	Path   string
	Health Health
	// Free-text explanation of the state, e.g. "was /dev/da1".
	Reason string
	Stats  ErrorStats
}

// Vdev is a device group: a single leaf or a redundancy group with its
// ordered member disks.
type Vdev struct {
	Kind   VdevKind
	Health Health
	// Disambiguating suffix printed by the tool (mirror-0, mirror-1).
	// -1 when absent.
	Index  int
	Reason string
	Stats  ErrorStats
	Disks  []Disk
}

// SingleVdev wraps one disk into the leaf-group form used by the forest.
func SingleVdev(d Disk) Vdev {
	return Vdev{Kind: KindSingle, Health: d.Health, Index: -1, Disks: []Disk{d}}
}

// Zpool is the result of parsing one zpool status/import report. Values
// are immutable snapshots; a fresh one is produced by every parse and
// none of them hold any backing resource.
type Zpool struct {
	Name string
	// Pool UID, only printed during import scans. nil otherwise.
	ID     *uint64
	Health Health
	// Multi-line prose fields. Empty when the section was absent.
	Status  string
	Action  string
	Comment string
	See     string
	Scan    string
	// Ordered forest of data vdevs. Non-empty for any parsed report.
	Vdevs []Vdev
	// Optional auxiliary sections, leaf devices only.
	Logs   []Disk
	Caches []Disk
	Spares []Disk
	// Errors trailer. Empty when the tool reported no known data errors.
	Errors string
	Reason string
	Stats  ErrorStats
}

// DatasetType is the type column of zfs list -t all.
type DatasetType string

const (
	Filesystem DatasetType = "filesystem"
	Snapshot   DatasetType = "snapshot"
	Volume     DatasetType = "volume"
	Bookmark   DatasetType = "bookmark"
)

// ParseDatasetType maps a type token to a DatasetType. ok is false for
// tokens outside the recognized set.
func ParseDatasetType(token string) (DatasetType, bool) {
	t := DatasetType(token)
	switch t {
	case Filesystem, Snapshot, Volume, Bookmark:
		return t, true
	}
	return t, false
}

// DatasetName is a hierarchical dataset name: pool/child/grandchild
// with an optional terminal @snapshot or #bookmark segment. At most one
// of Snapshot/Bookmark is set.
type DatasetName struct {
	Segments []string
	Snapshot string
	Bookmark string
}

// String reassembles the name exactly as the tool prints it.
func (n DatasetName) String() string {
	s := n.Segments[0]
	for _, seg := range n.Segments[1:] {
		s += "/" + seg
	}
	if n.Snapshot != "" {
		return s + "@" + n.Snapshot
	}
	if n.Bookmark != "" {
		return s + "#" + n.Bookmark
	}
	return s
}

// Filesystem returns the name without its snapshot/bookmark suffix.
func (n DatasetName) Filesystem() DatasetName {
	return DatasetName{Segments: n.Segments}
}
