package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHealth(t *testing.T) {
	for _, token := range []string{"ONLINE", "DEGRADED", "FAULTED", "OFFLINE", "REMOVED", "UNAVAIL", "AVAIL", "INUSE"} {
		h, ok := ParseHealth(token)
		assert.True(t, ok, token)
		assert.Equal(t, Health(token), h)
		assert.True(t, h.Known())
	}

	h, ok := ParseHealth("SIDEWAYS")
	assert.False(t, ok)
	// The token is still carried as a value.
	assert.Equal(t, Health("SIDEWAYS"), h)
	assert.False(t, h.Known())

	_, ok = ParseHealth("online")
	assert.False(t, ok, "state tokens are case-sensitive")
}

func TestParseVdevKind(t *testing.T) {
	tests := []struct {
		token string
		kind  VdevKind
		ok    bool
	}{
		{token: "mirror", kind: KindMirror, ok: true},
		{token: "raidz", kind: KindRaidZ1, ok: true},
		{token: "raidz1", kind: KindRaidZ1, ok: true},
		{token: "raidz2", kind: KindRaidZ2, ok: true},
		{token: "raidz3", kind: KindRaidZ3, ok: true},
		{token: "raidz4", kind: VdevKind("raidz4"), ok: false},
		{token: "stripe", kind: VdevKind("stripe"), ok: false},
	}
	for _, tt := range tests {
		kind, ok := ParseVdevKind(tt.token)
		assert.Equal(t, tt.kind, kind, tt.token)
		assert.Equal(t, tt.ok, ok, tt.token)
	}
}

func TestSingleVdev(t *testing.T) {
	d := Disk{Path: "/dev/da0", Health: Online}
	v := SingleVdev(d)
	assert.Equal(t, KindSingle, v.Kind)
	assert.Equal(t, -1, v.Index)
	assert.Equal(t, Online, v.Health)
	assert.Equal(t, []Disk{d}, v.Disks)
}

func TestDatasetNameString(t *testing.T) {
	tests := []struct {
		name DatasetName
		want string
	}{
		{name: DatasetName{Segments: []string{"tank"}}, want: "tank"},
		{name: DatasetName{Segments: []string{"tank", "var", "mail"}}, want: "tank/var/mail"},
		{name: DatasetName{Segments: []string{"tank", "home"}, Snapshot: "daily"}, want: "tank/home@daily"},
		{name: DatasetName{Segments: []string{"tank", "home"}, Bookmark: "keep"}, want: "tank/home#keep"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.name.String())
	}
}

func TestDatasetNameFilesystem(t *testing.T) {
	name := DatasetName{Segments: []string{"tank", "home"}, Snapshot: "daily"}
	fs := name.Filesystem()
	assert.Equal(t, "tank/home", fs.String())
	assert.Empty(t, fs.Snapshot)
}

func TestParseDatasetType(t *testing.T) {
	for _, token := range []string{"filesystem", "snapshot", "volume", "bookmark"} {
		dt, ok := ParseDatasetType(token)
		assert.True(t, ok)
		assert.Equal(t, DatasetType(token), dt)
	}
	_, ok := ParseDatasetType("vortex")
	assert.False(t, ok)
}
