// Package zfs shells out to zfs(8) for dataset-level operations:
// listing, snapshots and bookmarks. Only one stderr shape is
// structurally recognized; everything else is passed through opaque.
package zfs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/zfskit/zfskit/pkg/config"
	"github.com/zfskit/zfskit/pkg/models"
	"github.com/zfskit/zfskit/pkg/parser"
	"k8s.io/klog/v2"
)

// Manager handles zfs dataset operations.
type Manager struct {
	config *config.Config
}

// NewManager creates a new zfs manager.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// DatasetNotFoundError is produced when zfs reports that the named
// dataset does not exist.
type DatasetNotFoundError struct {
	Name models.DatasetName
}

func (e *DatasetNotFoundError) Error() string {
	return fmt.Sprintf("dataset %s does not exist", e.Name)
}

// CommandError carries the stderr of a failed zfs invocation that did
// not match any recognized error shape.
type CommandError struct {
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("zfs failed: %v: %s", e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("zfs failed: %v", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func (m *Manager) logCommand(cmdArgs []string) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Executing command: %v", cmdArgs)
	}
}

// run executes cmdArgs; non-zero exits have their stderr routed
// through the error grammar first.
func (m *Manager) run(cmdArgs []string) ([]byte, error) {
	m.logCommand(cmdArgs)
	cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)
	stdout, err := cmd.Output()
	if err != nil {
		stderr := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = string(exitErr.Stderr)
		}
		if name := parser.TryParseNotFound(stderr); name != nil {
			return stdout, &DatasetNotFoundError{Name: *name}
		}
		return stdout, &CommandError{Stderr: stderr, Err: err}
	}
	return stdout, nil
}

func (m *Manager) zfsArgs(args ...string) []string {
	return append(append([]string{}, m.config.ZfsCmd...), args...)
}

func (m *Manager) listCmd(args ...string) []string {
	if m.config.Mode == "test" {
		return m.config.ZfsListCmd
	}
	return m.zfsArgs(append([]string{"list", "-H"}, args...)...)
}

// ListNames lists all dataset names.
func (m *Manager) ListNames() ([]models.DatasetName, error) {
	output, err := m.run(m.listCmd("-o", "name"))
	if err != nil {
		return nil, err
	}
	names, err := parser.ParseDatasetList(string(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset list: %w", err)
	}
	return names, nil
}

// ListTyped lists every dataset of every type together with its type
// tag.
func (m *Manager) ListTyped() ([]parser.TypedDataset, error) {
	output, err := m.run(m.listCmd("-t", "all", "-o", "type,name"))
	if err != nil {
		return nil, err
	}
	datasets, err := parser.ParseTypedDatasetList(string(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse typed dataset list: %w", err)
	}
	return datasets, nil
}

// Exists checks if the named dataset is present.
func (m *Manager) Exists(name string) (bool, error) {
	if _, err := parser.ParseDatasetName(name); err != nil {
		return false, err
	}
	_, err := m.run(m.zfsArgs("list", "-H", "-o", "name", name))
	if err != nil {
		if _, ok := err.(*DatasetNotFoundError); ok {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Snapshot creates a snapshot of the filesystem.
func (m *Manager) Snapshot(filesystem, snapshot string) error {
	name := fmt.Sprintf("%s@%s", filesystem, snapshot)
	if _, err := parser.ParseDatasetName(name); err != nil {
		return err
	}
	klog.Infof("Creating snapshot %s", name)
	return m.mutate(m.zfsArgs("snapshot", name))
}

// Bookmark turns a snapshot into a bookmark.
func (m *Manager) Bookmark(snapshot, bookmark string) error {
	snapName, err := parser.ParseDatasetName(snapshot)
	if err != nil {
		return err
	}
	if snapName.Snapshot == "" {
		return &parser.MalformedError{Text: snapshot, Expected: "snapshot name with @ suffix"}
	}
	target := fmt.Sprintf("%s#%s", snapName.Filesystem(), bookmark)
	if _, err := parser.ParseDatasetName(target); err != nil {
		return err
	}
	klog.Infof("Creating bookmark %s", target)
	return m.mutate(m.zfsArgs("bookmark", snapshot, target))
}

// Destroy destroys a dataset, snapshot or bookmark.
func (m *Manager) Destroy(name string, recursive bool) error {
	if _, err := parser.ParseDatasetName(name); err != nil {
		return err
	}
	args := []string{"destroy"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, name)
	klog.Infof("Destroying dataset %s", name)
	return m.mutate(m.zfsArgs(args...))
}

func (m *Manager) mutate(cmdArgs []string) error {
	if m.config.DryRun {
		klog.Infof("Dry run: would execute: %s", strings.Join(cmdArgs, " "))
		return nil
	}
	_, err := m.run(cmdArgs)
	return err
}
