// Package zpool shells out to zpool(8) and maps its output through the
// status grammar into the typed pool model.
package zpool

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zfskit/zfskit/pkg/config"
	"github.com/zfskit/zfskit/pkg/models"
	"github.com/zfskit/zfskit/pkg/parser"
	"github.com/zfskit/zfskit/pkg/topology"
	"k8s.io/klog/v2"
)

// Manager handles zpool operations.
type Manager struct {
	config *config.Config
}

// NewManager creates a new zpool manager.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{config: cfg}
}

// CommandError carries the stderr of a failed zpool invocation.
type CommandError struct {
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("zpool failed: %v: %s", e.Err, strings.TrimSpace(e.Stderr))
	}
	return fmt.Sprintf("zpool failed: %v", e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// logCommand logs the command being executed if debug mode is enabled.
func (m *Manager) logCommand(cmdArgs []string) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Executing command: %v", cmdArgs)
	}
}

// logCommandResult logs the command result if debug mode is enabled.
func (m *Manager) logCommandResult(exitCode int, stdout, stderr []byte) {
	if m.config.IsDebug() {
		klog.V(1).Infof(" Exit code: %d", exitCode)
		if len(stdout) > 0 {
			klog.V(1).Infof(" stdout: %s", string(stdout))
		}
		if len(stderr) > 0 {
			klog.V(1).Infof(" stderr: %s", string(stderr))
		}
	}
}

// run executes cmdArgs and returns stdout. A non-zero exit becomes a
// CommandError carrying the captured stderr.
func (m *Manager) run(cmdArgs []string) ([]byte, error) {
	m.logCommand(cmdArgs)
	cmd := exec.Command(cmdArgs[0], cmdArgs[1:]...)
	stdout, err := cmd.Output()
	if err != nil {
		stderr := []byte{}
		exitCode := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = exitErr.Stderr
			exitCode = exitErr.ExitCode()
		}
		m.logCommandResult(exitCode, stdout, stderr)
		return stdout, &CommandError{Stderr: string(stderr), Err: err}
	}
	m.logCommandResult(0, stdout, nil)
	return stdout, nil
}

// mutate executes a state-changing command, honoring dry-run mode.
func (m *Manager) mutate(cmdArgs []string) error {
	if m.config.DryRun {
		klog.Infof("Dry run: would execute: %s", strings.Join(cmdArgs, " "))
		return nil
	}
	_, err := m.run(cmdArgs)
	return err
}

func (m *Manager) zpoolArgs(args ...string) []string {
	return append(append([]string{}, m.config.ZpoolCmd...), args...)
}

// statusCmd resolves the status invocation, honoring the fixture
// command in test mode.
func (m *Manager) statusCmd(args ...string) []string {
	if m.config.Mode == "test" {
		return m.config.ZpoolStatusCmd
	}
	return m.zpoolArgs(append([]string{"status"}, args...)...)
}

// Status retrieves and parses the status report of one pool.
func (m *Manager) Status(name string) (*models.Zpool, error) {
	output, err := m.run(m.statusCmd(name))
	if err != nil {
		return nil, err
	}
	pool, err := parser.ParsePoolStatus(string(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool status: %w", err)
	}
	return pool, nil
}

// StatusAll retrieves and parses the status reports of every pool.
func (m *Manager) StatusAll() ([]*models.Zpool, error) {
	output, err := m.run(m.statusCmd())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(output)) == "no pools available" {
		return nil, nil
	}
	pools, err := parser.ParsePoolStatusList(string(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool status: %w", err)
	}
	return pools, nil
}

// Available scans for exported pools that can be imported. The reports
// carry the pool id field.
func (m *Manager) Available() ([]*models.Zpool, error) {
	output, err := m.run(m.statusImportCmd())
	if err != nil {
		// zpool import exits non-zero with empty output when there is
		// nothing to import.
		if cmdErr, ok := err.(*CommandError); ok && cmdErr.Stderr == "" && len(output) == 0 {
			return nil, nil
		}
		return nil, err
	}
	pools, err := parser.ParsePoolStatusList(string(output))
	if err != nil {
		return nil, fmt.Errorf("failed to parse import scan: %w", err)
	}
	return pools, nil
}

func (m *Manager) statusImportCmd() []string {
	if m.config.Mode == "test" {
		return m.config.ZpoolStatusCmd
	}
	return m.zpoolArgs("import")
}

// Exists checks if a pool with the given name is present.
func (m *Manager) Exists(name string) (bool, error) {
	cmd := m.listCmd("-o", "name", name)
	if _, err := m.run(cmd); err != nil {
		if cmdErr, ok := err.(*CommandError); ok {
			if exitErr, ok := cmdErr.Err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

// PoolListEntry is one row of zpool list output. Sizes stay in the
// human-readable form the tool prints.
type PoolListEntry struct {
	Name   string
	Size   string
	Alloc  string
	Free   string
	Cap    string
	Health models.Health
}

func (m *Manager) listCmd(args ...string) []string {
	if m.config.Mode == "test" {
		return m.config.ZpoolListCmd
	}
	return m.zpoolArgs(append([]string{"list", "-H"}, args...)...)
}

// List lists all pools with their summary fields. Exit code 1 means no
// pools exist. Health tokens are carried verbatim; list output is a
// summary and an unknown token here is not worth failing for.
func (m *Manager) List() ([]PoolListEntry, error) {
	output, err := m.run(m.listCmd("-o", "name,size,alloc,free,cap,health"))
	if err != nil {
		if cmdErr, ok := err.(*CommandError); ok {
			if exitErr, ok := cmdErr.Err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 {
				klog.Infof("No pools found")
				return nil, nil
			}
		}
		return nil, err
	}

	var pools []PoolListEntry
	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			return nil, &parser.MalformedError{Text: line, Expected: "six tab-separated list columns"}
		}
		pools = append(pools, PoolListEntry{
			Name:   fields[0],
			Size:   fields[1],
			Alloc:  fields[2],
			Free:   fields[3],
			Cap:    fields[4],
			Health: models.Health(fields[5]),
		})
	}
	return pools, nil
}

// Create builds a new pool from the validated topology request.
func (m *Manager) Create(req topology.CreateRequest, force bool) error {
	tail, err := topology.CreateArgs(req)
	if err != nil {
		return fmt.Errorf("invalid topology for pool %s: %w", req.Name, err)
	}
	args := []string{"create"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, req.Name)
	args = append(args, tail...)
	klog.Infof("Creating pool %s", req.Name)
	return m.mutate(m.zpoolArgs(args...))
}

// Add attaches additional vdevs to an existing pool.
func (m *Manager) Add(name string, vdevs []topology.VdevSpec, force bool) error {
	tail, err := topology.AddArgs(name, vdevs)
	if err != nil {
		return fmt.Errorf("invalid topology for pool %s: %w", name, err)
	}
	args := []string{"add"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, tail...)
	klog.Infof("Expanding pool %s", name)
	return m.mutate(m.zpoolArgs(args...))
}

// Destroy destroys a pool.
func (m *Manager) Destroy(name string, force bool) error {
	args := []string{"destroy"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)
	klog.Infof("Destroying pool %s", name)
	return m.mutate(m.zpoolArgs(args...))
}

// Import imports an exported pool by name.
func (m *Manager) Import(name string) error {
	return m.mutate(m.zpoolArgs("import", name))
}

// ImportFromDir imports a pool, searching for devices under dir.
func (m *Manager) ImportFromDir(name, dir string) error {
	return m.mutate(m.zpoolArgs("import", "-d", dir, name))
}

// Export exports a pool.
func (m *Manager) Export(name string, force bool) error {
	args := []string{"export"}
	if force {
		args = append(args, "-f")
	}
	args = append(args, name)
	return m.mutate(m.zpoolArgs(args...))
}

// Scrub starts a scrub on the pool.
func (m *Manager) Scrub(name string) error {
	return m.mutate(m.zpoolArgs("scrub", name))
}

// PauseScrub pauses an in-progress scrub.
func (m *Manager) PauseScrub(name string) error {
	return m.mutate(m.zpoolArgs("scrub", "-p", name))
}

// StopScrub cancels an in-progress scrub.
func (m *Manager) StopScrub(name string) error {
	return m.mutate(m.zpoolArgs("scrub", "-s", name))
}

// Offline takes a device offline. With temporary set, the device comes
// back on reboot.
func (m *Manager) Offline(name, device string, temporary bool) error {
	args := []string{"offline"}
	if temporary {
		args = append(args, "-t")
	}
	args = append(args, name, device)
	return m.mutate(m.zpoolArgs(args...))
}

// Online brings a device back online. With expand set, the pool grows
// into any new capacity.
func (m *Manager) Online(name, device string, expand bool) error {
	args := []string{"online"}
	if expand {
		args = append(args, "-e")
	}
	args = append(args, name, device)
	return m.mutate(m.zpoolArgs(args...))
}

// Attach mirrors newDevice onto the vdev containing device.
func (m *Manager) Attach(name, device, newDevice string) error {
	return m.mutate(m.zpoolArgs("attach", name, device, newDevice))
}

// Detach removes a device from its mirror.
func (m *Manager) Detach(name, device string) error {
	return m.mutate(m.zpoolArgs("detach", name, device))
}

// Replace swaps oldDevice for newDevice and resilvers.
func (m *Manager) Replace(name, oldDevice, newDevice string) error {
	return m.mutate(m.zpoolArgs("replace", name, oldDevice, newDevice))
}

// Remove removes a device from the pool.
func (m *Manager) Remove(name, device string) error {
	return m.mutate(m.zpoolArgs("remove", name, device))
}
