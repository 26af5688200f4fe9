package volume

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/vordr/pkg/types"
)

// DefaultVolumesPath is the base directory for local volumes when no
// other path is configured.
const DefaultVolumesPath = "/var/lib/vordr/volumes"

// Driver creates, deletes, and resolves the host path backing a volume.
// The engine's state store records volume rows regardless of driver —
// Driver is only consulted when a volume needs an actual directory on
// disk to bind-mount into a bundle.
type Driver interface {
	Create(volume *types.Volume) error
	Delete(volume *types.Volume) error
	Mount(volume *types.Volume) (string, error)
	Unmount(volume *types.Volume) error
	GetPath(volume *types.Volume) string
}

// LocalDriver is the only driver vordr ships: a plain directory per
// volume under basePath, named by the volume's id.
type LocalDriver struct {
	basePath string
}

// NewLocalDriver returns a LocalDriver rooted at basePath, creating it if
// necessary. An empty basePath falls back to DefaultVolumesPath.
func NewLocalDriver(basePath string) (*LocalDriver, error) {
	if basePath == "" {
		basePath = DefaultVolumesPath
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("volume: create volumes directory: %w", err)
	}
	return &LocalDriver{basePath: basePath}, nil
}

// Create makes the volume's backing directory and stamps its resolved
// mountpoint onto the passed-in row.
func (d *LocalDriver) Create(v *types.Volume) error {
	path := d.GetPath(v)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("volume: create directory: %w", err)
	}
	v.Mountpoint = path
	return nil
}

// Delete removes a volume's backing directory. Already-gone is not an
// error — Delete is idempotent from the caller's view, same convention
// runtimeshim.Delete uses for the low-level runtime.
func (d *LocalDriver) Delete(v *types.Volume) error {
	path := d.GetPath(v)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("volume: delete directory: %w", err)
	}
	return nil
}

// Mount verifies the volume's directory exists and returns its host path,
// for the caller to add to RunParams.ExtraMounts as a bind mount.
func (d *LocalDriver) Mount(v *types.Volume) (string, error) {
	path := d.GetPath(v)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", fmt.Errorf("volume: directory does not exist: %s", path)
	}
	return path, nil
}

// Unmount is a no-op for the local driver: the directory persists on disk
// after the container using it stops.
func (d *LocalDriver) Unmount(*types.Volume) error { return nil }

// GetPath returns the host path a volume resolves to, without checking
// that it exists.
func (d *LocalDriver) GetPath(v *types.Volume) string {
	return filepath.Join(d.basePath, v.ID)
}

// Manager dispatches to a Driver by the volume row's Driver field. Only
// "local" is registered today; a caller-supplied name with no registered
// driver is an error rather than a silent fallback.
type Manager struct {
	drivers map[string]Driver
}

// NewManager registers the local driver rooted at basePath.
func NewManager(basePath string) (*Manager, error) {
	local, err := NewLocalDriver(basePath)
	if err != nil {
		return nil, err
	}
	return &Manager{drivers: map[string]Driver{"local": local}}, nil
}

func (m *Manager) driver(name string) (Driver, error) {
	d, ok := m.drivers[name]
	if !ok {
		return nil, fmt.Errorf("volume: unknown driver %q", name)
	}
	return d, nil
}

// Create dispatches to v.Driver's Create.
func (m *Manager) Create(v *types.Volume) error {
	d, err := m.driver(v.Driver)
	if err != nil {
		return err
	}
	return d.Create(v)
}

// Delete dispatches to v.Driver's Delete.
func (m *Manager) Delete(v *types.Volume) error {
	d, err := m.driver(v.Driver)
	if err != nil {
		return err
	}
	return d.Delete(v)
}

// Mount dispatches to v.Driver's Mount.
func (m *Manager) Mount(v *types.Volume) (string, error) {
	d, err := m.driver(v.Driver)
	if err != nil {
		return "", err
	}
	return d.Mount(v)
}

// Unmount dispatches to v.Driver's Unmount.
func (m *Manager) Unmount(v *types.Volume) error {
	d, err := m.driver(v.Driver)
	if err != nil {
		return err
	}
	return d.Unmount(v)
}
