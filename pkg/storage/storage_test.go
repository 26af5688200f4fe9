package storage_test

import (
	"context"
	"database/sql"
	"os/exec"
	"testing"
	"time"

	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	s, err := storage.OpenInMemory(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContainerLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImage(ctx, &types.Image{
		ID: "img-123", Digest: "sha256:abc123", Repository: "alpine", Tags: []string{"latest"}, Size: 1024,
	}))

	require.NoError(t, s.CreateContainer(ctx, &types.Container{
		ID: "ctr-456", Name: "my-container", ImageID: "img-123", BundlePath: "/bundles/ctr-456",
	}))

	c, err := s.GetContainer(ctx, "my-container")
	require.NoError(t, err)
	assert.Equal(t, "my-container", c.Name)
	assert.Equal(t, types.StateCreated, c.State)
	assert.Nil(t, c.PID)

	pid := 12345
	require.NoError(t, s.SetContainerState(ctx, "ctr-456", types.StateRunning, &pid))

	c, err = s.GetContainer(ctx, "ctr-456")
	require.NoError(t, err)
	assert.Equal(t, types.StateRunning, c.State)
	require.NotNil(t, c.PID)
	assert.Equal(t, 12345, *c.PID)
	require.NotNil(t, c.StartedAt)

	require.NoError(t, s.SetContainerExitCode(ctx, "ctr-456", 0))

	c, err = s.GetContainer(ctx, "ctr-456")
	require.NoError(t, err)
	assert.Equal(t, types.StateStopped, c.State)
	require.NotNil(t, c.ExitCode)
	assert.Equal(t, 0, *c.ExitCode)
	require.NotNil(t, c.FinishedAt)

	require.NoError(t, s.DeleteContainer(ctx, "ctr-456"))
	_, err = s.GetContainer(ctx, "ctr-456")
	assert.ErrorIs(t, err, storage.ErrContainerNotFound)
}

// TestSetContainerState_StartedAtSurvivesPauseResume confirms started_at
// is stamped on the first transition to running only: a pause/resume
// round-trip must not move it.
func TestSetContainerState_StartedAtSurvivesPauseResume(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImage(ctx, &types.Image{ID: "img-1", Digest: "sha256:x"}))
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "c1", Name: "c1", ImageID: "img-1", BundlePath: "/c1"}))

	pid := 42
	require.NoError(t, s.SetContainerState(ctx, "c1", types.StateRunning, &pid))
	first, err := s.GetContainer(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, first.StartedAt)

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.SetContainerState(ctx, "c1", types.StatePaused, &pid))
	require.NoError(t, s.SetContainerState(ctx, "c1", types.StateRunning, &pid))

	resumed, err := s.GetContainer(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, resumed.StartedAt)
	assert.Equal(t, *first.StartedAt, *resumed.StartedAt)
}

func TestCreateContainer_DuplicateNameRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImage(ctx, &types.Image{ID: "img-1", Digest: "sha256:x"}))
	c := &types.Container{ID: "a", Name: "dup", ImageID: "img-1", BundlePath: "/b/a"}
	require.NoError(t, s.CreateContainer(ctx, c))

	c2 := &types.Container{ID: "b", Name: "dup", ImageID: "img-1", BundlePath: "/b/b"}
	err := s.CreateContainer(ctx, c2)
	assert.ErrorIs(t, err, storage.ErrContainerAlreadyExists)
}

func TestListContainers_FiltersByState(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.CreateImage(ctx, &types.Image{ID: "img-1", Digest: "sha256:x"}))

	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "a", Name: "a", ImageID: "img-1", BundlePath: "/a"}))
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "b", Name: "b", ImageID: "img-1", BundlePath: "/b"}))
	pid := 1
	require.NoError(t, s.SetContainerState(ctx, "b", types.StateRunning, &pid))

	running := types.StateRunning
	containers, err := s.ListContainers(ctx, &running)
	require.NoError(t, err)
	require.Len(t, containers, 1)
	assert.Equal(t, "b", containers[0].ID)

	all, err := s.ListContainers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNetworkOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateNetwork(ctx, &types.Network{
		ID: "net-123", Name: "my-network", Driver: "bridge", Subnet: "172.28.0.0/16", Gateway: "172.28.0.1",
	}))

	n, err := s.GetNetwork(ctx, "my-network")
	require.NoError(t, err)
	assert.Equal(t, "bridge", n.Driver)

	networks, err := s.ListNetworks(ctx)
	require.NoError(t, err)
	assert.Len(t, networks, 1)

	require.NoError(t, s.DeleteNetwork(ctx, "net-123"))
	_, err = s.GetNetwork(ctx, "net-123")
	assert.ErrorIs(t, err, storage.ErrNetworkNotFound)
}

func TestContainerNetworkAttachment_CascadesOnDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImage(ctx, &types.Image{ID: "img-1", Digest: "sha256:x"}))
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "c1", Name: "c1", ImageID: "img-1", BundlePath: "/c1"}))
	require.NoError(t, s.CreateNetwork(ctx, &types.Network{ID: "n1", Name: "n1", Driver: "bridge"}))

	require.NoError(t, s.ConnectContainerNetwork(ctx, &types.ContainerNetwork{
		ContainerID: "c1", NetworkID: "n1", IPAddress: "172.28.0.2", Aliases: []string{"web"},
	}))

	require.NoError(t, s.DeleteContainer(ctx, "c1"))
	// The attachment row is gone along with the container; reconnecting the
	// network to a fresh container id must not trip a stale unique key.
	require.NoError(t, s.CreateContainer(ctx, &types.Container{ID: "c2", Name: "c2", ImageID: "img-1", BundlePath: "/c2"}))
	require.NoError(t, s.ConnectContainerNetwork(ctx, &types.ContainerNetwork{ContainerID: "c2", NetworkID: "n1"}))
}

func TestImageOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateImage(ctx, &types.Image{
		ID: "img-123", Digest: "sha256:abc123def456", Repository: "alpine",
		Tags: []string{"latest", "3.19"}, Size: 5 * 1024 * 1024,
	}))

	img, err := s.GetImage(ctx, "img-123")
	require.NoError(t, err)
	assert.Equal(t, "alpine", img.Repository)
	assert.Len(t, img.Tags, 2)

	img, err = s.GetImage(ctx, "sha256:abc123def456")
	require.NoError(t, err)
	assert.Equal(t, "img-123", img.ID)

	images, err := s.ListImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestVolumeOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.CreateVolume(ctx, &types.Volume{
		ID: "vol-1", Name: "data", Driver: "local", Mountpoint: "/var/lib/vordr/volumes/data",
	}))

	v, err := s.GetVolume(ctx, "data")
	require.NoError(t, err)
	assert.Equal(t, "local", v.Driver)

	require.NoError(t, s.DeleteVolume(ctx, "vol-1"))
	_, err = s.GetVolume(ctx, "vol-1")
	assert.ErrorIs(t, err, storage.ErrVolumeNotFound)
}

func TestLocks_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AcquireLock(ctx, "container", "ctr-1"))
	err := s.AcquireLock(ctx, "container", "ctr-1")
	assert.ErrorIs(t, err, storage.ErrLockHeld)

	require.NoError(t, s.ReleaseLock(ctx, "container", "ctr-1"))
	require.NoError(t, s.AcquireLock(ctx, "container", "ctr-1"))
}

// TestLocks_StaleOwnerIsReapedOnAcquire inserts a lock row owned by a pid
// that is guaranteed dead (a spawned-then-waited subprocess) and confirms
// a later AcquireLock on the same resource reaps it instead of returning
// ErrLockHeld.
func TestLocks_StaleOwnerIsReapedOnAcquire(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cmd := exec.Command("true")
	require.NoError(t, cmd.Start())
	deadPID := cmd.Process.Pid
	require.NoError(t, cmd.Wait())

	// OpenInMemory's DSN names a shared-cache in-memory database that any
	// connection using the same DSN attaches to for as long as s keeps a
	// connection open; use a second raw connection to insert a lock row
	// directly, bypassing AcquireLock's own-pid behavior.
	raw, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.ExecContext(ctx,
		`INSERT INTO locks (resource_type, resource_id, owner_pid) VALUES (?, ?, ?)`,
		"container", "stale-ctr", deadPID)
	require.NoError(t, err)

	require.NoError(t, s.AcquireLock(ctx, "container", "stale-ctr"))
}

func TestLocks_DifferentResourcesDoNotConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.AcquireLock(ctx, "container", "ctr-1"))
	require.NoError(t, s.AcquireLock(ctx, "container", "ctr-2"))
	require.NoError(t, s.AcquireLock(ctx, "network", "ctr-1"))
}
