package storage

import (
	"context"

	"github.com/cuemby/vordr/pkg/types"
)

// Store is the engine's single persistence boundary. Every method is safe
// to call from multiple goroutines and multiple processes concurrently;
// SQLiteStore is the only implementation and relies on SQLite's own
// locking rather than an in-process mutex.
type Store interface {
	// Images
	CreateImage(ctx context.Context, img *types.Image) error
	GetImage(ctx context.Context, idOrDigest string) (*types.Image, error)
	ListImages(ctx context.Context) ([]*types.Image, error)
	DeleteImage(ctx context.Context, id string) error

	// Containers
	CreateContainer(ctx context.Context, c *types.Container) error
	GetContainer(ctx context.Context, idOrName string) (*types.Container, error)
	ListContainers(ctx context.Context, state *types.ContainerState) ([]*types.Container, error)
	SetContainerState(ctx context.Context, id string, state types.ContainerState, pid *int) error
	SetContainerExitCode(ctx context.Context, id string, exitCode int) error
	DeleteContainer(ctx context.Context, id string) error

	// Networks
	CreateNetwork(ctx context.Context, n *types.Network) error
	GetNetwork(ctx context.Context, idOrName string) (*types.Network, error)
	ListNetworks(ctx context.Context) ([]*types.Network, error)
	DeleteNetwork(ctx context.Context, id string) error
	ConnectContainerNetwork(ctx context.Context, cn *types.ContainerNetwork) error
	DisconnectContainerNetwork(ctx context.Context, containerID, networkID string) error

	// Volumes
	CreateVolume(ctx context.Context, v *types.Volume) error
	GetVolume(ctx context.Context, idOrName string) (*types.Volume, error)
	ListVolumes(ctx context.Context) ([]*types.Volume, error)
	DeleteVolume(ctx context.Context, id string) error

	// Locks
	AcquireLock(ctx context.Context, resourceType, resourceID string) error
	ReleaseLock(ctx context.Context, resourceType, resourceID string) error

	Close() error
}
