package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/vordr/pkg/events"
	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/ocispec"
	"github.com/cuemby/vordr/pkg/runtimeshim"
	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
)

// Config configures a Manager.
type Config struct {
	// Root is the directory bundles are written under: each container
	// gets Root/containers/<id>/.
	Root string
	// Runtime is the external low-level runtime binary, by name (PATH
	// lookup) or absolute path.
	Runtime string
}

// Manager drives containers through the lifecycle state machine. It owns
// no persistent state itself — every durable fact lives in Store — but it
// is the only component that writes bundle directories and invokes the
// runtime shim.
type Manager struct {
	cfg    Config
	store  storage.Store
	events *events.Broker
	log    zerolog.Logger
}

// New returns a Manager. broker may be nil, in which case lifecycle events
// are dropped rather than published.
func New(cfg Config, store storage.Store, broker *events.Broker) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		events: broker,
		log:    log.WithComponent("lifecycle"),
	}
}

func (m *Manager) bundlePath(id string) string {
	return filepath.Join(m.cfg.Root, "containers", id)
}

func (m *Manager) shim(bundle string) *runtimeshim.Client {
	return runtimeshim.New(m.cfg.Runtime, bundle)
}

// CreateParams are the inputs to Create. Config must already have passed
// gatekeeper.Validate — Create trusts it without re-checking; the
// gatekeeper runs strictly before the state store is ever touched.
type CreateParams struct {
	ID        string // generated if empty
	Name      string
	ImageID   string
	Config    types.AcceptedConfiguration
	RunParams types.RunParams
	Options   ocispec.Options
}

// Create writes a bundle directory and inserts a Created row. Both must
// succeed or neither does: a failure after the directory is made but
// before the row is inserted removes the directory before returning, so
// Create leaves no partial state for a caller to clean up.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*types.Container, error) {
	timer := metrics.NewTimer()
	outcome := "error"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, "create")
		metrics.ContainerOperationsTotal.WithLabelValues("create", outcome).Inc()
	}()

	id := params.ID
	if id == "" {
		id = uuid.New().String()
	}
	bundle := m.bundlePath(id)
	rootfs := filepath.Join(bundle, "rootfs")

	if err := os.MkdirAll(rootfs, 0o755); err != nil {
		return nil, fmt.Errorf("lifecycle: create bundle directory: %w", err)
	}

	spec := ocispec.Build(params.Config, params.RunParams, "rootfs", params.Options)
	specJSON, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		os.RemoveAll(bundle)
		return nil, fmt.Errorf("lifecycle: marshal runtime spec: %w", err)
	}
	if err := os.WriteFile(filepath.Join(bundle, "config.json"), specJSON, 0o644); err != nil {
		os.RemoveAll(bundle)
		return nil, fmt.Errorf("lifecycle: write config.json: %w", err)
	}

	configSummary, err := json.Marshal(params.Config)
	if err != nil {
		os.RemoveAll(bundle)
		return nil, fmt.Errorf("lifecycle: marshal config summary: %w", err)
	}

	container := &types.Container{
		ID:         id,
		Name:       params.Name,
		ImageID:    params.ImageID,
		BundlePath: bundle,
		State:      types.StateCreated,
		Config:     string(configSummary),
	}

	if err := m.store.CreateContainer(ctx, container); err != nil {
		os.RemoveAll(bundle)
		return nil, fmt.Errorf("lifecycle: create container row: %w", err)
	}

	m.log.Info().Str("container_id", id).Str("name", params.Name).Msg("container created")
	m.publish(events.EventContainerCreated, id, "")
	outcome = "success"
	return container, nil
}

// Delete removes a container. A Running container requires force, which
// SIGKILLs its pid before the bundle directory and row are removed.
func (m *Manager) Delete(ctx context.Context, id string, force bool) error {
	timer := metrics.NewTimer()
	outcome := "error"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, "delete")
		metrics.ContainerOperationsTotal.WithLabelValues("delete", outcome).Inc()
	}()

	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("lifecycle: delete: %w", err)
	}

	if c.State == types.StateRunning {
		if !force {
			return &InvalidTransition{From: c.State, To: types.StateStopped}
		}
		if c.PID == nil {
			return ErrMissingPID
		}
		if err := killProcess(*c.PID, syscallSIGKILL); err != nil && !isProcessGone(err) {
			return fmt.Errorf("lifecycle: force kill pid %d: %w", *c.PID, err)
		}
	}

	if err := m.shim(c.BundlePath).Delete(ctx, c.ID, true); err != nil {
		m.log.Warn().Str("container_id", id).Err(err).Msg("runtime delete failed, continuing")
	}

	if err := os.RemoveAll(c.BundlePath); err != nil {
		return fmt.Errorf("lifecycle: remove bundle directory: %w", err)
	}
	if err := m.store.DeleteContainer(ctx, c.ID); err != nil {
		return fmt.Errorf("lifecycle: delete container row: %w", err)
	}

	m.log.Info().Str("container_id", id).Msg("container deleted")
	m.publish(events.EventContainerDeleted, id, "")
	outcome = "success"
	return nil
}

func (m *Manager) publish(typ events.EventType, containerID, message string) {
	if m.events == nil {
		return
	}
	m.events.Publish(&events.Event{
		Type:     typ,
		Message:  message,
		Metadata: map[string]string{"container_id": containerID},
	})
}
