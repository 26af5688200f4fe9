package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cuemby/vordr/pkg/events"
	"github.com/cuemby/vordr/pkg/gatekeeper"
	"github.com/cuemby/vordr/pkg/lifecycle"
	"github.com/cuemby/vordr/pkg/log"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/volume"
)

// app bundles the dependencies every subcommand needs. Each command opens
// its own app and closes it before returning — there is no long-lived
// daemon process for these to outlive.
type app struct {
	store     storage.Store
	lifecycle *lifecycle.Manager
	validator gatekeeper.Validator
	volumes   *volume.Manager
	broker    *events.Broker
}

func openApp() (*app, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("vordr: create data directory: %w", err)
	}

	store, err := storage.Open(dataDir, log.WithComponent("storage"))
	if err != nil {
		return nil, fmt.Errorf("vordr: open state store: %w", err)
	}
	store.SetLockHooks(storage.LockHooks{
		OnStaleReaped: metrics.LocksReapedTotal.Inc,
		OnContention:  metrics.LockContentionTotal.Inc,
	})

	volumes, err := volume.NewManager(filepath.Join(dataDir, "volumes"))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("vordr: open volume manager: %w", err)
	}

	broker := events.NewBroker()
	broker.Start()
	mgr := lifecycle.New(lifecycle.Config{Root: dataDir, Runtime: runtimeBinary}, store, broker)

	var validator gatekeeper.Validator = gatekeeper.Native{}
	if insecureStubGatekeeper {
		cliLogger := log.WithComponent("cli")
		cliLogger.Warn().Msg("insecure stub gatekeeper selected: every configuration will be accepted unvalidated")
		validator = gatekeeper.Stub{}
	}

	return &app{store: store, lifecycle: mgr, validator: validator, volumes: volumes, broker: broker}, nil
}

func (a *app) Close() error {
	a.broker.Stop()
	return a.store.Close()
}
