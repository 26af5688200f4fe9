package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/vordr/pkg/bundlecfg"
	"github.com/cuemby/vordr/pkg/events"
	"github.com/cuemby/vordr/pkg/gatekeeper"
	"github.com/cuemby/vordr/pkg/lifecycle"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/storage"
	"github.com/cuemby/vordr/pkg/types"
)

var (
	runSpecFile string
	runImage    string
	runName     string
)

var runCmd = &cobra.Command{
	Use:   "run [flags] -- [command...]",
	Short: "Validate a configuration and create and start a container in one step",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, err := resolveRunSpec(args)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		accepted, err := validateSpec(a, spec)
		if err != nil {
			return err
		}

		ctx := context.Background()
		params := spec.ToRunParams()
		if err := resolveVolumeMounts(ctx, a, params.ExtraMounts); err != nil {
			return fmt.Errorf("vordr: run: %w", err)
		}

		c, err := a.lifecycle.Create(ctx, lifecycle.CreateParams{
			Name:      spec.Name,
			ImageID:   spec.Image,
			Config:    accepted,
			RunParams: params,
		})
		if err != nil {
			return fmt.Errorf("vordr: run: %w", err)
		}

		if _, err := a.lifecycle.Start(ctx, c.ID); err != nil {
			return fmt.Errorf("vordr: run: %w", err)
		}

		fmt.Println(c.ID)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runSpecFile, "file", "f", "", "run-spec file (YAML or JSON)")
	runCmd.Flags().StringVar(&runImage, "image", "", "image id (ignored if --file is given)")
	runCmd.Flags().StringVar(&runName, "name", "", "container name (ignored if --file is given)")
}

// resolveRunSpec builds a bundlecfg.Spec from --file, or from --image/--name
// plus any trailing args as the command to run.
func resolveRunSpec(args []string) (*bundlecfg.Spec, error) {
	if runSpecFile != "" {
		return bundlecfg.Load(runSpecFile)
	}
	if runImage == "" {
		return nil, fmt.Errorf("vordr: run: --image or --file is required")
	}
	return &bundlecfg.Spec{
		Name:    runName,
		Image:   runImage,
		Command: args,
	}, nil
}

// resolveVolumeMounts rewrites mounts of type "volume" into bind mounts
// backed by the local volume driver. The mount's source names the volume;
// an unknown name creates the volume on first use, same convention as
// `docker run -v name:/path`.
func resolveVolumeMounts(ctx context.Context, a *app, mounts []types.Mount) error {
	for i := range mounts {
		if mounts[i].Type != "volume" {
			continue
		}

		name := mounts[i].Source
		v, err := a.store.GetVolume(ctx, name)
		if errors.Is(err, storage.ErrVolumeNotFound) {
			v = &types.Volume{ID: uuid.New().String(), Name: name, Driver: "local"}
			if err := a.volumes.Create(v); err != nil {
				return err
			}
			if err := a.store.CreateVolume(ctx, v); err != nil {
				return err
			}
			a.broker.Publish(&events.Event{
				Type:     events.EventVolumeCreated,
				Metadata: map[string]string{"volume_id": v.ID, "name": name},
			})
		} else if err != nil {
			return err
		}

		hostPath, err := a.volumes.Mount(v)
		if err != nil {
			return err
		}
		mounts[i].Type = "bind"
		mounts[i].Source = hostPath
		if len(mounts[i].Options) == 0 {
			mounts[i].Options = []string{"rbind", "rw"}
		}
	}
	return nil
}

// validateSpec runs the configured Validator over spec's security section
// and, on acceptance, returns the AcceptedConfiguration for
// lifecycle.Create. Validate's pass/fail code and the struct extraction are
// deliberately two calls, mirroring the FFI-shaped boundary's own
// code-only contract.
func validateSpec(a *app, spec *bundlecfg.Spec) (types.AcceptedConfiguration, error) {
	wire, err := spec.ToWireConfig()
	if err != nil {
		return types.AcceptedConfiguration{}, fmt.Errorf("vordr: run: %w", err)
	}

	code, err := a.validator.Validate(wire)
	if err != nil {
		return types.AcceptedConfiguration{}, fmt.Errorf("vordr: run: %w", err)
	}
	if gatekeeper.Kind(code) != gatekeeper.Accepted {
		kind := gatekeeper.Kind(code)
		metrics.GatekeeperRejectionsTotal.WithLabelValues(kind.String()).Inc()
		return types.AcceptedConfiguration{}, fmt.Errorf("vordr: run: configuration rejected: %s", a.validator.ErrorMessage(code))
	}

	cfg, err := gatekeeper.ParseConfiguration(wire)
	if err != nil {
		return types.AcceptedConfiguration{}, fmt.Errorf("vordr: run: %w", err)
	}
	return types.AcceptedConfiguration{
		Privileged:      cfg.Privileged,
		UserNamespace:   cfg.UserNamespace,
		UserID:          cfg.UserID,
		NetworkMode:     cfg.NetworkMode,
		Capabilities:    cfg.Capabilities,
		NoNewPrivileges: cfg.NoNewPrivileges,
		ReadonlyRootfs:  cfg.ReadonlyRootfs,
	}, nil
}
