package ocispec

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"

	"github.com/cuemby/vordr/pkg/types"
)

const specVersion = "1.0.2"

var defaultEnv = []string{
	"PATH=/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin:/sbin:/bin",
	"TERM=xterm",
}

// Options carries the caller-supplied cap_add/cap_drop lists that sit
// alongside an AcceptedConfiguration but are not part of the gatekeeper's
// own decision — they only ever narrow or widen within what the
// gatekeeper already allowed.
type Options struct {
	CapAdd  []string
	CapDrop []string
	GID     uint32
	Mounts  []types.Mount
}

// Build renders an accepted configuration, run parameters, and a rootfs
// path into a complete OCI runtime spec. It performs no validation of its
// own: cfg must already have passed gatekeeper.Validate.
func Build(cfg types.AcceptedConfiguration, params types.RunParams, rootfsPath string, opts Options) *specs.Spec {
	namespaces := []specs.LinuxNamespace{
		{Type: specs.PIDNamespace},
		{Type: specs.NetworkNamespace},
		{Type: specs.IPCNamespace},
		{Type: specs.UTSNamespace},
		{Type: specs.MountNamespace},
	}
	if cfg.UserNamespace {
		namespaces = append(namespaces, specs.LinuxNamespace{Type: specs.UserNamespace})
	}

	caps := resolveCapabilities(cfg.Privileged, append(append([]string(nil), cfg.Capabilities...), opts.CapAdd...), opts.CapDrop)
	capSet := &specs.LinuxCapabilities{
		Bounding:    caps,
		Effective:   caps,
		Inheritable: caps,
		Permitted:   caps,
		Ambient:     caps,
	}

	command := params.Command
	if len(command) == 0 {
		command = []string{"/bin/sh"}
	}
	cwd := params.Cwd
	if cwd == "" {
		cwd = "/"
	}
	env := append(append([]string(nil), defaultEnv...), params.Env...)

	mounts := defaultMounts()
	for _, m := range opts.Mounts {
		mounts = append(mounts, specs.Mount{
			Source: m.Source, Destination: m.Destination, Type: m.Type, Options: m.Options,
		})
	}
	for _, m := range params.ExtraMounts {
		mounts = append(mounts, specs.Mount{
			Source: m.Source, Destination: m.Destination, Type: m.Type, Options: m.Options,
		})
	}

	spec := &specs.Spec{
		Version: specVersion,
		Root: &specs.Root{
			Path:     rootfsPath,
			Readonly: cfg.ReadonlyRootfs,
		},
		Process: &specs.Process{
			Terminal: params.Terminal,
			User: specs.User{
				UID: cfg.UserID,
				GID: opts.GID,
			},
			Args:            command,
			Env:             env,
			Cwd:             cwd,
			Capabilities:    capSet,
			NoNewPrivileges: cfg.NoNewPrivileges,
		},
		Mounts: mounts,
		Linux: &specs.Linux{
			Namespaces: namespaces,
		},
	}
	if params.Hostname != "" {
		spec.Hostname = params.Hostname
	}
	return spec
}
