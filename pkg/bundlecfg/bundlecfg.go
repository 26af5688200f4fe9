package bundlecfg

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/vordr/pkg/types"
)

// Spec is the run-spec file format accepted by `vordr run -f <file>`.
type Spec struct {
	Name     string       `yaml:"name" json:"name"`
	Image    string       `yaml:"image" json:"image"`
	Command  []string     `yaml:"command,omitempty" json:"command,omitempty"`
	Env      []string     `yaml:"env,omitempty" json:"env,omitempty"`
	Cwd      string       `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Hostname string       `yaml:"hostname,omitempty" json:"hostname,omitempty"`
	// Terminal allocates a pty for the container's init process. Defaults
	// to true (matching original_source's OciConfigBuilder::new()) when
	// the caller's run-spec omits the field.
	Terminal *bool        `yaml:"terminal,omitempty" json:"terminal,omitempty"`
	Mounts   []MountSpec  `yaml:"mounts,omitempty" json:"mounts,omitempty"`
	Ports    []PortSpec   `yaml:"ports,omitempty" json:"ports,omitempty"`
	Security SecuritySpec `yaml:"security,omitempty" json:"security,omitempty"`
}

// MountSpec is a caller-declared bind mount.
type MountSpec struct {
	Source      string   `yaml:"source" json:"source"`
	Destination string   `yaml:"destination" json:"destination"`
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Options     []string `yaml:"options,omitempty" json:"options,omitempty"`
}

// PortSpec is a caller-declared port exposure.
type PortSpec struct {
	ContainerPort int    `yaml:"containerPort" json:"containerPort"`
	HostPort      int    `yaml:"hostPort" json:"hostPort"`
	Protocol      string `yaml:"protocol,omitempty" json:"protocol,omitempty"`
}

// SecuritySpec carries the same fields the gatekeeper's textual
// configuration accepts; Load does not validate them, it only parses them
// into the shape ToWireConfig serializes for gatekeeper.Validate.
type SecuritySpec struct {
	UID             uint32   `yaml:"uid,omitempty" json:"uid,omitempty"`
	NoNewPrivileges *bool    `yaml:"noNewPrivileges,omitempty" json:"noNewPrivileges,omitempty"`
	Capabilities    []string `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	ReadonlyRootfs  bool     `yaml:"readonlyRootfs,omitempty" json:"readonlyRootfs,omitempty"`
	UserNamespace   bool     `yaml:"userNamespace,omitempty" json:"userNamespace,omitempty"`
	NetworkMode     string   `yaml:"networkMode,omitempty" json:"networkMode,omitempty"`
	Privileged      bool     `yaml:"privileged,omitempty" json:"privileged,omitempty"`
}

// Load reads a run-spec from path. Files named *.json are parsed as JSON;
// everything else is parsed as YAML, which also accepts plain JSON since
// JSON is a subset of YAML 1.2's flow style.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundlecfg: read %s: %w", path, err)
	}

	var spec Spec
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("bundlecfg: parse %s as JSON: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return nil, fmt.Errorf("bundlecfg: parse %s as YAML: %w", path, err)
		}
	}

	if spec.Name == "" {
		return nil, fmt.Errorf("bundlecfg: %s: name is required", path)
	}
	if spec.Image == "" {
		return nil, fmt.Errorf("bundlecfg: %s: image is required", path)
	}
	return &spec, nil
}

// wireConfig mirrors the nested JSON shape gatekeeper.parseText expects.
// It is redeclared here rather than imported because the gatekeeper keeps
// its wire type unexported — the FFI-shaped boundary takes a JSON string,
// not a Go struct, and this package is just another caller of that string
// boundary.
type wireConfig struct {
	Process struct {
		User struct {
			UID uint32 `json:"uid"`
		} `json:"user"`
		NoNewPrivileges *bool    `json:"noNewPrivileges"`
		Capabilities    []string `json:"capabilities"`
	} `json:"process"`
	Root struct {
		Readonly bool `json:"readonly"`
	} `json:"root"`
	Linux struct {
		Namespaces  []wireNamespace `json:"namespaces"`
		NetworkMode string          `json:"network_mode"`
		Privileged  bool            `json:"privileged"`
	} `json:"linux"`
}

type wireNamespace struct {
	Type string `json:"type"`
}

// ToWireConfig serializes Security to the textual form gatekeeper.Validate
// and gatekeeper.Sanitise accept.
func (s Spec) ToWireConfig() (string, error) {
	var w wireConfig
	w.Process.User.UID = s.Security.UID
	w.Process.NoNewPrivileges = s.Security.NoNewPrivileges
	w.Process.Capabilities = s.Security.Capabilities
	w.Root.Readonly = s.Security.ReadonlyRootfs
	w.Linux.NetworkMode = s.Security.NetworkMode
	w.Linux.Privileged = s.Security.Privileged
	if s.Security.UserNamespace {
		w.Linux.Namespaces = []wireNamespace{{Type: "user"}}
	}

	out, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("bundlecfg: marshal wire configuration: %w", err)
	}
	return string(out), nil
}

// ToRunParams lowers the spec's invocation fields to types.RunParams.
func (s Spec) ToRunParams() types.RunParams {
	mounts := make([]types.Mount, len(s.Mounts))
	for i, m := range s.Mounts {
		mtype := m.Type
		if mtype == "" {
			mtype = "bind"
		}
		mounts[i] = types.Mount{
			Source:      m.Source,
			Destination: m.Destination,
			Type:        mtype,
			Options:     m.Options,
		}
	}

	ports := make([]types.PortMapping, len(s.Ports))
	for i, p := range s.Ports {
		proto := p.Protocol
		if proto == "" {
			proto = "tcp"
		}
		ports[i] = types.PortMapping{
			ContainerPort: p.ContainerPort,
			HostPort:      p.HostPort,
			Protocol:      proto,
		}
	}

	terminal := true
	if s.Terminal != nil {
		terminal = *s.Terminal
	}

	return types.RunParams{
		Command:      s.Command,
		Env:          s.Env,
		Terminal:     terminal,
		Cwd:          s.Cwd,
		Hostname:     s.Hostname,
		ExtraMounts:  mounts,
		PortMappings: ports,
	}
}
