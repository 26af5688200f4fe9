// Package gatekeeper is the pure security policy validator: the only path
// to launching a container. It has no I/O and no side effects — every
// Configuration maps to exactly one outcome, deterministically.
package gatekeeper

import (
	"strings"

	"github.com/cuemby/vordr/pkg/types"
)

// Kind is a rejection reason. The numeric values are part of the wire
// contract crossing the FFI-shaped boundary in ffi.go and must not change.
type Kind int

const (
	// Accepted is the zero value: validation succeeded.
	Accepted Kind = iota
	InvalidCapabilities
	InvalidUserNamespace
	InvalidNetworkMode
	InvalidPrivilegeEscape
	ParseError
	InternalError
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case InvalidCapabilities:
		return "SYS_ADMIN capability requires privileged mode"
	case InvalidUserNamespace:
		return "root UID (0) requires user namespace to be enabled"
	case InvalidNetworkMode:
		return "NET_ADMIN capability requires Restricted or Admin network mode"
	case InvalidPrivilegeEscape:
		return "potential privilege escalation: set no_new_privileges or enable user namespace"
	case ParseError:
		return "failed to parse configuration"
	default:
		return "internal error in gatekeeper"
	}
}

// Configuration is the normalised record validate operates on — the
// result of parsing the textual wire form (see wire.go).
type Configuration struct {
	Privileged      bool
	UserNamespace   bool
	UserID          uint32
	NetworkMode     types.NetworkMode
	Capabilities    []string
	NoNewPrivileges bool
	ReadonlyRootfs  bool
}

// Rejection describes why a Configuration failed validation.
type Rejection struct {
	Kind Kind
}

func (r Rejection) Error() string { return r.Kind.String() }

// Validate is total and referentially transparent: the same Configuration
// always produces the same outcome. Checks run in a fixed order and the
// first applicable rejection wins.
func Validate(cfg Configuration) (types.AcceptedConfiguration, *Rejection) {
	if hasCapability(cfg.Capabilities, "SYS_ADMIN") && !cfg.Privileged {
		return types.AcceptedConfiguration{}, &Rejection{InvalidCapabilities}
	}
	if cfg.UserID == 0 && !cfg.UserNamespace {
		return types.AcceptedConfiguration{}, &Rejection{InvalidUserNamespace}
	}
	if hasCapability(cfg.Capabilities, "NET_ADMIN") && cfg.NetworkMode == types.NetworkUnprivileged {
		return types.AcceptedConfiguration{}, &Rejection{InvalidNetworkMode}
	}
	if !cfg.NoNewPrivileges && !cfg.UserNamespace {
		return types.AcceptedConfiguration{}, &Rejection{InvalidPrivilegeEscape}
	}

	return types.AcceptedConfiguration{
		Privileged:      cfg.Privileged,
		UserNamespace:   cfg.UserNamespace,
		UserID:          cfg.UserID,
		NetworkMode:     cfg.NetworkMode,
		Capabilities:    append([]string(nil), cfg.Capabilities...),
		NoNewPrivileges: cfg.NoNewPrivileges,
		ReadonlyRootfs:  cfg.ReadonlyRootfs,
	}, nil
}

// hasCapability reports whether caps contains name, tolerating both the
// bare name ("SYS_ADMIN") and the "CAP_"-prefixed form callers may already
// normalise to.
func hasCapability(caps []string, name string) bool {
	bare := strings.TrimPrefix(strings.ToUpper(name), "CAP_")
	for _, c := range caps {
		if strings.TrimPrefix(strings.ToUpper(c), "CAP_") == bare {
			return true
		}
	}
	return false
}
