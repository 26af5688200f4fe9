package gatekeeper

import (
	"encoding/json"
	"strings"

	"github.com/cuemby/vordr/pkg/types"
)

// wireConfig is the compact textual form a caller sends across the
// boundary: a JSON object carrying the fields Validate needs. This repo
// extends the minimal form with process.capabilities and linux.privileged
// (both optional, defaulting to empty/false) because the closed
// rejection-kind set cannot be decided without them.
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

// parseText converts the textual wire form into a Configuration. An empty
// or malformed buffer is a ParseError.
func parseText(text string) (Configuration, *Rejection) {
	if strings.TrimSpace(text) == "" {
		return Configuration{}, &Rejection{ParseError}
	}

	var w wireConfig
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return Configuration{}, &Rejection{ParseError}
	}

	noNewPrivileges := true
	if w.Process.NoNewPrivileges != nil {
		noNewPrivileges = *w.Process.NoNewPrivileges
	}

	userNamespace := false
	for _, ns := range w.Linux.Namespaces {
		if ns.Type == "user" {
			userNamespace = true
			break
		}
	}

	mode := types.NetworkMode(w.Linux.NetworkMode)
	switch mode {
	case types.NetworkUnprivileged, types.NetworkRestricted, types.NetworkAdmin:
	case "":
		mode = types.NetworkUnprivileged
	default:
		return Configuration{}, &Rejection{ParseError}
	}

	return Configuration{
		Privileged:      w.Linux.Privileged,
		UserNamespace:   userNamespace,
		UserID:          w.Process.User.UID,
		NetworkMode:     mode,
		Capabilities:    w.Process.Capabilities,
		NoNewPrivileges: noNewPrivileges,
		ReadonlyRootfs:  w.Root.Readonly,
	}, nil
}

// ParseConfiguration parses text into a Configuration without running any
// of Validate's rule checks. The FFI-shaped entry points in ffi.go only
// return a pass/fail code, matching what a real language boundary could
// carry; a same-process caller that already has that code (cmd/vordr,
// after calling Validator.Validate) uses this to recover the structured
// fields it needs to build a runtime spec, rather than re-deriving them
// from the code.
func ParseConfiguration(text string) (Configuration, error) {
	if strings.ContainsRune(text, 0) {
		return Configuration{}, ErrNullByte
	}
	cfg, rej := parseText(text)
	if rej != nil {
		return Configuration{}, *rej
	}
	return cfg, nil
}

// sanitiserDefaults lists the fields sanitise will inject when the caller's
// textual configuration omits them. The choice made here never drops a
// user-supplied field and never weakens a user-supplied one — see
// DESIGN.md for why these three and no others.
var sanitiserDefaults = struct {
	noNewPrivileges bool
	userNamespace   bool
	networkMode     string
}{
	noNewPrivileges: true,
	userNamespace:   true,
	networkMode:     string(types.NetworkUnprivileged),
}

// sanitiseText applies sanitiserDefaults to any field the input omits. It
// never validates — the result may still be rejected by Validate.
func sanitiseText(text string) (string, *Rejection) {
	if strings.TrimSpace(text) == "" {
		return "", &Rejection{ParseError}
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return "", &Rejection{ParseError}
	}

	process, _ := raw["process"].(map[string]interface{})
	if process == nil {
		process = map[string]interface{}{}
		raw["process"] = process
	}
	if _, ok := process["noNewPrivileges"]; !ok {
		process["noNewPrivileges"] = sanitiserDefaults.noNewPrivileges
	}

	linux, _ := raw["linux"].(map[string]interface{})
	if linux == nil {
		linux = map[string]interface{}{}
		raw["linux"] = linux
	}
	if _, ok := linux["network_mode"]; !ok {
		linux["network_mode"] = sanitiserDefaults.networkMode
	}
	if sanitiserDefaults.userNamespace {
		namespaces, _ := linux["namespaces"].([]interface{})
		hasUser := false
		for _, ns := range namespaces {
			if m, ok := ns.(map[string]interface{}); ok && m["type"] == "user" {
				hasUser = true
				break
			}
		}
		if _, present := linux["namespaces"]; !present || !hasUser {
			namespaces = append(namespaces, map[string]interface{}{"type": "user"})
			linux["namespaces"] = namespaces
		}
	}

	out, err := json.Marshal(raw)
	if err != nil {
		return "", &Rejection{InternalError}
	}
	return string(out), nil
}
