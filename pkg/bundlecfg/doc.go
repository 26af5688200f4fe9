// Package bundlecfg reads the textual run-spec format the thin CLI accepts
// with `vordr run -f <file>`. A spec is YAML or JSON — the two parse to the
// same in-memory Spec, mirroring how the gatekeeper accepts its own textual
// configuration as either encoding over the wire.
//
// Spec carries two concerns that the rest of the engine keeps separate:
// the container's security posture (Spec.Security, lowered to the exact
// nested JSON shape gatekeeper.Validate expects) and its run parameters
// (command, env, mounts, ports, lowered to types.RunParams). Loading a
// spec never validates it — that is still the gatekeeper's job alone; this
// package only gets a caller-authored file into the shapes downstream code
// already speaks.
package bundlecfg
