// Package ocispec turns an accepted gatekeeper configuration and a set of
// run parameters into a complete OCI runtime-spec bundle config.json. It
// never decides policy — every security-relevant choice already happened
// in pkg/gatekeeper — it only renders the decision into the shape the
// runtime shim's external binary expects.
package ocispec
