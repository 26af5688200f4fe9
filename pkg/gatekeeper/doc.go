/*
Package gatekeeper is the pure security policy validator sitting in front
of every container launch. It has no I/O, no clock, and no randomness: the
same Configuration always produces the same outcome.

# Architecture

	┌────────────────────── GATEKEEPER ───────────────────────┐
	│                                                          │
	│   textual config ──► parseText ──► Configuration         │
	│                                         │                │
	│                                         ▼                │
	│                                     Validate             │
	│                            (closed rejection-kind set)   │
	│                                         │                │
	│                         ┌───────────────┼──────────────┐ │
	│                         ▼               ▼              ▼ │
	│                   Accepted       Rejection(kind)   (never)│
	│              AcceptedConfiguration                        │
	└──────────────────────────────────────────────────────────┘

Validate checks, in order, the first applicable rejection wins:

 1. InvalidCapabilities   — SYS_ADMIN without privileged
 2. InvalidUserNamespace  — uid 0 without a user namespace
 3. InvalidNetworkMode    — NET_ADMIN with Unprivileged network mode
 4. InvalidPrivilegeEscape — no_new_privileges=false and no user namespace

Validate itself (gatekeeper.go) never touches JSON; ffi.go and wire.go sit
above it and implement the four-entry-point textual contract a caller on
the other side of a language boundary would see: Validate(text) → int,
ErrorMessage(code) → text, Sanitise(text, buf) → int, Version() → text. Native
is the always-enforcing implementation; Stub always accepts and exists only
for local development (see its doc comment).

# Why no I/O

Keeping this package pure makes it trivially safe to call from any thread,
to fuzz, and to reimplement in a different language without touching any
caller — which is exactly the portability property the wire contract in
ffi.go is designed to preserve.
*/
package gatekeeper
