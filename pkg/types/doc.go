/*
Package types defines the entities shared by every other package in the
engine: containers, images, networks, volumes, their cross-references, and
the advisory locks used for cross-process coordination.

These are plain structs with no persistence or validation logic attached —
pkg/storage owns persistence, pkg/gatekeeper owns validation. Optional fields
that the state store represents as nullable columns use pointers here
(Container.PID, Container.ExitCode, Container.StartedAt/FinishedAt) so a zero
value and "not yet set" are distinguishable.
*/
package types
