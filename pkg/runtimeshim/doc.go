/*
Package runtimeshim wraps an external low-level OCI runtime binary (runc,
youki, crun, ...) as a child process. It is the only component that ever
forks the runtime: create, start, state, kill, delete, and exec each
invoke the binary once and parse its exit status and stdout.

# Why a separate package

Keeping this a thin process wrapper, rather than linking a runtime
library, is what lets the engine stay daemonless: the runtime binary is
resolved from PATH (or an absolute path) at call time and never kept
running as a supervised child beyond the lifetime of a single operation.
Wait is the one exception — it polls State in a loop until the container
reports stopped, since the runtime itself does not block for us.
*/
package runtimeshim
