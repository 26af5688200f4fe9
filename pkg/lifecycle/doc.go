/*
Package lifecycle is the container state machine: it is the only component
that moves a container between Created, Running, Paused, and Stopped, and
the only component that calls into both pkg/storage and pkg/runtimeshim in
the same operation.

# State machine

	        create               start                  stop (TERM, then KILL)
	  ─────► Created ─────► Running ────────────────────► Stopped
	                          ▲ │
	                   resume │ │ pause
	                          │ ▼
	                        Paused

Every exported method guards on the state it requires before doing
anything; a guard failure returns *InvalidTransition and changes nothing.
The durable state-store row is always the last thing a successful
transition touches — Create writes the bundle directory before the row,
Start asks the runtime before recording its pid, Stop sends signals before
clearing the row's pid. A transition that fails partway either has not
touched durable state yet, or (Create only) cleans up the directory it
made before returning, so every failure is safely retriable.

Log lines follow pkg/log's component convention (log.WithComponent(
"lifecycle")); lifecycle events publish to pkg/events after the state
write commits, and pkg/metrics records operation counts/durations as the
last step of every Create, Start, Stop, Kill, Pause, Resume and Delete
call, successful or not (Wait and Exec record no metrics).
*/
package lifecycle
