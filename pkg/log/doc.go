/*
Package log provides structured logging for vordr using zerolog.

A single package-level Logger is initialized once via Init and read from
everywhere else; component-specific child loggers (WithComponent,
WithContainerID) attach a field and are otherwise ordinary zerolog.Logger
values.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true, Output: os.Stdout})
	log.Info("engine starting")

	shimLog := log.WithComponent("runtimeshim")
	shimLog.Info().Str("container_id", id).Msg("create invoked")

Console output (human-readable, colorized) is what Init produces unless
JSONOutput is set; pass JSONOutput: true for machine-readable JSON lines.

Never log secrets or full configuration blobs; log identifiers and
outcomes instead.
*/
package log
