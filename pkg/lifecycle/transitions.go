package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/cuemby/vordr/pkg/events"
	"github.com/cuemby/vordr/pkg/metrics"
	"github.com/cuemby/vordr/pkg/types"
)

const syscallSIGKILL = syscall.SIGKILL

// pollInterval is the liveness-poll and wait-poll period.
const pollInterval = 100 * time.Millisecond

// Start guards on Created, invokes the runtime shim, and records the pid
// the runtime reports. If the shim fails, the row is left exactly as it
// was — Created, bundle intact — so the caller can retry Start safely.
func (m *Manager) Start(ctx context.Context, id string) (*types.Container, error) {
	timer := metrics.NewTimer()
	outcome := "error"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, "start")
		metrics.ContainerOperationsTotal.WithLabelValues("start", outcome).Inc()
	}()

	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: start: %w", err)
	}
	if c.State != types.StateCreated {
		return nil, &InvalidTransition{From: c.State, To: types.StateRunning}
	}

	pid, err := m.shim(c.BundlePath).CreateAndStart(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("lifecycle: start: %w", err)
	}

	if err := m.store.SetContainerState(ctx, c.ID, types.StateRunning, &pid); err != nil {
		return nil, fmt.Errorf("lifecycle: start: record running state: %w", err)
	}

	c.State = types.StateRunning
	c.PID = &pid
	m.log.Info().Str("container_id", id).Int("pid", pid).Msg("container started")
	m.publish(events.EventContainerStarted, id, "")
	outcome = "success"
	return c, nil
}

// Stop guards on Running and performs the two-phase graceful shutdown:
// SIGTERM, poll for up to timeout, SIGKILL if the process is still alive
// at the deadline. A Timeout here is never surfaced as an error — the
// SIGKILL fallback makes Stop total, always reaching Stopped.
func (m *Manager) Stop(ctx context.Context, id string, timeout time.Duration) error {
	timer := metrics.NewTimer()
	outcome := "error"
	forced := "false"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, "stop")
		metrics.ContainerOperationsTotal.WithLabelValues("stop", outcome).Inc()
	}()

	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("lifecycle: stop: %w", err)
	}
	if c.State != types.StateRunning {
		return &InvalidTransition{From: c.State, To: types.StateStopped}
	}
	if c.PID == nil {
		return ErrMissingPID
	}
	pid := *c.PID

	if err := killProcess(pid, syscall.SIGTERM); err != nil && !isProcessGone(err) {
		return fmt.Errorf("lifecycle: stop: send SIGTERM: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for processAlive(pid) && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if processAlive(pid) {
		forced = "true"
		m.log.Warn().Str("container_id", id).Int("pid", pid).Msg("graceful stop timed out, sending SIGKILL")
		if err := killProcess(pid, syscallSIGKILL); err != nil && !isProcessGone(err) {
			return fmt.Errorf("lifecycle: stop: send SIGKILL: %w", err)
		}
		// Give the kernel a moment to reap the process before we declare
		// the container stopped.
		for processAlive(pid) && time.Now().Before(deadline.Add(timeout)) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollInterval):
			}
		}
	}

	if err := m.store.SetContainerState(ctx, c.ID, types.StateStopped, nil); err != nil {
		return fmt.Errorf("lifecycle: stop: record stopped state: %w", err)
	}

	m.log.Info().Str("container_id", id).Str("forced", forced).Msg("container stopped")
	m.publish(events.EventContainerStopped, id, "")
	outcome = "success"
	return nil
}

// Kill sends sig to the container's pid without updating durable state;
// the runtime's next state query observes the transition. Guard: Running.
func (m *Manager) Kill(ctx context.Context, id string, sig syscall.Signal, all bool) error {
	timer := metrics.NewTimer()
	outcome := "error"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, "kill")
		metrics.ContainerOperationsTotal.WithLabelValues("kill", outcome).Inc()
	}()

	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("lifecycle: kill: %w", err)
	}
	if c.State != types.StateRunning {
		return &InvalidTransition{From: c.State, To: types.StateRunning}
	}

	if err := m.shim(c.BundlePath).Kill(ctx, c.ID, int(sig), all); err != nil {
		return fmt.Errorf("lifecycle: kill: %w", err)
	}
	m.publish(events.EventContainerKilled, id, "")
	outcome = "success"
	return nil
}

// Pause guards on Running and asks the runtime to freeze the container's
// cgroup. The concrete freezer mechanism is a platform-specific side
// effect of the runtime binary; this package only sequences it with the
// state store.
func (m *Manager) Pause(ctx context.Context, id string) error {
	return m.freeze(ctx, id, types.StateRunning, types.StatePaused, events.EventContainerPaused, false)
}

// Resume reverses Pause. Guard: Paused.
func (m *Manager) Resume(ctx context.Context, id string) error {
	return m.freeze(ctx, id, types.StatePaused, types.StateRunning, events.EventContainerResumed, true)
}

func (m *Manager) freeze(ctx context.Context, id string, from, to types.ContainerState, evt events.EventType, resume bool) error {
	op := "pause"
	if resume {
		op = "resume"
	}
	timer := metrics.NewTimer()
	outcome := "error"
	defer func() {
		timer.ObserveDurationVec(metrics.ContainerOperationDuration, op)
		metrics.ContainerOperationsTotal.WithLabelValues(op, outcome).Inc()
	}()

	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return fmt.Errorf("lifecycle: %s: %w", op, err)
	}
	if c.State != from {
		return &InvalidTransition{From: c.State, To: to}
	}

	shim := m.shim(c.BundlePath)
	if resume {
		err = shim.Resume(ctx, c.ID)
	} else {
		err = shim.Pause(ctx, c.ID)
	}
	if err != nil {
		return fmt.Errorf("lifecycle: %s: %w", op, err)
	}

	if err := m.store.SetContainerState(ctx, c.ID, to, c.PID); err != nil {
		return fmt.Errorf("lifecycle: %s: record state: %w", op, err)
	}
	m.log.Info().Str("container_id", id).Msg("container " + op + "d")
	m.publish(evt, id, "")
	outcome = "success"
	return nil
}

// Wait blocks until the container's runtime-level process exits, then
// records its exit code and transitions the row to Stopped. Wait itself
// polls indefinitely; callers that want a bounded wait pass a context
// with a deadline.
func (m *Manager) Wait(ctx context.Context, id string) (int, error) {
	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: wait: %w", err)
	}

	code, err := m.shim(c.BundlePath).Wait(ctx, c.ID)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: wait: %w", err)
	}

	if err := m.store.SetContainerExitCode(ctx, c.ID, code); err != nil {
		return code, fmt.Errorf("lifecycle: wait: record exit code: %w", err)
	}
	m.publish(events.EventContainerStopped, id, "")
	return code, nil
}

// Exec starts an additional process inside a running container. Guard:
// Running.
func (m *Manager) Exec(ctx context.Context, id string, processSpecJSON string, tty bool) (int, error) {
	c, err := m.store.GetContainer(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: exec: %w", err)
	}
	if c.State != types.StateRunning {
		return 0, &InvalidTransition{From: c.State, To: types.StateRunning}
	}
	pid, err := m.shim(c.BundlePath).Exec(ctx, c.ID, processSpecJSON, tty)
	if err != nil {
		return 0, fmt.Errorf("lifecycle: exec: %w", err)
	}
	return pid, nil
}

// killProcess sends sig to pid directly — the lifecycle manager signals
// processes itself rather than round-tripping through the runtime shim,
// since it already has the pid on hand from the container row.
func killProcess(pid int, sig syscall.Signal) error {
	return syscall.Kill(pid, sig)
}

// processAlive probes pid with signal 0, same technique pkg/storage uses
// to detect stale lock owners.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func isProcessGone(err error) bool {
	return errors.Is(err, syscall.ESRCH)
}
