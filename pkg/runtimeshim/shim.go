package runtimeshim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/vordr/pkg/metrics"
)

// ErrNotFound is returned when the runtime reports that a container id
// does not exist.
var ErrNotFound = errors.New("runtimeshim: container not found")

// ErrSpawnFailed is returned when the runtime binary itself could not be
// located or started — distinct from RuntimeError, which means the binary
// ran and reported a failure.
var ErrSpawnFailed = errors.New("runtimeshim: failed to spawn runtime binary")

// State is the subset of `runtime state <id>` this engine consumes.
type State struct {
	ID     string `json:"id"`
	PID    int    `json:"pid"`
	Status string `json:"status"`
	Bundle string `json:"bundle"`
}

// Client drives one external runtime binary against one bundle directory.
type Client struct {
	runtime    string
	bundlePath string
}

// New returns a Client for the named runtime binary (resolved from PATH,
// or used as-is if it is already absolute) and bundle directory.
func New(runtime, bundlePath string) *Client {
	return &Client{runtime: runtime, bundlePath: bundlePath}
}

func (c *Client) resolve() (string, error) {
	if filepath.IsAbs(c.runtime) {
		return c.runtime, nil
	}
	path, err := exec.LookPath(c.runtime)
	if err != nil {
		return "", fmt.Errorf("%w: %q not found in PATH: %v", ErrSpawnFailed, c.runtime, err)
	}
	return path, nil
}

func (c *Client) run(ctx context.Context, args ...string) (stdout, stderr []byte, err error) {
	command := args[0]
	outcome := "success"
	defer func() {
		metrics.RuntimeShimInvocationsTotal.WithLabelValues(command, outcome).Inc()
	}()

	bin, err := c.resolve()
	if err != nil {
		outcome = "spawn_failed"
		return nil, nil, err
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	if err != nil {
		outcome = "error"
	}
	return outBuf.Bytes(), errBuf.Bytes(), err
}

// CreateAndStart runs `runtime create` then `runtime start` for
// containerID and returns the PID the runtime reports once running.
func (c *Client) CreateAndStart(ctx context.Context, containerID string) (int, error) {
	if _, stderr, err := c.run(ctx, "create", "--bundle", c.bundlePath, containerID); err != nil {
		return 0, fmt.Errorf("runtimeshim: create failed: %s", firstLine(stderr, err))
	}
	if _, stderr, err := c.run(ctx, "start", containerID); err != nil {
		return 0, fmt.Errorf("runtimeshim: start failed: %s", firstLine(stderr, err))
	}
	state, err := c.State(ctx, containerID)
	if err != nil {
		return 0, err
	}
	return state.PID, nil
}

// State runs `runtime state <id>` and parses the JSON it prints.
func (c *Client) State(ctx context.Context, containerID string) (*State, error) {
	stdout, stderr, err := c.run(ctx, "state", containerID)
	if err != nil {
		if strings.Contains(string(stderr), "does not exist") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("runtimeshim: state failed: %s", firstLine(stderr, err))
	}
	var st State
	if err := json.Unmarshal(stdout, &st); err != nil {
		return nil, fmt.Errorf("runtimeshim: parse state: %w", err)
	}
	if st.ID == "" {
		st.ID = containerID
	}
	return &st, nil
}

// Kill sends signal to containerID, optionally to every process in the
// container's cgroup.
func (c *Client) Kill(ctx context.Context, containerID string, signal int, all bool) error {
	args := []string{"kill"}
	if all {
		args = append(args, "--all")
	}
	args = append(args, containerID, strconv.Itoa(signal))

	if _, stderr, err := c.run(ctx, args...); err != nil {
		return fmt.Errorf("runtimeshim: kill failed: %s", firstLine(stderr, err))
	}
	return nil
}

// Delete removes a container's runtime-level state. A "does not exist"
// failure is not an error: delete is idempotent from the caller's view.
func (c *Client) Delete(ctx context.Context, containerID string, force bool) error {
	args := []string{"delete"}
	if force {
		args = append(args, "--force")
	}
	args = append(args, containerID)

	_, stderr, err := c.run(ctx, args...)
	if err != nil && !strings.Contains(string(stderr), "does not exist") {
		return fmt.Errorf("runtimeshim: delete failed: %s", firstLine(stderr, err))
	}
	return nil
}

// Pause freezes every process in the container's cgroup. Not part of the
// create/start/state/kill/delete/exec/wait set most low-level runtimes
// expose as subcommands of their own, but every mainstream one (runc,
// crun, youki) accepts it the same way, so it is modelled the same way as
// Kill rather than given its own client type.
func (c *Client) Pause(ctx context.Context, containerID string) error {
	if _, stderr, err := c.run(ctx, "pause", containerID); err != nil {
		return fmt.Errorf("runtimeshim: pause failed: %s", firstLine(stderr, err))
	}
	return nil
}

// Resume reverses Pause.
func (c *Client) Resume(ctx context.Context, containerID string) error {
	if _, stderr, err := c.run(ctx, "resume", containerID); err != nil {
		return fmt.Errorf("runtimeshim: resume failed: %s", firstLine(stderr, err))
	}
	return nil
}

// Exec starts an additional process inside a running container from a
// process-spec JSON document, writing it into the bundle directory as
// exec.json before invoking the runtime. It returns the PID of the
// spawned runtime child; stdio is inherited from this process.
func (c *Client) Exec(ctx context.Context, containerID, processSpecJSON string, tty bool) (int, error) {
	bin, err := c.resolve()
	if err != nil {
		return 0, err
	}

	specPath := filepath.Join(c.bundlePath, "exec.json")
	if err := os.WriteFile(specPath, []byte(processSpecJSON), 0o600); err != nil {
		return 0, fmt.Errorf("runtimeshim: write exec spec: %w", err)
	}

	args := []string{"exec"}
	if tty {
		args = append(args, "--tty")
	}
	args = append(args, "--process", specPath, containerID)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		metrics.RuntimeShimInvocationsTotal.WithLabelValues("exec", "spawn_failed").Inc()
		return 0, fmt.Errorf("runtimeshim: exec failed to start: %w", err)
	}
	metrics.RuntimeShimInvocationsTotal.WithLabelValues("exec", "success").Inc()
	return cmd.Process.Pid, nil
}

// Wait polls State until the container reports stopped, then returns its
// exit code. A container that has already been deleted is treated as
// having exited with code 0 — there is nothing further to observe.
func (c *Client) Wait(ctx context.Context, containerID string) (int, error) {
	for {
		state, err := c.State(ctx, containerID)
		switch {
		case errors.Is(err, ErrNotFound):
			return 0, nil
		case err != nil:
			return 0, err
		case state.Status == "stopped":
			return c.readExitCode(containerID), nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// readExitCode reads the runtime-written exit code file the bundle
// convention places alongside the rootfs. A missing or unparsable file is
// treated as exit code 0 rather than failing Wait outright.
func (c *Client) readExitCode(containerID string) int {
	data, err := os.ReadFile(filepath.Join(c.bundlePath, "exit"))
	if err != nil {
		return 0
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return code
}

func firstLine(stderr []byte, err error) string {
	s := strings.TrimSpace(string(stderr))
	if s == "" {
		return err.Error()
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return s
}
