package storage

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// LockHooks lets a caller observe lock contention and stale-lock reaping.
// pkg/metrics already imports pkg/storage (for Collector), so this package
// cannot import pkg/metrics back without a cycle; a caller that depends on
// both (cmd/vordr) wires these closures to the Prometheus counters instead.
type LockHooks struct {
	OnStaleReaped func()
	OnContention  func()
}

// SetLockHooks installs hs, replacing any previously set hooks. Passing
// the zero value disables observation again.
func (s *SQLiteStore) SetLockHooks(hs LockHooks) {
	s.lockHooks = hs
}

// AcquireLock takes an advisory lock on (resourceType, resourceID) for the
// calling process. Locks left behind by processes that have since died are
// reaped first, so a crashed holder never wedges the resource permanently.
func (s *SQLiteStore) AcquireLock(ctx context.Context, resourceType, resourceID string) error {
	if err := s.cleanupStaleLocks(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO locks (resource_type, resource_id, owner_pid) VALUES (?, ?, ?)`,
		resourceType, resourceID, os.Getpid())
	if err != nil {
		if isConstraintViolation(err) {
			if s.lockHooks.OnContention != nil {
				s.lockHooks.OnContention()
			}
			return fmt.Errorf("%w: %s:%s", ErrLockHeld, resourceType, resourceID)
		}
		return fmt.Errorf("storage: acquire lock: %w", err)
	}
	return nil
}

// ReleaseLock drops the lock, but only if this process is the owner
// recorded at acquisition time.
func (s *SQLiteStore) ReleaseLock(ctx context.Context, resourceType, resourceID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM locks WHERE resource_type = ? AND resource_id = ? AND owner_pid = ?`,
		resourceType, resourceID, os.Getpid())
	if err != nil {
		return fmt.Errorf("storage: release lock: %w", err)
	}
	return nil
}

func (s *SQLiteStore) cleanupStaleLocks(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT resource_type, resource_id, owner_pid FROM locks`)
	if err != nil {
		return fmt.Errorf("storage: list locks: %w", err)
	}

	type lockRow struct {
		resourceType, resourceID string
		ownerPID                 int
	}
	var stale []lockRow
	for rows.Next() {
		var l lockRow
		if err := rows.Scan(&l.resourceType, &l.resourceID, &l.ownerPID); err != nil {
			rows.Close()
			return fmt.Errorf("storage: scan lock: %w", err)
		}
		if !processExists(l.ownerPID) {
			stale = append(stale, l)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range stale {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM locks WHERE resource_type = ? AND resource_id = ?`,
			l.resourceType, l.resourceID); err != nil {
			return fmt.Errorf("storage: reap stale lock: %w", err)
		}
		if s.lockHooks.OnStaleReaped != nil {
			s.lockHooks.OnStaleReaped()
		}
	}
	return nil
}

// processExists probes pid with signal 0: delivery succeeds (err nil) or
// fails with EPERM when the process exists, and fails with ESRCH when it
// does not. Neither case affects the target process.
func processExists(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
