package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuemby/vordr/pkg/types"
)

func (s *SQLiteStore) CreateContainer(ctx context.Context, c *types.Container) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO containers (id, name, image_id, bundle_path, state, config)
		 VALUES (?, ?, ?, ?, 'created', ?)`,
		c.ID, c.Name, c.ImageID, c.BundlePath, c.Config)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", ErrContainerAlreadyExists, c.Name)
		}
		return fmt.Errorf("storage: create container: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetContainer(ctx context.Context, idOrName string) (*types.Container, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, image_id, bundle_path, state, pid, exit_code,
		        created_at, started_at, finished_at, config
		 FROM containers WHERE id = ? OR name = ?`,
		idOrName, idOrName)
	return scanContainer(row)
}

func (s *SQLiteStore) ListContainers(ctx context.Context, state *types.ContainerState) ([]*types.Container, error) {
	var rows *sql.Rows
	var err error
	if state != nil {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, name, image_id, bundle_path, state, pid, exit_code,
			        created_at, started_at, finished_at, config
			 FROM containers WHERE state = ? ORDER BY created_at DESC`, string(*state))
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, name, image_id, bundle_path, state, pid, exit_code,
			        created_at, started_at, finished_at, config
			 FROM containers ORDER BY created_at DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: list containers: %w", err)
	}
	defer rows.Close()

	var containers []*types.Container
	for rows.Next() {
		c, err := scanContainer(rows)
		if err != nil {
			return nil, err
		}
		containers = append(containers, c)
	}
	return containers, rows.Err()
}

// SetContainerState transitions a container's state and, depending on the
// target state, stamps started_at or finished_at: started_at on the first
// transition to running only (a resume from paused keeps the original),
// finished_at on any transition to stopped. pid is recorded verbatim
// (nil clears it, as happens on Stop).
func (s *SQLiteStore) SetContainerState(ctx context.Context, id string, state types.ContainerState, pid *int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE containers SET state = ?, pid = ?,
		   started_at = CASE WHEN ? = 'running' AND started_at IS NULL THEN strftime('%Y-%m-%dT%H:%M:%fZ','now') ELSE started_at END,
		   finished_at = CASE WHEN ? = 'stopped' THEN strftime('%Y-%m-%dT%H:%M:%fZ','now') ELSE finished_at END
		 WHERE id = ?`,
		string(state), nullInt(pid), string(state), string(state), id)
	if err != nil {
		return fmt.Errorf("storage: set container state: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) SetContainerExitCode(ctx context.Context, id string, exitCode int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE containers SET exit_code = ?, state = 'stopped',
		   finished_at = strftime('%Y-%m-%dT%H:%M:%fZ','now') WHERE id = ?`,
		exitCode, id)
	if err != nil {
		return fmt.Errorf("storage: set container exit code: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) DeleteContainer(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM containers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete container: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, id)
	}
	return nil
}

func scanContainer(row rowScanner) (*types.Container, error) {
	var c types.Container
	var stateStr string
	var pid, exitCode sql.NullInt64
	var createdAt string
	var startedAt, finishedAt sql.NullString
	var config sql.NullString

	err := row.Scan(&c.ID, &c.Name, &c.ImageID, &c.BundlePath, &stateStr, &pid, &exitCode,
		&createdAt, &startedAt, &finishedAt, &config)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContainerNotFound
		}
		return nil, fmt.Errorf("storage: scan container: %w", err)
	}

	c.State = types.ContainerState(stateStr)
	c.PID = intPtr(pid)
	c.ExitCode = intPtr(exitCode)
	c.CreatedAt = parseTimestamp(createdAt)
	c.StartedAt = parseNullTimestamp(startedAt)
	c.FinishedAt = parseNullTimestamp(finishedAt)
	c.Config = config.String
	return &c, nil
}
