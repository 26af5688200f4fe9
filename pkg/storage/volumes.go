package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuemby/vordr/pkg/types"
)

func (s *SQLiteStore) CreateVolume(ctx context.Context, v *types.Volume) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO volumes (id, name, driver, mountpoint, options, labels) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Name, v.Driver, v.Mountpoint, v.Options, v.Labels)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", ErrVolumeAlreadyExists, v.Name)
		}
		return fmt.Errorf("storage: create volume: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetVolume(ctx context.Context, idOrName string) (*types.Volume, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, driver, mountpoint, options, labels, created_at
		 FROM volumes WHERE id = ? OR name = ?`, idOrName, idOrName)
	return scanVolume(row)
}

func (s *SQLiteStore) ListVolumes(ctx context.Context) ([]*types.Volume, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, driver, mountpoint, options, labels, created_at
		 FROM volumes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list volumes: %w", err)
	}
	defer rows.Close()

	var volumes []*types.Volume
	for rows.Next() {
		v, err := scanVolume(rows)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

func (s *SQLiteStore) DeleteVolume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM volumes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete volume: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrVolumeNotFound, id)
	}
	return nil
}

func scanVolume(row rowScanner) (*types.Volume, error) {
	var v types.Volume
	var options, labels sql.NullString
	var createdAt string

	err := row.Scan(&v.ID, &v.Name, &v.Driver, &v.Mountpoint, &options, &labels, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVolumeNotFound
		}
		return nil, fmt.Errorf("storage: scan volume: %w", err)
	}
	v.Options = options.String
	v.Labels = labels.String
	v.CreatedAt = parseTimestamp(createdAt)
	return &v, nil
}
