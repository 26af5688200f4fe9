package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuemby/vordr/pkg/types"
)

func (s *SQLiteStore) CreateImage(ctx context.Context, img *types.Image) error {
	tagsJSON, err := json.Marshal(img.Tags)
	if err != nil {
		return fmt.Errorf("storage: marshal image tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO images (id, digest, repository, tags, size) VALUES (?, ?, ?, ?, ?)`,
		img.ID, img.Digest, img.Repository, string(tagsJSON), img.Size)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", ErrImageAlreadyExists, img.Digest)
		}
		return fmt.Errorf("storage: create image: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetImage(ctx context.Context, idOrDigest string) (*types.Image, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, digest, repository, tags, size, created_at FROM images WHERE id = ? OR digest = ?`,
		idOrDigest, idOrDigest)
	return scanImage(row)
}

func (s *SQLiteStore) ListImages(ctx context.Context) ([]*types.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, digest, repository, tags, size, created_at FROM images ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("storage: list images: %w", err)
	}
	defer rows.Close()

	var images []*types.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteStore) DeleteImage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("storage: delete image: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrImageNotFound, id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(row rowScanner) (*types.Image, error) {
	var img types.Image
	var tagsJSON string
	var repository sql.NullString
	var createdAt string

	if err := row.Scan(&img.ID, &img.Digest, &repository, &tagsJSON, &img.Size, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("storage: scan image: %w", err)
	}
	img.Repository = repository.String
	img.CreatedAt = parseTimestamp(createdAt)
	_ = json.Unmarshal([]byte(tagsJSON), &img.Tags)
	return &img, nil
}
