package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts metadata for a new file.
func (r *Repository) Create(ctx context.Context, f File) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, user_id, filename, filetype, size_bytes, object_key)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, filename, filetype, size_bytes, object_key, created_at, updated_at;`

	row := r.pool.QueryRow(ctx, query,
		f.ID,
		f.UserID,
		f.Filename,
		f.Filetype,
		f.SizeBytes,
		f.ObjectKey,
	)

	var stored File
	if err := row.Scan(&stored.ID, &stored.UserID, &stored.Filename, &stored.Filetype, &stored.SizeBytes, &stored.ObjectKey, &stored.CreatedAt, &stored.UpdatedAt); err != nil {
		return File{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// ListByUser returns files owned by the user, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, user_id, filename, filetype, size_bytes, object_key, created_at, updated_at
FROM files
WHERE user_id = $1
ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.Filetype, &f.SizeBytes, &f.ObjectKey, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// Get fetches metadata for a single file scoped by owner. A file that
// exists but belongs to someone else yields the same ErrFileNotFound as a
// nonexistent one.
func (r *Repository) Get(ctx context.Context, userID, fileID uuid.UUID) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, user_id, filename, filetype, size_bytes, object_key, created_at, updated_at
FROM files
WHERE id = $1 AND user_id = $2;`

	var f File
	err := r.pool.QueryRow(ctx, query, fileID, userID).Scan(
		&f.ID,
		&f.UserID,
		&f.Filename,
		&f.Filetype,
		&f.SizeBytes,
		&f.ObjectKey,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file metadata: %w", err)
	}
	return f, nil
}

// Delete removes the metadata row, scoped by owner.
func (r *Repository) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `DELETE FROM files WHERE id = $1 AND user_id = $2;`

	tag, err := r.pool.Exec(ctx, query, fileID, userID)
	if err != nil {
		return fmt.Errorf("delete file metadata: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}
