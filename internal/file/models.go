package file

import (
	"time"

	"github.com/google/uuid"
)

// File represents stored metadata about an uploaded object. ObjectKey is
// server-generated and never exposed to clients.
type File struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Filename  string
	Filetype  string
	SizeBytes int64
	ObjectKey string
	CreatedAt time.Time
	UpdatedAt time.Time
}
