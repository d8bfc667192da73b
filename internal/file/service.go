package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/aidosk/fileharbor/internal/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxFileSize = 5 * 1024 * 1024 // 5 MiB

// typeAllowed reports whether the declared MIME type is on the fixed
// allow-list: images and documents only.
func typeAllowed(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return true
	}
	return false
}

type metadataStore interface {
	Create(ctx context.Context, f File) (File, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]File, error)
	Get(ctx context.Context, userID, fileID uuid.UUID) (File, error)
	Delete(ctx context.Context, userID, fileID uuid.UUID) error
}

type objectGateway interface {
	PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, key string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Service manages file lifecycle operations for authenticated users.
type Service struct {
	repo       metadataStore
	gateway    objectGateway
	transfer   httpDoer
	presignTTL time.Duration
	log        *zap.Logger
}

// NewService constructs a file service. The transfer client carries bytes
// to and from presigned URLs.
func NewService(repo metadataStore, gateway objectGateway, transfer httpDoer, presignTTL time.Duration, log *zap.Logger) *Service {
	return &Service{
		repo:       repo,
		gateway:    gateway,
		transfer:   transfer,
		presignTTL: presignTTL,
		log:        log,
	}
}

// Upload validates the payload, writes it to object storage through a
// presigned URL and persists a metadata row. The object is written first;
// if the metadata insert then fails, the object is orphaned in storage and
// the upload reports an error.
func (s *Service) Upload(ctx context.Context, userID uuid.UUID, fileHeader *multipart.FileHeader) (File, error) {
	log := logger.WithContext(ctx, s.log)

	if fileHeader == nil || fileHeader.Size == 0 {
		log.Warn("upload rejected, empty file")
		return File{}, ErrEmptyFile
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !typeAllowed(contentType) {
		log.Warn("upload rejected, type not allowed", zap.String("content_type", contentType))
		return File{}, ErrTypeNotAllowed
	}

	if fileHeader.Size > maxFileSize {
		log.Warn("upload rejected, too large", zap.Int64("size", fileHeader.Size))
		return File{}, ErrFileTooLarge
	}

	src, err := fileHeader.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload file: %w", err)
	}
	defer src.Close()

	payload, err := io.ReadAll(src)
	if err != nil {
		return File{}, fmt.Errorf("read upload file: %w", err)
	}
	if len(payload) == 0 {
		return File{}, ErrEmptyFile
	}

	fileID := uuid.New()
	key := objectKey(userID, fileID, fileHeader.Filename)

	if err := s.putObject(ctx, key, contentType, payload); err != nil {
		log.Error("store object failed", zap.Error(err), zap.String("key", key))
		return File{}, err
	}
	log.Info("object stored", zap.String("key", key))

	stored, err := s.repo.Create(ctx, File{
		ID:        fileID,
		UserID:    userID,
		Filename:  fileHeader.Filename,
		Filetype:  contentType,
		SizeBytes: int64(len(payload)),
		ObjectKey: key,
	})
	if err != nil {
		// The object stays behind in storage; there is no reconciliation
		// sweep for orphans.
		log.Error("persist file metadata failed", zap.Error(err), zap.String("key", key))
		return File{}, fmt.Errorf("persist file metadata: %w", err)
	}

	log.Info("file uploaded", zap.String("file_id", stored.ID.String()))
	return stored, nil
}

// List returns all files owned by the user, newest first.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]File, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Download fetches the file bytes through a presigned URL. The lookup is
// scoped by owner, so another tenant's file id yields ErrFileNotFound.
func (s *Service) Download(ctx context.Context, userID, fileID uuid.UUID) (File, []byte, error) {
	log := logger.WithContext(ctx, s.log)

	meta, err := s.repo.Get(ctx, userID, fileID)
	if err != nil {
		return File{}, nil, err
	}

	downloadURL, err := s.gateway.PresignDownload(ctx, meta.ObjectKey, s.presignTTL)
	if err != nil {
		log.Error("presign download failed", zap.Error(err))
		return File{}, nil, fmt.Errorf("presign download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return File{}, nil, fmt.Errorf("build download request: %w", err)
	}

	resp, err := s.transfer.Do(req)
	if err != nil {
		log.Error("fetch object failed", zap.Error(err))
		return File{}, nil, fmt.Errorf("fetch object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("fetch object failed", zap.Int("status", resp.StatusCode))
		return File{}, nil, fmt.Errorf("fetch object: unexpected status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return File{}, nil, fmt.Errorf("read object: %w", err)
	}

	log.Info("file downloaded", zap.String("file_id", fileID.String()))
	return meta, payload, nil
}

// Delete removes the object from storage and then the metadata row. When
// the storage delete fails the row is kept, so the file stays listed
// rather than dangling.
func (s *Service) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	log := logger.WithContext(ctx, s.log)

	meta, err := s.repo.Get(ctx, userID, fileID)
	if err != nil {
		return err
	}

	if err := s.gateway.Remove(ctx, meta.ObjectKey); err != nil {
		log.Error("remove object failed", zap.Error(err), zap.String("key", meta.ObjectKey))
		return fmt.Errorf("remove object: %w", err)
	}
	log.Info("object removed", zap.String("key", meta.ObjectKey))

	if err := s.repo.Delete(ctx, userID, fileID); err != nil {
		log.Error("delete file metadata failed", zap.Error(err))
		return fmt.Errorf("delete file metadata: %w", err)
	}

	log.Info("file deleted", zap.String("file_id", fileID.String()))
	return nil
}

func (s *Service) putObject(ctx context.Context, key, contentType string, payload []byte) error {
	uploadURL, err := s.gateway.PresignUpload(ctx, key, contentType, s.presignTTL)
	if err != nil {
		return fmt.Errorf("presign upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(payload))

	resp, err := s.transfer.Do(req)
	if err != nil {
		return fmt.Errorf("store object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("store object: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// objectKey derives the storage key for a new upload. The key is prefixed
// by the owner id and never derived from the raw filename; only the
// extension survives.
func objectKey(userID, fileID uuid.UUID, filename string) string {
	return fmt.Sprintf("%s/%s%s", userID, fileID, path.Ext(filename))
}
