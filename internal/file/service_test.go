package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())
	userID := uuid.New()
	payload := []byte("0123456789")

	header := buildFileHeader(t, "report.pdf", "application/pdf", payload)

	stored, err := service.Upload(context.Background(), userID, header)
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}
	if stored.Filename != "report.pdf" {
		t.Fatalf("unexpected filename: %s", stored.Filename)
	}
	if stored.Filetype != "application/pdf" {
		t.Fatalf("unexpected filetype: %s", stored.Filetype)
	}
	if stored.SizeBytes != int64(len(payload)) {
		t.Fatalf("unexpected size: %d", stored.SizeBytes)
	}
	if !strings.HasPrefix(stored.ObjectKey, userID.String()+"/") {
		t.Fatalf("object key %q is not namespaced by owner", stored.ObjectKey)
	}
	if !strings.HasSuffix(stored.ObjectKey, ".pdf") {
		t.Fatalf("object key %q lost the extension", stored.ObjectKey)
	}
	if stored.ObjectKey == userID.String()+"/report.pdf" {
		t.Fatalf("object key must not be derived from the raw filename")
	}

	meta, got, err := service.Download(context.Background(), userID, stored.ID)
	if err != nil {
		t.Fatalf("download returned error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("downloaded bytes differ from uploaded bytes")
	}
	if meta.Filename != "report.pdf" || meta.Filetype != "application/pdf" {
		t.Fatalf("unexpected download metadata: %s %s", meta.Filename, meta.Filetype)
	}
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())

	if _, err := service.Upload(context.Background(), uuid.New(), nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile for missing payload, got %v", err)
	}

	header := buildFileHeader(t, "empty.pdf", "application/pdf", nil)
	if _, err := service.Upload(context.Background(), uuid.New(), header); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile for zero-byte payload, got %v", err)
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())

	header := buildFileHeader(t, "archive.zip", "application/zip", []byte("zipzip"))
	if _, err := service.Upload(context.Background(), uuid.New(), header); !errors.Is(err, ErrTypeNotAllowed) {
		t.Fatalf("expected ErrTypeNotAllowed, got %v", err)
	}
	if store.objectCount() != 0 {
		t.Fatalf("no storage call should happen before validation passes")
	}
}

func TestUploadSizeCeiling(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())
	userID := uuid.New()

	atLimit := bytes.Repeat([]byte("a"), maxFileSize)
	header := buildFileHeader(t, "exact.pdf", "application/pdf", atLimit)
	if _, err := service.Upload(context.Background(), userID, header); err != nil {
		t.Fatalf("file at the 5 MiB ceiling must be accepted, got %v", err)
	}

	overLimit := bytes.Repeat([]byte("a"), maxFileSize+1)
	header = buildFileHeader(t, "over.pdf", "application/pdf", overLimit)
	if _, err := service.Upload(context.Background(), userID, header); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge one byte over the ceiling, got %v", err)
	}
}

func TestCrossTenantAccessIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())
	owner := uuid.New()
	intruder := uuid.New()

	header := buildFileHeader(t, "private.pdf", "application/pdf", []byte("secret"))
	stored, err := service.Upload(context.Background(), owner, header)
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}

	if _, _, err := service.Download(context.Background(), intruder, stored.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("cross-tenant download must be ErrFileNotFound, got %v", err)
	}
	if err := service.Delete(context.Background(), intruder, stored.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("cross-tenant delete must be ErrFileNotFound, got %v", err)
	}
}

func TestDeleteRemovesObjectAndMetadata(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())
	userID := uuid.New()

	header := buildFileHeader(t, "gone.pdf", "application/pdf", []byte("payload"))
	stored, err := service.Upload(context.Background(), userID, header)
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}

	if err := service.Delete(context.Background(), userID, stored.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if store.objectCount() != 0 {
		t.Fatalf("expected object removed from storage")
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected metadata removed, remaining %d", len(repo.records))
	}

	if _, _, err := service.Download(context.Background(), userID, stored.ID); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound after delete, got %v", err)
	}
}

func TestDeleteKeepsMetadataWhenStorageFails(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	gw := store.gateway()
	gw.removeErr = errors.New("storage unavailable")
	service := NewService(repo, gw, http.DefaultClient, time.Hour, zap.NewNop())
	userID := uuid.New()

	header := buildFileHeader(t, "sticky.pdf", "application/pdf", []byte("payload"))
	stored, err := service.Upload(context.Background(), userID, header)
	if err != nil {
		t.Fatalf("upload returned error: %v", err)
	}

	if err := service.Delete(context.Background(), userID, stored.ID); err == nil {
		t.Fatalf("expected delete to fail when storage delete fails")
	}
	if _, ok := repo.records[stored.ID]; !ok {
		t.Fatalf("metadata row must be retained when the storage delete fails")
	}
}

func TestUploadOrphansObjectWhenMetadataFails(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("database down")
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())

	header := buildFileHeader(t, "orphan.pdf", "application/pdf", []byte("payload"))
	if _, err := service.Upload(context.Background(), uuid.New(), header); err == nil {
		t.Fatalf("expected upload to fail when metadata insert fails")
	}
	if store.objectCount() != 1 {
		t.Fatalf("object is expected to stay behind in storage")
	}
}

func TestListEmpty(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeObjectStorage(t)
	defer store.Close()

	service := NewService(repo, store.gateway(), http.DefaultClient, time.Hour, zap.NewNop())

	files, err := service.List(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %d", len(files))
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	partHeader.Set("Content-Type", contentType)

	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("CreatePart error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File["file"][0]
}

type fakeRepo struct {
	records   map[uuid.UUID]File
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: make(map[uuid.UUID]File)}
}

func (f *fakeRepo) Create(ctx context.Context, file File) (File, error) {
	if f.createErr != nil {
		return File{}, f.createErr
	}
	file.CreatedAt = time.Now()
	file.UpdatedAt = file.CreatedAt
	f.records[file.ID] = file
	return file, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]File, error) {
	var list []File
	for _, rec := range f.records {
		if rec.UserID == userID {
			list = append(list, rec)
		}
	}
	return list, nil
}

func (f *fakeRepo) Get(ctx context.Context, userID, fileID uuid.UUID) (File, error) {
	rec, ok := f.records[fileID]
	if !ok || rec.UserID != userID {
		return File{}, ErrFileNotFound
	}
	return rec, nil
}

func (f *fakeRepo) Delete(ctx context.Context, userID, fileID uuid.UUID) error {
	rec, ok := f.records[fileID]
	if !ok || rec.UserID != userID {
		return ErrFileNotFound
	}
	delete(f.records, fileID)
	return nil
}

// fakeObjectStorage plays the presigned-URL target: an HTTP server that
// accepts PUT and serves GET per object key.
type fakeObjectStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	server  *httptest.Server
}

func newFakeObjectStorage(t *testing.T) *fakeObjectStorage {
	t.Helper()
	s := &fakeObjectStorage{objects: make(map[string][]byte)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodPut:
			payload, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			s.mu.Lock()
			s.objects[key] = payload
			s.mu.Unlock()
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			s.mu.Lock()
			payload, ok := s.objects[key]
			s.mu.Unlock()
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(payload)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	return s
}

func (s *fakeObjectStorage) Close() { s.server.Close() }

func (s *fakeObjectStorage) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *fakeObjectStorage) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
}

func (s *fakeObjectStorage) gateway() *fakeGateway {
	return &fakeGateway{storage: s}
}

// fakeGateway hands out URLs pointing at the fake storage server.
type fakeGateway struct {
	storage   *fakeObjectStorage
	removeErr error
}

func (g *fakeGateway) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return g.storage.server.URL + "/" + key, nil
}

func (g *fakeGateway) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return g.storage.server.URL + "/" + key, nil
}

func (g *fakeGateway) Remove(ctx context.Context, key string) error {
	if g.removeErr != nil {
		return g.removeErr
	}
	g.storage.remove(key)
	return nil
}
