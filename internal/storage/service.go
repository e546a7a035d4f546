package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Jayshxd/Open-Feast/internal/db"
	"github.com/Jayshxd/Open-Feast/internal/foodspot"

	"github.com/google/uuid"
)

var (
	ErrUnavailable    = errors.New("image storage is not configured")
	ErrNotImage       = errors.New("uploaded file is not an image")
	ErrObjectNotFound = errors.New("stored object not found")
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS storage_objects (
		id           TEXT PRIMARY KEY,
		file_id      TEXT NOT NULL UNIQUE,
		url          TEXT NOT NULL,
		content_type TEXT NOT NULL,
		size_bytes   BIGINT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Blobs stores raw image bytes and hands back an opaque file id.
type Blobs interface {
	Put(ctx context.Context, filename, contentType string, data []byte) (string, error)
	Get(ctx context.Context, fileID string) ([]byte, string, error)
}

// Service is the image store used by food spot creation. Bytes live in Blobs;
// a metadata row per object is kept in storage_objects when a database is set.
type Service struct {
	db      db.Querier
	blobs   Blobs
	baseURL string
}

var _ foodspot.ImageStore = (*Service)(nil)

func NewService(db db.Querier, blobs Blobs, baseURL string) *Service {
	return &Service{db: db, blobs: blobs, baseURL: strings.TrimRight(baseURL, "/")}
}

func EnsureSchema(ctx context.Context, q db.Querier) error {
	for _, stmt := range schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure storage_objects schema: %w", err)
		}
	}
	return nil
}

func (s *Service) Upload(ctx context.Context, img foodspot.Image) (string, error) {
	if s.blobs == nil {
		return "", ErrUnavailable
	}
	contentType := img.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(img.Data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	filename := img.Filename
	if filename == "" {
		filename = "upload"
	}
	fileID, err := s.blobs.Put(ctx, filename, contentType, img.Data)
	if err != nil {
		return "", fmt.Errorf("store image blob: %w", err)
	}

	url := s.URL(fileID)
	if s.db != nil {
		if _, err := s.SaveObject(ctx, fileID, url, contentType, len(img.Data)); err != nil {
			return "", err
		}
	}
	return url, nil
}

func (s *Service) URL(fileID string) string {
	return s.baseURL + "/images/" + fileID
}

func (s *Service) SaveObject(ctx context.Context, fileID, url, contentType string, size int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, file_id, url, content_type, size_bytes)
		VALUES ($1,$2,$3,$4,$5)
	`, id, fileID, url, contentType, size)
	if err != nil {
		return "", fmt.Errorf("save storage object: %w", err)
	}
	return id, nil
}

func (s *Service) Open(ctx context.Context, fileID string) ([]byte, string, error) {
	if s.blobs == nil {
		return nil, "", ErrUnavailable
	}
	return s.blobs.Get(ctx, fileID)
}
