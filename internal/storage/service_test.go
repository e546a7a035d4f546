package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Jayshxd/Open-Feast/internal/foodspot"

	"github.com/pashagolub/pgxmock/v3"
)

var errSave = errors.New("save error")

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeBlobs struct {
	files  map[string][]byte
	types  map[string]string
	putErr error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{files: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeBlobs) Put(_ context.Context, filename, contentType string, data []byte) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	id := "65f0c0ffee" + filename
	f.files[id] = data
	f.types[id] = contentType
	return id, nil
}

func (f *fakeBlobs) Get(_ context.Context, fileID string) ([]byte, string, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return data, f.types[fileID], nil
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestSaveObject(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "file-1", "https://cdn.example/images/file-1", "image/jpeg", 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, nil, "https://cdn.example")
	id, err := svc.SaveObject(context.Background(), "file-1", "https://cdn.example/images/file-1", "image/jpeg", 3)
	if err != nil {
		t.Fatalf("save object: %v", err)
	}
	if id == "" {
		t.Fatalf("expected id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveObjectError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnError(errSave)

	svc := NewService(mock, nil, "")
	if _, err := svc.SaveObject(context.Background(), "file-1", "url", "image/png", 1); !errors.Is(err, errSave) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestUploadStoresBlobAndMetadata(t *testing.T) {
	mock := newMock(t)
	blobs := newFakeBlobs()
	mock.ExpectExec(`INSERT INTO storage_objects`).
		WithArgs(pgxmock.AnyArg(), "65f0c0ffeepizza.png", "http://localhost:8080/images/65f0c0ffeepizza.png", "image/png", len(pngHeader)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	svc := NewService(mock, blobs, "http://localhost:8080/")
	url, err := svc.Upload(context.Background(), foodspot.Image{Data: pngHeader, Filename: "pizza.png"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://localhost:8080/images/65f0c0ffeepizza.png" {
		t.Fatalf("unexpected url %s", url)
	}
	if blobs.types["65f0c0ffeepizza.png"] != "image/png" {
		t.Fatalf("expected sniffed content type, got %q", blobs.types["65f0c0ffeepizza.png"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUploadWithoutDatabase(t *testing.T) {
	svc := NewService(nil, newFakeBlobs(), "http://localhost:8080")
	url, err := svc.Upload(context.Background(), foodspot.Image{Data: []byte("jpeg"), ContentType: "image/jpeg"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "http://localhost:8080/images/65f0c0ffeeupload" {
		t.Fatalf("unexpected url %s", url)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	svc := NewService(nil, newFakeBlobs(), "")
	_, err := svc.Upload(context.Background(), foodspot.Image{Data: []byte("plain text"), Filename: "notes.txt"})
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
}

func TestUploadBlobError(t *testing.T) {
	blobs := newFakeBlobs()
	blobs.putErr = errors.New("gridfs down")
	svc := NewService(nil, blobs, "")
	if _, err := svc.Upload(context.Background(), foodspot.Image{Data: pngHeader}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestUploadUnavailable(t *testing.T) {
	svc := NewService(nil, nil, "")
	if _, err := svc.Upload(context.Background(), foodspot.Image{Data: pngHeader}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, _, err := svc.Open(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestUploadMetadataErrorFailsUpload(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO storage_objects`).WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).WillReturnError(errSave)

	svc := NewService(mock, newFakeBlobs(), "")
	if _, err := svc.Upload(context.Background(), foodspot.Image{Data: pngHeader}); !errors.Is(err, errSave) {
		t.Fatalf("expected save error, got %v", err)
	}
}

func TestEnsureSchema(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS storage_objects`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	if err := EnsureSchema(context.Background(), mock); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS storage_objects`).WillReturnError(errSave)
	if err := EnsureSchema(context.Background(), mock); !errors.Is(err, errSave) {
		t.Fatalf("expected error, got %v", err)
	}
}

func TestContentTypeOfMissingMetadata(t *testing.T) {
	if got := contentTypeOf(nil); got != "application/octet-stream" {
		t.Fatalf("unexpected content type %s", got)
	}
}
