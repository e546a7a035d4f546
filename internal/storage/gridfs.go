package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFS keeps image bytes in a MongoDB GridFS bucket.
type GridFS struct {
	bucket *gridfs.Bucket
}

func NewGridFS(database *mongo.Database, bucketName string) (*GridFS, error) {
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %q: %w", bucketName, err)
	}
	return &GridFS{bucket: bucket}, nil
}

func (g *GridFS) Put(_ context.Context, filename, contentType string, data []byte) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	id, err := g.bucket.UploadFromStream(filename, bytes.NewReader(data), opts)
	if err != nil {
		return "", err
	}
	return id.Hex(), nil
}

func (g *GridFS) Get(_ context.Context, fileID string) ([]byte, string, error) {
	oid, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, "", ErrObjectNotFound
	}

	stream, err := g.bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", ErrObjectNotFound
	}
	if err != nil {
		return nil, "", err
	}
	defer stream.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(stream); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), contentTypeOf(stream.GetFile()), nil
}

func contentTypeOf(file *gridfs.File) string {
	if file == nil || len(file.Metadata) == 0 {
		return "application/octet-stream"
	}
	if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok && ct != "" {
		return ct
	}
	return "application/octet-stream"
}
