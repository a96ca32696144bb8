package database

import (
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"newsroom/internal/utils"
)

// SaveMedia streams an upload into the GridFS media bucket and returns its id.
func (m *MongoDB) SaveMedia(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	id, err := m.Media.UploadFromStream(name, r, opts)
	if err != nil {
		return "", utils.NewDatabaseError("failed to store media", err)
	}
	return id.Hex(), nil
}

// OpenMedia opens a stored upload for streaming.
func (m *MongoDB) OpenMedia(ctx context.Context, id string) (*MediaFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.NewNotFoundError("Media")
	}
	stream, err := m.Media.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, utils.NewNotFoundError("Media")
		}
		return nil, utils.NewDatabaseError("failed to open media", err)
	}

	file := stream.GetFile()
	var meta struct {
		ContentType string `bson:"contentType"`
	}
	if file.Metadata != nil {
		_ = bson.Unmarshal(file.Metadata, &meta)
	}
	return &MediaFile{
		ReadCloser:  stream,
		Name:        file.Name,
		ContentType: meta.ContentType,
		Size:        file.Length,
	}, nil
}
