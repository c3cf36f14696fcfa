package minio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

// DocumentStore is the blob storage contract for document content.
type DocumentStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	GetText(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type documentStore struct {
	client *Client
	logger logging.Logger
}

// NewDocumentStore builds a DocumentStore over the minio client.
func NewDocumentStore(client *Client, log logging.Logger) DocumentStore {
	return &documentStore{client: client, logger: log.Named("storage")}
}

var _ DocumentStore = (*documentStore)(nil)

func (s *documentStore) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.api.PutObject(ctx, s.client.cfg.Bucket, key,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageFailed, "failed to store object")
	}
	s.logger.Debug("stored object",
		logging.String("key", key),
		logging.Int("size", len(content)))
	return nil
}

func (s *documentStore) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.client.api.GetObject(ctx, s.client.cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageFailed, "failed to open object")
	}
	defer obj.Close()

	content, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, apperrors.Newf(apperrors.ErrCodeDocumentNotFound, "object %s not found", key)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageFailed, "failed to read object")
	}
	return content, nil
}

func (s *documentStore) GetText(ctx context.Context, key string) (string, error) {
	content, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(content), ""), nil
}

func (s *documentStore) Delete(ctx context.Context, key string) error {
	err := s.client.api.RemoveObject(ctx, s.client.cfg.Bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageFailed, "failed to delete object")
	}
	return nil
}

func (s *documentStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.client.cfg.PresignExpiry
	}
	u, err := s.client.api.PresignedGetObject(ctx, s.client.cfg.Bucket, key, expiry, nil)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeStorageFailed, "failed to presign object URL")
	}
	return u.String(), nil
}
