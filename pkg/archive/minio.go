package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/config"
)

const (
	metaFilename     = "Filename"
	metaDocumentName = "Document-Name"
)

type MinioStore struct {
	mc     *minio.Client
	bucket string
}

func NewMinioStore(cfg config.ArchiveConfig) (*MinioStore, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinioStore{mc: mc, bucket: cfg.Bucket}, nil
}

// Init creates the bucket if it does not exist.
func (s *MinioStore) Init(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.bucket, err)
		}
		common.GetLoggerWith(common.LoggerNameKnowledge).Info("Archive bucket created", zap.String("bucket", s.bucket))
	}
	return nil
}

func (s *MinioStore) Put(ctx context.Context, obj Object) error {
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := ObjectKey(obj.DocumentName)
	_, err := s.mc.PutObject(ctx, s.bucket, key, bytes.NewReader(obj.Data), int64(len(obj.Data)), minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			metaFilename:     obj.Filename,
			metaDocumentName: obj.DocumentName,
		},
	})
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *MinioStore) Get(ctx context.Context, documentName string) (*Object, error) {
	key := ObjectKey(documentName)
	o, err := s.mc.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(key, err)
	}
	defer o.Close()

	data, err := io.ReadAll(o)
	if err != nil {
		return nil, s.translate(key, err)
	}
	info, err := o.Stat()
	if err != nil {
		return nil, s.translate(key, err)
	}

	return &Object{
		DocumentName: documentName,
		Filename:     userMeta(info.UserMetadata, metaFilename),
		ContentType:  info.ContentType,
		Data:         data,
	}, nil
}

func (s *MinioStore) Delete(ctx context.Context, documentName string) error {
	key := ObjectKey(documentName)
	if err := s.mc.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *MinioStore) translate(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return fmt.Errorf("get %s/%s: %w", s.bucket, key, err)
}

// userMeta reads a user metadata value whether or not the server kept the
// X-Amz-Meta- prefix on the key.
func userMeta(m map[string]string, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return m["X-Amz-Meta-"+key]
}

// New returns a minio backed store when an endpoint is configured and an
// in-memory store otherwise.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	logger := common.GetLoggerWith(common.LoggerNameKnowledge)
	if !cfg.Enabled() {
		logger.Warn("No archive endpoint configured, keeping document originals in memory")
		return NewMemoryStore(), nil
	}

	s, err := NewMinioStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()
	if err := s.Init(ctx); err != nil {
		return nil, err
	}

	logger.Info("Archive ready", zap.String("endpoint", cfg.Endpoint), zap.String("bucket", cfg.Bucket))
	return s, nil
}
