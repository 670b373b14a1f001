// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish uploads converted page images to S3-compatible object
// storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/pdiddy/pdfraster/pkg/types"
)

var (
	// ErrNotConfigured is returned when endpoint or bucket is missing.
	ErrNotConfigured = errors.New("object storage not configured")

	// ErrBucketMissing is returned when the configured bucket does not exist.
	ErrBucketMissing = errors.New("bucket does not exist")
)

// ObjectStore is the subset of an S3 client used for uploads.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// minioStore adapts a minio client to ObjectStore.
type minioStore struct {
	client *minio.Client
}

func (m minioStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return m.client.BucketExists(ctx, bucket)
}

func (m minioStore) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// Publisher uploads document products under a common key prefix.
type Publisher struct {
	store  ObjectStore
	cfg    types.StorageConfig
	logger *zap.Logger
}

// NewMinio connects to the configured endpoint and checks that the bucket
// exists.
func NewMinio(ctx context.Context, cfg types.StorageConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.IsZero() {
		return nil, ErrNotConfigured
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating S3 client: %w", err)
	}
	return New(ctx, minioStore{client: client}, cfg, logger)
}

// New returns a Publisher over store after verifying the bucket.
func New(ctx context.Context, store ObjectStore, cfg types.StorageConfig, logger *zap.Logger) (*Publisher, error) {
	if cfg.IsZero() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	exists, err := store.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBucketMissing, cfg.Bucket)
	}
	return &Publisher{store: store, cfg: cfg, logger: logger}, nil
}

// Publish uploads every produced file of doc and returns their URLs in
// the order of doc.Files. It stops at the first failed upload.
func (p *Publisher) Publish(ctx context.Context, doc *types.Document) ([]string, error) {
	urls := make([]string, 0, len(doc.Files))
	for _, f := range doc.Files {
		key := ObjectKey(p.cfg.Prefix, doc.Stem(), filepath.Base(f))
		if err := p.upload(ctx, f, key); err != nil {
			return urls, err
		}
		u := p.URL(key)
		p.logger.Debug("uploaded", zap.String("file", f), zap.String("url", u))
		urls = append(urls, u)
	}
	return urls, nil
}

func (p *Publisher) upload(ctx context.Context, file, key string) error {
	fh, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("opening %s: %w", file, err)
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", file, err)
	}

	if err := p.store.PutObject(ctx, p.cfg.Bucket, key, fh, info.Size(), ContentType(file)); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// URL returns the public URL of key in the configured bucket.
func (p *Publisher) URL(key string) string {
	scheme := "http"
	if p.cfg.Secure {
		scheme = "https"
	}
	u := url.URL{Scheme: scheme, Host: p.cfg.Endpoint, Path: "/" + p.cfg.Bucket + "/" + key}
	return u.String()
}

// ObjectKey joins prefix, document stem and file name with slashes.
func ObjectKey(prefix, stem, file string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(stem, file)
	}
	return path.Join(prefix, stem, file)
}

// ContentType returns the MIME type for a produced image.
func ContentType(file string) string {
	t, _ := types.ParseDocType(filepath.Ext(file))
	switch t {
	case types.DocTIFF:
		return "image/tiff"
	case types.DocWEBP:
		return "image/webp"
	case types.DocPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}
