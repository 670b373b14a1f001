// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdfraster/pkg/types"
)

type object struct {
	bucket      string
	data        string
	contentType string
}

type fakeStore struct {
	exists    bool
	existsErr error
	putErr    error
	objects   map[string]object
}

func newFakeStore() *fakeStore {
	return &fakeStore{exists: true, objects: make(map[string]object)}
}

func (f *fakeStore) BucketExists(_ context.Context, _ string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	f.objects[key] = object{bucket: bucket, data: string(data), contentType: contentType}
	return nil
}

func testConfig() types.StorageConfig {
	return types.StorageConfig{Endpoint: "s3.example.com", Bucket: "pages", Prefix: "scans/", Secure: true}
}

func testDoc(t *testing.T) *types.Document {
	t.Helper()
	dir := t.TempDir()
	doc := &types.Document{Path: filepath.Join(dir, "report.pdf"), ImageDir: dir, Filename: "report.pdf", DocType: types.DocPDF}
	for _, name := range []string{"report-1.tif", "report-1.webp"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("data-"+name), 0o644))
		doc.Files = append(doc.Files, p)
	}
	return doc
}

func TestNew_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, newFakeStore(), types.StorageConfig{Endpoint: "x"}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))

	missing := newFakeStore()
	missing.exists = false
	_, err = New(ctx, missing, testConfig(), nil)
	assert.True(t, errors.Is(err, ErrBucketMissing))

	broken := newFakeStore()
	broken.existsErr = errors.New("dial tcp: refused")
	_, err = New(ctx, broken, testConfig(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestNewMinio_NotConfigured(t *testing.T) {
	_, err := NewMinio(context.Background(), types.StorageConfig{}, nil)
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestPublish(t *testing.T) {
	store := newFakeStore()
	p, err := New(context.Background(), store, testConfig(), nil)
	require.NoError(t, err)

	doc := testDoc(t)
	urls, err := p.Publish(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://s3.example.com/pages/scans/report/report-1.tif",
		"https://s3.example.com/pages/scans/report/report-1.webp",
	}, urls)

	tif := store.objects["scans/report/report-1.tif"]
	assert.Equal(t, "pages", tif.bucket)
	assert.Equal(t, "image/tiff", tif.contentType)
	assert.Equal(t, "data-report-1.tif", tif.data)
	assert.Equal(t, "image/webp", store.objects["scans/report/report-1.webp"].contentType)
}

func TestPublish_UploadError(t *testing.T) {
	store := newFakeStore()
	store.putErr = errors.New("access denied")
	p, err := New(context.Background(), store, testConfig(), nil)
	require.NoError(t, err)

	urls, err := p.Publish(context.Background(), testDoc(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Empty(t, urls)
}

func TestPublish_MissingFile(t *testing.T) {
	p, err := New(context.Background(), newFakeStore(), testConfig(), nil)
	require.NoError(t, err)

	doc := testDoc(t)
	doc.Files = append(doc.Files, filepath.Join(t.TempDir(), "gone.webp"))
	urls, err := p.Publish(context.Background(), doc)
	require.Error(t, err)
	assert.Len(t, urls, 2)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		prefix, stem, file, want string
	}{
		{"", "report", "report-1.webp", "report/report-1.webp"},
		{"scans", "report", "report-1.webp", "scans/report/report-1.webp"},
		{"/scans/2026/", "report", "report-01.tif", "scans/2026/report/report-01.tif"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.prefix, tt.stem, tt.file))
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/tiff", ContentType("a-1.tif"))
	assert.Equal(t, "image/tiff", ContentType("a-1.TIFF"))
	assert.Equal(t, "image/webp", ContentType("a-1.webp"))
	assert.Equal(t, "application/pdf", ContentType("a.pdf"))
	assert.Equal(t, "application/octet-stream", ContentType("a.png"))
}

func TestURL_Insecure(t *testing.T) {
	cfg := testConfig()
	cfg.Secure = false
	p, err := New(context.Background(), newFakeStore(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://s3.example.com/pages/a/b.webp", p.URL("a/b.webp"))
}
