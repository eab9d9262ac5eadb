package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/docchat/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	path, err := s.Upload(ctx, "u1/d1/lease.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "u1/d1/lease.txt", path)

	data, err := s.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Remove(ctx, []string{path, "u1/d1/never-existed.txt"}))
	_, err = s.Download(ctx, path)
	assert.Error(t, err)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "store"))
	require.NoError(t, err)

	_, err = s.Upload(context.Background(), "../outside.txt", []byte("x"), "text/plain")
	assert.ErrorContains(t, err, "escapes storage root")

	_, statErr := os.Stat(filepath.Join(root, "outside.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSupabaseStorage(t *testing.T) {
	var (
		mu      sync.Mutex
		objects = map[string][]byte{}
		removed []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/docs/"):
			body, _ := io.ReadAll(r.Body)
			objects[strings.TrimPrefix(r.URL.Path, "/storage/v1/object/docs/")] = body
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodGet:
			data, ok := objects[strings.TrimPrefix(r.URL.Path, "/storage/v1/object/docs/")]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = w.Write(data)
		case r.Method == http.MethodDelete && r.URL.Path == "/storage/v1/object/docs":
			var req struct {
				Prefixes []string `json:"prefixes"`
			}
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			removed = append(removed, req.Prefixes...)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewSupabaseStorage(srv.URL+"/", "service-key", "docs")

	path, err := s.Upload(ctx, "u/d/a.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	data, err := s.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	_, err = s.Download(ctx, "missing.pdf")
	assert.ErrorContains(t, err, "404")

	require.NoError(t, s.Remove(ctx, []string{path}))
	assert.Equal(t, []string{"u/d/a.pdf"}, removed)
}

func TestS3StoragePutAndGet(t *testing.T) {
	var (
		mu     sync.Mutex
		stored []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if r.URL.Path != "/docs/u/d/a.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPut:
			stored, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			_, _ = w.Write(stored)
		}
	}))
	defer srv.Close()

	s, err := NewS3Storage(config.StorageConfig{
		Bucket:      "docs",
		S3Endpoint:  srv.URL,
		S3Region:    "us-east-1",
		S3AccessKey: "key",
		S3SecretKey: "secret",
	})
	require.NoError(t, err)

	ctx := context.Background()
	path, err := s.Upload(ctx, "u/d/a.txt", []byte("lease text"), "text/plain")
	require.NoError(t, err)

	data, err := s.Download(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "lease text", string(data))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New(config.StorageConfig{Backend: "ftp"})
	assert.ErrorContains(t, err, "unknown storage backend")
}
