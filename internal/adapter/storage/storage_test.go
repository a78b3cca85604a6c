package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newLocalRouter(t *testing.T) (*Router, string) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "uploads", "statement.csv"), []byte("date,amount\n"), 0o600))

	router := NewRouter()
	router.Register("file", NewLocalStore(root))
	return router, root
}

func TestRouter_LocalFiles(t *testing.T) {
	ctx := context.Background()
	router, root := newLocalRouter(t)

	for _, location := range []string{"file:///uploads/statement.csv", "uploads/statement.csv"} {
		rc, err := router.Open(ctx, location)
		require.NoError(t, err, location)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "date,amount\n", string(data))
	}

	require.NoError(t, router.Delete(ctx, "file:///uploads/statement.csv"))
	_, err := os.Stat(filepath.Join(root, "uploads", "statement.csv"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	require.NoError(t, router.Delete(ctx, "file:///uploads/statement.csv"))

	_, err = router.Open(ctx, "file:///uploads/statement.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRouter_StaysInsideRoot(t *testing.T) {
	router, root := newLocalRouter(t)

	outside := filepath.Join(filepath.Dir(root), "secret.csv")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	t.Cleanup(func() { _ = os.Remove(outside) })

	_, err := router.Open(context.Background(), "file:///../secret.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRouter_UnknownScheme(t *testing.T) {
	router := NewRouter()

	_, err := router.Open(context.Background(), "s3://bucket/statement.csv")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)

	err = router.Delete(context.Background(), "s3://bucket/statement.csv")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestGCSStore(t *testing.T) {
	var deleted []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/b/statements/o/"):
			_, _ = w.Write([]byte("posted_at,description,amount\n"))
		case r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "/b/statements/o/missing"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
		case r.Method == http.MethodDelete:
			deleted = append(deleted, r.URL.Path)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	store, err := NewGCSStore(ctx, "",
		option.WithEndpoint(server.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)

	router := NewRouter()
	router.Register("gs", store)

	rc, err := router.Open(ctx, "gs://statements/2025/march.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "posted_at,description,amount\n", string(data))

	require.NoError(t, router.Delete(ctx, "gs://statements/2025/march.csv"))
	assert.Len(t, deleted, 1)

	require.NoError(t, router.Delete(ctx, "gs://statements/missing"))

	_, err = router.Open(ctx, "gs:///no-bucket.csv")
	assert.Error(t, err)
}
