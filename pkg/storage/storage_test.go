package storage_test

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/storage"
)

func exercise(t *testing.T, d storage.Disk) {
	t.Helper()
	ctx := context.Background()

	ok, err := d.Exists(ctx, "receipts/ref-1/1.json")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = d.Get(ctx, "receipts/ref-1/1.json")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, d.Put(ctx, "receipts/ref-1/1.json", []byte(`{"orderId":1}`), "application/json"))
	require.NoError(t, d.Put(ctx, "receipts/ref-1/2.json", []byte(`{"orderId":2}`), "application/json"))
	require.NoError(t, d.Put(ctx, "receipts/ref-2/3.json", []byte(`{"orderId":3}`), "application/json"))

	body, err := d.Get(ctx, "receipts/ref-1/1.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"orderId":1}`, string(body))

	ok, err = d.Exists(ctx, "receipts/ref-1/1.json")
	require.NoError(t, err)
	assert.True(t, ok)

	files, err := d.Files(ctx, "receipts/ref-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"receipts/ref-1/1.json", "receipts/ref-1/2.json"}, files)

	require.NoError(t, d.Delete(ctx, "receipts/ref-1/1.json"))
	require.NoError(t, d.Delete(ctx, "receipts/ref-1/1.json"))
	ok, err = d.Exists(ctx, "receipts/ref-1/1.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalDisk(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")
	exercise(t, d)
	assert.Equal(t, "http://localhost:8080/storage/receipts/a.json", d.URL("/receipts/a.json"))
}

func TestLocalDiskStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	d := storage.NewLocalDisk(root, "")
	require.NoError(t, d.Put(context.Background(), "../../escape.json", []byte("x"), ""))

	files, err := d.Files(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"escape.json"}, files)
}

// fakeS3 implements the handful of path-style S3 calls S3Disk makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

type listResult struct {
	XMLName     xml.Name `xml:"ListBucketResult"`
	Name        string   `xml:"Name"`
	IsTruncated bool     `xml:"IsTruncated"`
	Contents    []struct {
		Key string `xml:"Key"`
	} `xml:"Contents"`
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket, objKey, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodGet && objKey == "":
		prefix := r.URL.Query().Get("prefix")
		res := listResult{Name: bucket}
		var keys []string
		for k := range f.objects {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			res.Contents = append(res.Contents, struct {
				Key string `xml:"Key"`
			}{k})
		}
		w.Header().Set("Content-Type", "application/xml")
		xml.NewEncoder(w).Encode(res) //nolint:errcheck
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[objKey] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		body, ok := f.objects[objKey]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method == http.MethodGet {
				io.WriteString(w, `<Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`) //nolint:errcheck
			}
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			w.Write(body) //nolint:errcheck
		}
	case r.Method == http.MethodDelete:
		delete(f.objects, objKey)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Disk(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{objects: map[string][]byte{}})
	t.Cleanup(srv.Close)

	d, err := storage.NewS3Disk(context.Background(), storage.S3Options{
		Bucket:   "receipts-test",
		Region:   "us-east-1",
		Key:      "test",
		Secret:   "test",
		Endpoint: srv.URL,
		URL:      "https://cdn.example.com/",
	})
	require.NoError(t, err)

	exercise(t, d)
	assert.Equal(t, "https://cdn.example.com/receipts/a.json", d.URL("receipts/a.json"))
}

func TestS3DiskRequiresBucket(t *testing.T) {
	_, err := storage.NewS3Disk(context.Background(), storage.S3Options{})
	assert.Error(t, err)
}
