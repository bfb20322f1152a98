package share

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	params := url.Values{}
	params.Set("timestamp", "100")
	params.Set("public_id", "x")
	params.Set("api_key", "key")
	params.Set("empty", "")
	got := signature(params, "secret")
	want := fmt.Sprintf("%x", sha1.Sum([]byte("public_id=x&timestamp=100secret")))
	assert.Equal(t, want, got)
}

func TestUpload(t *testing.T) {
	var gotPath string
	var gotFields map[string]string
	var gotFile string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		gotFile = string(data)
		_, _ = w.Write([]byte(`{"public_id":"attendtrack/attendance_export.json","secure_url":"https://res.example/x","bytes":2,"version":7}`))
	}))
	defer srv.Close()

	c := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "attendtrack", BaseURL: srv.URL})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	res, err := c.Upload(context.Background(), "attendance_export.json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "/v1_1/demo/raw/upload", gotPath)
	assert.Equal(t, "{}", gotFile)
	assert.Equal(t, "1700000000", gotFields["timestamp"])
	assert.Equal(t, "attendtrack", gotFields["folder"])
	assert.Equal(t, "true", gotFields["overwrite"])
	assert.Equal(t, "key", gotFields["api_key"])
	assert.NotEmpty(t, gotFields["signature"])
	assert.Equal(t, "https://res.example/x", res.SecureURL)
}

func TestUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad signature"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", BaseURL: srv.URL})
	_, err := c.Upload(context.Background(), "x.json", []byte("{}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
