package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hololab/tabletop4d/pkg/core"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:5000/", "secret123")
	require.NotNil(t, c)
	assert.Equal(t, "http://localhost:5000", c.baseURL)
	assert.Equal(t, "secret123", c.apiKey)
	assert.NotNil(t, c.httpClient)
}

func TestHealthcheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"server error", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/healthcheck", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			err := New(server.URL, "").Healthcheck(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHealthcheck_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	assert.Error(t, New(url, "").Healthcheck(context.Background()))
}

func TestUpload_Success(t *testing.T) {
	type received struct {
		secret, filename, matchName, duration, turns, winner, seed, firstSide string
		content                                                               []byte
	}
	var got received

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/matches/add", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		if !assert.NoError(t, r.ParseMultipartForm(10<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		got.secret = r.FormValue("secret")
		got.filename = r.FormValue("filename")
		got.matchName = r.FormValue("matchName")
		got.duration = r.FormValue("duration")
		got.turns = r.FormValue("turns")
		got.winner = r.FormValue("winner")
		got.seed = r.FormValue("seed")
		got.firstSide = r.FormValue("firstSide")

		file, _, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		got.content, _ = io.ReadAll(file)

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "demo_20260501_180000.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("match content"), 0o644))

	err := New(server.URL, "mysecret").Upload(context.Background(), path, core.UploadMetadata{
		MatchName: "Demo",
		Duration:  95.5,
		Turns:     12,
		Winner:    "Red",
		Seed:      42,
		FirstSide: "Blue",
	})
	require.NoError(t, err)

	assert.Equal(t, "mysecret", got.secret)
	assert.Equal(t, "demo_20260501_180000.json.gz", got.filename)
	assert.Equal(t, "Demo", got.matchName)
	assert.Equal(t, "95.500000", got.duration)
	assert.Equal(t, "12", got.turns)
	assert.Equal(t, "Red", got.winner)
	assert.Equal(t, "42", got.seed)
	assert.Equal(t, "Blue", got.firstSide)
	assert.Equal(t, "match content", string(got.content))
}

func TestUpload_FileNotFound(t *testing.T) {
	err := New("http://localhost:5000", "secret").Upload(context.Background(), filepath.Join(t.TempDir(), "missing.json.gz"), core.UploadMetadata{})
	assert.Error(t, err)
}

func TestUpload_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("bad secret\n"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	err := New(server.URL, "wrong-secret").Upload(context.Background(), path, core.UploadMetadata{})
	require.Error(t, err)
	assert.Equal(t, "upload returned status 403: bad secret", err.Error())
}

func TestUpload_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "m.json")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(server.URL, "s").Upload(ctx, path, core.UploadMetadata{})
	assert.ErrorIs(t, err, context.Canceled)
}
