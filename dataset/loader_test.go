package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dnlaql/cls-reporting/config"
)

const loaderCSV = `Date Created,To Do Dt,Priority,Assign To,Response Time (min),Resolution Time (min),SLA_Respond_Met,SLA_Resolution_Met,Sub Category
2024-01-01 08:00:00,2024-01-02 08:00:00,High,Team A,10,50,true,false,Hardware
2024-01-02 09:00:00,2024-01-03 09:00:00,Low,Team B,20,100,true,true,Software
`

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	return NewLoader(&config.Config{HTTPTimeoutSeconds: 5}, zap.NewNop())
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workorders.csv")
	require.NoError(t, os.WriteFile(path, []byte(loaderCSV), 0o644))

	loader := newTestLoader(t)

	snap, stats, err := loader.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 2, len(snap.Rows))
	assert.Equal(t, path, snap.Source)
	assert.True(t, snap.HasSubCategory)
}

func TestLoader_LoadFileURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workorders.csv")
	require.NoError(t, os.WriteFile(path, []byte(loaderCSV), 0o644))

	loader := newTestLoader(t)

	snap, _, err := loader.Load(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, 2, len(snap.Rows))
}

func TestLoader_LoadFileMissing(t *testing.T) {
	loader := newTestLoader(t)

	_, _, err := loader.Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open dataset file")
}

func TestLoader_LoadHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(loaderCSV))
	}))
	defer srv.Close()

	loader := newTestLoader(t)

	snap, stats, err := loader.Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, srv.URL, snap.Source)
}

func TestLoader_LoadHTTPNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := newTestLoader(t)

	_, _, err := loader.Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestLoader_LoadHTTPBadHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Wrong,Header\n1,2\n"))
	}))
	defer srv.Close()

	loader := newTestLoader(t)

	_, _, err := loader.Load(context.Background(), srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestLoader_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	loader := newTestLoader(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := loader.Load(ctx, srv.URL)
	require.Error(t, err)
}
