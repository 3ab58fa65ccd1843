package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
	"github.com/dmitrijs2005/finbroker/internal/client/services"
	"github.com/dmitrijs2005/finbroker/internal/client/session"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

func newDownloadApp(t *testing.T, handler http.Handler) *App {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	gw, err := api.New(ts.URL+"/api", 5*time.Second, session.New(nil, nil), logger)
	require.NoError(t, err)
	return &App{uploads: services.NewUploadService(gw, nil, logger)}
}

// chdir stands in for t.Chdir, which needs Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestCmdDownload_SavesUnderSuggestedFileName(t *testing.T) {
	content := []byte("%PDF-1.4\nxxxx")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/uploads/501/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="contract.pdf"`)
		_, _ = w.Write(content)
	})
	app := newDownloadApp(t, mux)

	chdir(t, t.TempDir())
	app.cmdDownload(context.Background(), []string{"501"})

	// The file lands under the advertised name, not under the content type.
	got, err := os.ReadFile(filepath.Join("downloads", "contract.pdf"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	entries, err := os.ReadDir("downloads")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "contract.pdf", entries[0].Name())
}

func TestCmdDownload_FallbackNameWhenServerIsSilent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/uploads/7/download", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	})
	mux.HandleFunc("/api/uploads/7", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	app := newDownloadApp(t, mux)

	chdir(t, t.TempDir())
	app.cmdDownload(context.Background(), []string{"7"})

	_, err := os.Stat(filepath.Join("downloads", "upload-7"))
	assert.NoError(t, err)
}
