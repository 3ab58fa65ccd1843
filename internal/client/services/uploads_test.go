package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
	"github.com/dmitrijs2005/finbroker/internal/client/models"
	"github.com/dmitrijs2005/finbroker/internal/client/session"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// uploadsBackend is a tiny in-memory stand-in for the platform uploads API,
// good enough to drive the client-side state machine in tests.
type uploadsBackend struct {
	mu       sync.Mutex
	seq      int64
	uploads  map[int64]*models.Upload
	data     map[int64][]byte
	requests atomic.Int64

	// noDisposition drops the Content-Disposition header from downloads.
	noDisposition bool
}

func newUploadsBackend() *uploadsBackend {
	return &uploadsBackend{uploads: map[int64]*models.Upload{}, data: map[int64][]byte{}}
}

func (b *uploadsBackend) handler(t *testing.T) http.Handler {
	t.Helper()

	// net/http in Go 1.21 has no method or {wildcard} mux patterns, so the
	// routes are dispatched by hand.
	createUpload := func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.seq++
		up := &models.Upload{
			ID:          b.seq,
			URL:         "/uploads/" + strconv.FormatInt(b.seq, 10) + "-" + hdr.Filename,
			FileName:    hdr.Filename,
			Size:        int64(len(content)),
			Context:     r.FormValue("context"),
			IsTemporary: true,
			ExpiresAt:   time.Now().Add(24 * time.Hour),
		}
		b.uploads[up.ID] = up
		b.data[up.ID] = content
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(up))
	}

	listUploads := func(w http.ResponseWriter, r *http.Request) {
		b.requests.Add(1)
		filter := r.URL.Query().Get("context")

		b.mu.Lock()
		defer b.mu.Unlock()
		out := make([]models.Upload, 0, len(b.uploads))
		for _, up := range b.uploads {
			if filter == "" || up.Context == filter {
				out = append(out, *up)
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(out))
	}

	replaceUpload := func(w http.ResponseWriter, r *http.Request, id int64) {
		b.requests.Add(1)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)

		b.mu.Lock()
		defer b.mu.Unlock()
		up, ok := b.uploads[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if !up.IsTemporary {
			http.Error(w, "already confirmed", http.StatusConflict)
			return
		}
		b.data[id] = content
		up.Size = int64(len(content))
	}

	confirmUpload := func(w http.ResponseWriter, r *http.Request, id int64) {
		b.requests.Add(1)

		b.mu.Lock()
		defer b.mu.Unlock()
		up, ok := b.uploads[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		up.IsTemporary = false
	}

	deleteUpload := func(w http.ResponseWriter, r *http.Request, id int64) {
		b.requests.Add(1)

		b.mu.Lock()
		defer b.mu.Unlock()
		up, ok := b.uploads[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if !up.IsTemporary {
			http.Error(w, "already confirmed", http.StatusConflict)
			return
		}
		delete(b.uploads, id)
		delete(b.data, id)
		w.WriteHeader(http.StatusNoContent)
	}

	getUpload := func(w http.ResponseWriter, r *http.Request, id int64) {
		b.requests.Add(1)

		b.mu.Lock()
		defer b.mu.Unlock()
		up, ok := b.uploads[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(up))
	}

	downloadUpload := func(w http.ResponseWriter, r *http.Request, id int64) {
		b.requests.Add(1)

		b.mu.Lock()
		defer b.mu.Unlock()
		content, ok := b.data[id]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		if !b.noDisposition {
			name := b.uploads[id].FileName
			w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		}
		_, _ = w.Write(content)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rest, ok := strings.CutPrefix(r.URL.Path, "/api/uploads")
		if !ok {
			http.NotFound(w, r)
			return
		}
		if rest == "" {
			switch r.Method {
			case http.MethodPost:
				createUpload(w, r)
			case http.MethodGet:
				listUploads(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}
		idStr, action, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
		id, _ := strconv.ParseInt(idStr, 10, 64)
		switch {
		case action == "replace" && r.Method == http.MethodPost:
			replaceUpload(w, r, id)
		case action == "confirm" && r.Method == http.MethodPost:
			confirmUpload(w, r, id)
		case action == "download" && r.Method == http.MethodGet:
			downloadUpload(w, r, id)
		case action == "" && r.Method == http.MethodDelete:
			deleteUpload(w, r, id)
		case action == "" && r.Method == http.MethodGet:
			getUpload(w, r, id)
		default:
			http.NotFound(w, r)
		}
	})
}

type recordingInvalidator struct {
	mu   sync.Mutex
	refs []string
}

func (r *recordingInvalidator) Invalidate(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs = append(r.refs, ref)
}

func newService(t *testing.T, b *uploadsBackend, inv Invalidator) UploadService {
	t.Helper()
	ts := httptest.NewServer(b.handler(t))
	t.Cleanup(ts.Close)
	gw, err := api.New(ts.URL+"/api", 5*time.Second, session.New(nil, nil), discardLogger())
	require.NoError(t, err)
	return NewUploadService(gw, inv, discardLogger())
}

func pdf(size int) []byte {
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'x'}, size)...)
	return data[:size]
}

func TestStage_OversizeRejectedBeforeNetwork(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)

	_, err := svc.Stage(context.Background(), "big.pdf", pdf(MaxUploadSize+1), models.UploadContextDocument)
	require.ErrorIs(t, err, api.ErrRejected)
	assert.EqualValues(t, 0, b.requests.Load(), "validation must run before any network call")
}

func TestStage_DisallowedTypeRejectedBeforeNetwork(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)

	_, err := svc.Stage(context.Background(), "setup.exe", []byte("MZ\x90\x00"), models.UploadContextDocument)
	require.ErrorIs(t, err, api.ErrRejected)

	_, err = svc.Stage(context.Background(), "empty.pdf", nil, models.UploadContextDocument)
	require.ErrorIs(t, err, api.ErrRejected)

	assert.EqualValues(t, 0, b.requests.Load())
}

func TestStage_CreatesTemporaryUpload(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)

	up, err := svc.Stage(context.Background(), "contract.pdf", pdf(2<<20), models.UploadContextDocument)
	require.NoError(t, err)

	assert.Equal(t, "contract.pdf", up.FileName)
	assert.Equal(t, "document", up.Context)
	assert.True(t, up.IsTemporary)
	assert.False(t, up.ExpiresAt.IsZero())
}

func TestConfirm_ClearsTemporaryState(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "contract.pdf", pdf(2<<20), models.UploadContextDocument)
	require.NoError(t, err)
	require.True(t, up.IsTemporary)

	require.NoError(t, svc.Confirm(ctx, up.ID))

	uploads, err := svc.List(ctx, models.UploadContextDocument)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, up.ID, uploads[0].ID)
	assert.False(t, uploads[0].IsTemporary, "confirmed upload must not stay temporary")
}

func TestRemove_DropsStagedUpload(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "contract.pdf", pdf(1<<20), models.UploadContextDocument)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, up.ID))

	uploads, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, uploads)
}

func TestRemove_ConfirmedUploadRejected(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "contract.pdf", pdf(1<<20), models.UploadContextDocument)
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, up.ID))

	err = svc.Remove(ctx, up.ID)
	require.ErrorIs(t, err, api.ErrRejected)

	uploads, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, uploads, 1, "confirmed upload must survive a remove attempt")
}

func TestReplace_InvalidatesCachedHandle(t *testing.T) {
	b := newUploadsBackend()
	inv := &recordingInvalidator{}
	svc := newService(t, b, inv)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "photo.png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...), models.UploadContextAvatar)
	require.NoError(t, err)

	require.NoError(t, svc.Replace(ctx, up, "photo.png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 64)...)))

	inv.mu.Lock()
	defer inv.mu.Unlock()
	require.Equal(t, []string{up.URL}, inv.refs, "replace must invalidate the upload's reference")
}

func TestReplace_ConfirmedUploadRejectedLocally(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "contract.pdf", pdf(1<<20), models.UploadContextDocument)
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, up.ID))
	up.IsTemporary = false

	before := b.requests.Load()
	err = svc.Replace(ctx, up, "contract.pdf", pdf(1<<20))
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, before, b.requests.Load())
}

func TestList_FiltersByContext(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	_, err := svc.Stage(ctx, "a.pdf", pdf(1024), models.UploadContextDocument)
	require.NoError(t, err)
	_, err = svc.Stage(ctx, "b.png", append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...), models.UploadContextAvatar)
	require.NoError(t, err)

	docs, err := svc.List(ctx, models.UploadContextDocument)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].FileName)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDownload_ReturnsBytesAndFileName(t *testing.T) {
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	content := pdf(2048)
	up, err := svc.Stage(ctx, "contract.pdf", content, models.UploadContextDocument)
	require.NoError(t, err)

	data, fileName, err := svc.Download(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "contract.pdf", fileName, "name must come from the disposition header, not the content type")
}

func TestDownload_FileNameFallsBackToUploadRecord(t *testing.T) {
	b := newUploadsBackend()
	b.noDisposition = true
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "contract.pdf", pdf(1024), models.UploadContextDocument)
	require.NoError(t, err)

	_, fileName, err := svc.Download(ctx, up.ID)
	require.NoError(t, err)
	assert.Equal(t, "contract.pdf", fileName)
}

func TestStageConfirmScenario(t *testing.T) {
	// 2 MB PDF staged under "document", confirmed, and no longer listed
	// as temporary afterwards.
	b := newUploadsBackend()
	svc := newService(t, b, nil)
	ctx := context.Background()

	up, err := svc.Stage(ctx, "guarantee.pdf", pdf(2<<20), models.UploadContextDocument)
	require.NoError(t, err)
	require.True(t, up.IsTemporary)

	require.NoError(t, svc.Confirm(ctx, up.ID))

	uploads, err := svc.List(ctx, models.UploadContextDocument)
	require.NoError(t, err)
	for _, u := range uploads {
		if u.ID == up.ID {
			require.False(t, u.IsTemporary)
			return
		}
	}
	t.Fatalf("upload %d missing from list", up.ID)
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "application/pdf", DetectMIME("a.PDF", nil))
	assert.Equal(t, "image/jpeg", DetectMIME("photo.jpeg", nil))
	assert.True(t, strings.HasPrefix(DetectMIME("noext", []byte("plain text content")), "text/plain"))
}
