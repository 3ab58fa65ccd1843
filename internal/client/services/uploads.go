package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/finbroker/internal/client/api"
	"github.com/dmitrijs2005/finbroker/internal/client/models"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

// MaxUploadSize is the client-side size cap checked before any network
// call. The server enforces its own limit and remains the authority.
const MaxUploadSize = 10 << 20

// mimeByExt pins the MIME type for the extensions the platform accepts.
// Office types in particular are not guessable from content sniffing.
var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

var allowedMIME = func() map[string]struct{} {
	m := make(map[string]struct{}, len(mimeByExt))
	for _, v := range mimeByExt {
		m[v] = struct{}{}
	}
	return m
}()

// Invalidator drops a cached resource handle; implemented by
// resources.Cache. May be nil when no cache is wired.
type Invalidator interface {
	Invalidate(ref string)
}

// UploadService drives the upload state machine:
// staged (temporary, expiring) → confirmed or removed, with replace as a
// same-state mutation while still staged.
type UploadService interface {
	Stage(ctx context.Context, fileName string, data []byte, uploadCtx models.UploadContext) (*models.Upload, error)
	Replace(ctx context.Context, up *models.Upload, fileName string, data []byte) error
	Confirm(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	List(ctx context.Context, uploadCtx models.UploadContext) ([]models.Upload, error)
	// Download returns the stored bytes and the suggested file name.
	Download(ctx context.Context, id int64) ([]byte, string, error)
}

type uploadService struct {
	gw    *api.Gateway
	cache Invalidator
	log   logging.Logger
}

// NewUploadService binds the service to the gateway. cache may be nil;
// when present, Replace invalidates the stale handle for the upload's URL.
func NewUploadService(gw *api.Gateway, cache Invalidator, log logging.Logger) UploadService {
	return &uploadService{gw: gw, cache: cache, log: log}
}

// DetectMIME resolves the MIME type of a file: the pinned extension table
// first, content sniffing as the fallback.
func DetectMIME(fileName string, data []byte) string {
	if mt, ok := mimeByExt[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return http.DetectContentType(data)
}

// IsAllowedMIME reports whether the platform accepts files of this type.
func IsAllowedMIME(mimeType string) bool {
	_, ok := allowedMIME[mimeType]
	return ok
}

// validate applies the local constraints shared by Stage and Replace.
// A violation is an ErrRejected before any network traffic happens.
func validate(fileName string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", api.ErrRejected, fileName)
	}
	if int64(len(data)) > MaxUploadSize {
		return fmt.Errorf("%w: %s exceeds %d bytes", api.ErrRejected, fileName, int64(MaxUploadSize))
	}
	mt := DetectMIME(fileName, data)
	if !IsAllowedMIME(mt) {
		return fmt.Errorf("%w: type %s is not accepted", api.ErrRejected, mt)
	}
	return nil
}

func (s *uploadService) Stage(ctx context.Context, fileName string, data []byte, uploadCtx models.UploadContext) (*models.Upload, error) {
	if err := validate(fileName, data); err != nil {
		return nil, err
	}

	var up models.Upload
	err := s.gw.PostMultipart(ctx, "/uploads", "file", fileName, data,
		map[string]string{"context": string(uploadCtx)}, &up)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}

	s.log.Info(ctx, "staged upload", "id", up.ID, "file", up.FileName, "context", up.Context)
	return &up, nil
}

func (s *uploadService) Replace(ctx context.Context, up *models.Upload, fileName string, data []byte) error {
	if !up.IsTemporary {
		return fmt.Errorf("%w: upload %d is already confirmed", api.ErrRejected, up.ID)
	}
	if err := validate(fileName, data); err != nil {
		return err
	}

	path := fmt.Sprintf("/uploads/%d/replace", up.ID)
	if err := s.gw.PostMultipart(ctx, path, "file", fileName, data, nil, nil); err != nil {
		return fmt.Errorf("replace upload %d: %w", up.ID, err)
	}

	// The identifier (and therefore the reference string) did not change,
	// so a cached handle would keep serving the old bytes.
	if s.cache != nil && up.URL != "" {
		s.cache.Invalidate(up.URL)
	}

	s.log.Info(ctx, "replaced upload", "id", up.ID, "file", fileName)
	return nil
}

func (s *uploadService) Confirm(ctx context.Context, id int64) error {
	if err := s.gw.PostJSON(ctx, fmt.Sprintf("/uploads/%d/confirm", id), nil, nil); err != nil {
		return fmt.Errorf("confirm upload %d: %w", id, err)
	}
	s.log.Info(ctx, "confirmed upload", "id", id)
	return nil
}

func (s *uploadService) Remove(ctx context.Context, id int64) error {
	if err := s.gw.Delete(ctx, fmt.Sprintf("/uploads/%d", id)); err != nil {
		return fmt.Errorf("remove upload %d: %w", id, err)
	}
	s.log.Info(ctx, "removed upload", "id", id)
	return nil
}

func (s *uploadService) List(ctx context.Context, uploadCtx models.UploadContext) ([]models.Upload, error) {
	path := "/uploads"
	if uploadCtx != "" {
		path += "?context=" + url.QueryEscape(string(uploadCtx))
	}

	var uploads []models.Upload
	if err := s.gw.GetJSON(ctx, path, &uploads); err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return uploads, nil
}

// Download fetches the stored bytes and the name to save them under. The
// name comes from the Content-Disposition header; when the server omits it
// the upload record's FileName is used instead.
func (s *uploadService) Download(ctx context.Context, id int64) ([]byte, string, error) {
	data, fileName, err := s.gw.GetFile(ctx, fmt.Sprintf("/uploads/%d/download", id))
	if err != nil {
		return nil, "", fmt.Errorf("download upload %d: %w", id, err)
	}

	if fileName == "" {
		var up models.Upload
		if err := s.gw.GetJSON(ctx, fmt.Sprintf("/uploads/%d", id), &up); err == nil {
			fileName = up.FileName
		}
	}
	return data, fileName, nil
}
