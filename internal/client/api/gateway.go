package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/finbroker/internal/client/session"
	"github.com/dmitrijs2005/finbroker/internal/common"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

// Gateway issues authenticated requests to the platform. API-relative paths
// go under the JSON API base (e.g. http://host/api); static paths go to the
// same origin but bypass the API prefix.
type Gateway struct {
	baseURL   string // API base without trailing slash
	origin    string // scheme://host for static resources
	apiPrefix string // path component of baseURL, e.g. "/api"
	http      *http.Client
	session   *session.Session
	log       logging.Logger
}

func New(baseURL string, timeout time.Duration, sess *session.Session, log logging.Logger) (*Gateway, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	return &Gateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		origin:    u.Scheme + "://" + u.Host,
		apiPrefix: strings.TrimRight(u.Path, "/"),
		http:      &http.Client{Timeout: timeout},
		session:   sess,
		log:       log,
	}, nil
}

// APIPrefix returns the path component of the API base ("/api" for
// http://host/api). Used to strip already-prefixed references.
func (g *Gateway) APIPrefix() string {
	return g.apiPrefix
}

// do sends one request to an absolute URL. The bearer credential is re-read
// from the session on every call; a missing token means the request goes out
// unauthenticated and the server decides. A 401 expires the session before
// the error is returned.
func (g *Gateway) do(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := g.session.Token(); token != "" {
		req.Header.Set(common.AuthHeaderName, common.BearerPrefix+token)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		g.log.Warn(ctx, "unauthorized response, expiring session", "method", method, "url", rawURL)
		g.session.Expire(ctx)
		return nil, ErrUnauthorized
	}

	return resp, nil
}

// DoAPI issues a request for an API-relative path such as "/uploads".
func (g *Gateway) DoAPI(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	return g.do(ctx, method, g.baseURL+path, body, contentType)
}

// DoStatic fetches a path under the origin directly, outside the API base.
// The bearer header is still attached when a token is present.
func (g *Gateway) DoStatic(ctx context.Context, path string) (*http.Response, error) {
	return g.do(ctx, http.MethodGet, g.origin+path, nil, "")
}

// mapStatus converts a non-2xx status into the error taxonomy. Validation
// class statuses become ErrRejected, everything else ErrUnavailable.
func mapStatus(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusRequestEntityTooLarge,
		http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		if msg == "" {
			return fmt.Errorf("%w: status %d", ErrRejected, status)
		}
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
}

func decode(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapStatus(resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetJSON fetches an API path and unmarshals the JSON body into out.
func (g *Gateway) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := g.DoAPI(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// PostJSON posts in as JSON to an API path; out may be nil.
func (g *Gateway) PostJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	resp, err := g.DoAPI(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

// Delete issues a DELETE for an API path.
func (g *Gateway) Delete(ctx context.Context, path string) error {
	resp, err := g.DoAPI(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	return decode(resp, nil)
}

// GetBytes fetches an API path as a binary stream and returns the raw bytes
// with the response content type.
func (g *Gateway) GetBytes(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := g.DoAPI(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", err
	}
	return readBytes(resp)
}

// GetFile fetches an API path as a binary stream and returns the bytes
// together with the filename suggested by the Content-Disposition header.
// The filename is empty when the server sends no usable disposition.
func (g *Gateway) GetFile(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := g.DoAPI(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", err
	}
	disposition := resp.Header.Get("Content-Disposition")

	body, _, err := readBytes(resp)
	if err != nil {
		return nil, "", err
	}

	var fileName string
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil {
			fileName = params["filename"]
		}
	}
	return body, fileName, nil
}

// GetStaticBytes fetches a static path as a binary stream.
func (g *Gateway) GetStaticBytes(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := g.DoStatic(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return readBytes(resp)
}

func readBytes(resp *http.Response) ([]byte, string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", mapStatus(resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// PostMultipart uploads data as a multipart form file under field, with any
// extra form fields, and unmarshals the JSON response into out (may be nil).
func (g *Gateway) PostMultipart(ctx context.Context, path, field, fileName string, data []byte, extra map[string]string, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	for k, v := range extra {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close form: %w", err)
	}

	resp, err := g.DoAPI(ctx, http.MethodPost, path, &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	return decode(resp, out)
}
