package devstub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/finbroker/internal/client/services"
	"github.com/dmitrijs2005/finbroker/internal/common"
	"github.com/dmitrijs2005/finbroker/internal/logging"
)

// Server wires the in-memory store behind a gin router that mirrors the
// platform API surface used by the client.
type Server struct {
	engine *gin.Engine
	store  *Store
	secret []byte
	log    logging.Logger
}

func NewServer(secret []byte, stageTTL time.Duration, log logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine: gin.New(),
		store:  NewStore(stageTTL),
		secret: secret,
		log:    log,
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.POST("/api/auth/login", s.login)

	api := s.engine.Group("/api", s.authRequired())
	{
		api.POST("/uploads", s.stageUpload)
		api.GET("/uploads", s.listUploads)
		api.GET("/uploads/:id", s.getUpload)
		api.POST("/uploads/:id/replace", s.replaceUpload)
		api.POST("/uploads/:id/confirm", s.confirmUpload)
		api.DELETE("/uploads/:id", s.removeUpload)
		api.GET("/uploads/:id/download", s.downloadUpload)
		api.GET("/moderation/pending", s.pendingModeration)
		api.POST("/moderation/:id/approve", s.approveModeration)
	}

	// Static delivery is outside the API base but still behind the bearer
	// check: anonymous requests get a 401, not the bytes.
	s.engine.GET("/uploads/:id/:name", s.authRequired(), s.serveStatic)
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// StartJanitor starts the background sweep of expired staged uploads.
func (s *Server) StartJanitor(ctx context.Context, interval time.Duration) {
	s.store.StartJanitor(ctx, interval)
}

// authRequired rejects requests without a valid bearer token and stashes
// the caller's identity in the request context.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get(common.AuthHeaderName)
		if authHeader == "" {
			c.String(http.StatusUnauthorized, "missing authorization header")
			c.Abort()
			return
		}
		token, ok := strings.CutPrefix(authHeader, common.BearerPrefix)
		if !ok {
			c.String(http.StatusUnauthorized, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := ParseToken(s.secret, token)
		if err != nil {
			c.String(http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

func userID(c *gin.Context) int64 {
	return c.GetInt64("user_id")
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// login accepts any credential pair and issues a signed token. The user id
// is derived from the email so repeated logins map to the same account.
func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "email and password are required")
		return
	}

	var id int64
	for _, b := range []byte(strings.ToLower(req.Email)) {
		id = id*31 + int64(b)
	}
	if id < 0 {
		id = -id
	}

	token, err := GenerateToken(s.secret, id, req.Email, "client")
	if err != nil {
		c.String(http.StatusInternalServerError, "could not issue token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// readUploadForm pulls the multipart file and enforces the server-side
// constraints shared by stage and replace.
func (s *Server) readUploadForm(c *gin.Context) (string, string, []byte, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "file field is required")
		return "", "", nil, false
	}
	if fh.Size > services.MaxUploadSize {
		c.String(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d bytes", int64(services.MaxUploadSize)))
		return "", "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.String(http.StatusBadRequest, "could not read file")
		return "", "", nil, false
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.String(http.StatusBadRequest, "could not read file")
		return "", "", nil, false
	}
	if len(content) == 0 {
		c.String(http.StatusBadRequest, "file is empty")
		return "", "", nil, false
	}

	contentType := services.DetectMIME(fh.Filename, content)
	if !services.IsAllowedMIME(contentType) {
		c.String(http.StatusUnsupportedMediaType, fmt.Sprintf("type %s is not accepted", contentType))
		return "", "", nil, false
	}
	return fh.Filename, contentType, content, true
}

func (s *Server) stageUpload(c *gin.Context) {
	uploadCtx := c.PostForm("context")
	switch uploadCtx {
	case "avatar", "document", "message":
	default:
		c.String(http.StatusBadRequest, "unknown upload context")
		return
	}

	fileName, contentType, content, ok := s.readUploadForm(c)
	if !ok {
		return
	}

	up := s.store.Stage(userID(c), fileName, contentType, content, uploadCtx)
	s.log.Info(c.Request.Context(), "staged upload", "id", up.ID, "file", up.FileName)
	c.JSON(http.StatusCreated, up)
}

func parsePathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid upload id")
		return 0, false
	}
	return id, true
}

func (s *Server) getUpload(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	up, err := s.store.Get(userID(c), id)
	if err != nil {
		c.String(http.StatusNotFound, "upload not found")
		return
	}
	c.JSON(http.StatusOK, up)
}

func (s *Server) replaceUpload(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	fileName, contentType, content, ok := s.readUploadForm(c)
	if !ok {
		return
	}

	switch err := s.store.Replace(userID(c), id, fileName, contentType, content); {
	case err == nil:
		c.Status(http.StatusOK)
	case err == ErrConfirmed:
		c.String(http.StatusConflict, "upload is already confirmed")
	default:
		c.String(http.StatusNotFound, "upload not found")
	}
}

func (s *Server) confirmUpload(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	up, err := s.store.Confirm(userID(c), id)
	if err != nil {
		c.String(http.StatusNotFound, "upload not found")
		return
	}
	c.JSON(http.StatusOK, up)
}

func (s *Server) removeUpload(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	switch err := s.store.Remove(userID(c), id); {
	case err == nil:
		c.Status(http.StatusNoContent)
	case err == ErrConfirmed:
		c.String(http.StatusConflict, "upload is already confirmed")
	default:
		c.String(http.StatusNotFound, "upload not found")
	}
}

func (s *Server) listUploads(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List(userID(c), c.Query("context")))
}

func (s *Server) downloadUpload(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	content, contentType, fileName, err := s.store.Content(userID(c), id)
	if err != nil {
		c.String(http.StatusNotFound, "upload not found")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, contentType, content)
}

func (s *Server) serveStatic(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	content, contentType, _, err := s.store.Content(userID(c), id)
	if err != nil {
		c.String(http.StatusNotFound, "not found")
		return
	}
	c.Data(http.StatusOK, contentType, content)
}

func (s *Server) pendingModeration(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.PendingSummaries(userID(c)))
}

func (s *Server) approveModeration(c *gin.Context) {
	id, ok := parsePathID(c)
	if !ok {
		return
	}
	if err := s.store.Approve(userID(c), id); err != nil {
		c.String(http.StatusNotFound, "record not found")
		return
	}
	c.Status(http.StatusOK)
}

func staticURL(id int64, fileName string) string {
	return fmt.Sprintf("/uploads/%d/%s", id, url.PathEscape(fileName))
}
