package models

import "time"

// UploadContext tags the intended use of an uploaded file.
type UploadContext string

const (
	UploadContextAvatar   UploadContext = "avatar"
	UploadContextDocument UploadContext = "document"
	UploadContextMessage  UploadContext = "message"
)

// Upload is a file stored on the platform. While IsTemporary is true the
// record is staged: it can still be replaced or removed and the server will
// sweep it after ExpiresAt unless it is confirmed. Confirmation links the
// record to a business entity and clears the temporary state for good.
type Upload struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	Context     string    `json:"context"`
	IsTemporary bool      `json:"is_temporary"`
	ExpiresAt   time.Time `json:"expires_at"`
}
