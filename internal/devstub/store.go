package devstub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/finbroker/internal/client/models"
)

var (
	ErrNotFound  = errors.New("upload not found")
	ErrConfirmed = errors.New("upload is already confirmed")
)

// record is one stored upload together with its raw content. Ownership is
// enforced on every access: a record never leaks across users.
type record struct {
	upload      models.Upload
	ownerID     int64
	content     []byte
	contentType string
	pending     bool
}

// Store keeps all uploads in memory. Staged records carry an expiry and are
// swept by the janitor; confirming clears both the temporary flag and the
// expiry and queues the record for moderation.
type Store struct {
	mu       sync.Mutex
	records  map[int64]*record
	seq      int64
	stageTTL time.Duration
}

func NewStore(stageTTL time.Duration) *Store {
	return &Store{
		records:  make(map[int64]*record),
		stageTTL: stageTTL,
	}
}

func (s *Store) Stage(ownerID int64, fileName, contentType string, content []byte, uploadCtx string) models.Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	up := models.Upload{
		ID:          s.seq,
		URL:         staticURL(s.seq, fileName),
		FileName:    fileName,
		Size:        int64(len(content)),
		Context:     uploadCtx,
		IsTemporary: true,
		ExpiresAt:   time.Now().Add(s.stageTTL),
	}
	s.records[up.ID] = &record{
		upload:      up,
		ownerID:     ownerID,
		content:     content,
		contentType: contentType,
	}
	return up
}

func (s *Store) Get(ownerID, id int64) (models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return models.Upload{}, err
	}
	return r.upload, nil
}

// Replace swaps the content of a staged record. The identifier and URL stay
// the same; confirmed records reject the mutation.
func (s *Store) Replace(ownerID, id int64, fileName, contentType string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return err
	}
	if !r.upload.IsTemporary {
		return ErrConfirmed
	}
	r.upload.FileName = fileName
	r.upload.URL = staticURL(id, fileName)
	r.upload.Size = int64(len(content))
	r.content = content
	r.contentType = contentType
	return nil
}

// Confirm makes a staged record permanent and queues it for moderation.
// Confirming an already-confirmed record is a no-op.
func (s *Store) Confirm(ownerID, id int64) (models.Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return models.Upload{}, err
	}
	if r.upload.IsTemporary {
		r.upload.IsTemporary = false
		r.upload.ExpiresAt = time.Time{}
		r.pending = true
	}
	return r.upload, nil
}

// Remove discards a staged record. Confirmed records are permanent and
// cannot be removed through the upload lifecycle.
func (s *Store) Remove(ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return err
	}
	if !r.upload.IsTemporary {
		return ErrConfirmed
	}
	delete(s.records, id)
	return nil
}

func (s *Store) List(ownerID int64, uploadCtx string) []models.Upload {
	s.mu.Lock()
	defer s.mu.Unlock()

	uploads := []models.Upload{}
	for _, r := range s.records {
		if r.ownerID != ownerID {
			continue
		}
		if uploadCtx != "" && r.upload.Context != uploadCtx {
			continue
		}
		uploads = append(uploads, r.upload)
	}
	return uploads
}

// Content returns the stored bytes for download and static delivery.
func (s *Store) Content(ownerID, id int64) ([]byte, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return nil, "", "", err
	}
	return r.content, r.contentType, r.upload.FileName, nil
}

// PendingSummaries aggregates the moderation queue for one user.
func (s *Store) PendingSummaries(ownerID int64) []models.PendingSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summaries := []models.PendingSummary{}
	for _, r := range s.records {
		if r.ownerID != ownerID || !r.pending {
			continue
		}
		summaries = append(summaries, models.PendingSummary{
			RecordID:      r.upload.ID,
			PendingCount:  1,
			LastPendingAt: time.Now(),
		})
	}
	return summaries
}

// Approve clears the pending flag for a record.
func (s *Store) Approve(ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.find(ownerID, id)
	if err != nil {
		return err
	}
	r.pending = false
	return nil
}

// Sweep deletes staged records whose expiry has passed and reports how many
// were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	dropped := 0
	for id, r := range s.records {
		if r.upload.IsTemporary && now.After(r.upload.ExpiresAt) {
			delete(s.records, id)
			dropped++
		}
	}
	return dropped
}

// StartJanitor sweeps expired staged records on the given interval until ctx
// is cancelled.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// find must be called with s.mu held. Records owned by someone else look
// like they do not exist.
func (s *Store) find(ownerID, id int64) (*record, error) {
	r, ok := s.records[id]
	if !ok || r.ownerID != ownerID {
		return nil, ErrNotFound
	}
	return r, nil
}
