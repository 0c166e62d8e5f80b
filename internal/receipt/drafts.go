package receipt

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// draftTTL is how long a scanned upload waits for its draft to be committed
	draftTTL = time.Hour

	// maxPendingDrafts bounds the uploads held in memory
	maxPendingDrafts = 16
)

// pendingUpload is a scanned file whose draft has not been committed yet
type pendingUpload struct {
	filename    string
	contentType string
	data        []byte
	scannedAt   time.Time
}

// draftUploads holds scanned files in memory until their draft is committed.
// Nothing reaches storage for a draft that is abandoned.
type draftUploads struct {
	mu      sync.Mutex
	uploads map[string]*pendingUpload
}

func newDraftUploads() *draftUploads {
	return &draftUploads{uploads: make(map[string]*pendingUpload)}
}

// put holds an upload for draft id, dropping expired uploads and, when full,
// the oldest one
func (d *draftUploads) put(id string, upload *pendingUpload) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expire(upload.scannedAt)
	for len(d.uploads) >= maxPendingDrafts {
		oldestID := ""
		for pendingID, p := range d.uploads {
			if oldestID == "" || p.scannedAt.Before(d.uploads[oldestID].scannedAt) {
				oldestID = pendingID
			}
		}
		slog.Warn("Dropping uncommitted draft upload", "id", oldestID, "reason", "too many pending drafts")
		delete(d.uploads, oldestID)
	}
	d.uploads[id] = upload
}

// peek returns the live upload for draft id when its name matches
func (d *draftUploads) peek(id, filename string, now time.Time) (*pendingUpload, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.expire(now)
	upload, ok := d.uploads[id]
	if !ok || upload.filename != filename {
		return nil, false
	}
	return upload, true
}

// remove forgets the upload for draft id
func (d *draftUploads) remove(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.uploads, id)
}

// len reports the number of uploads held
func (d *draftUploads) len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.uploads)
}

// expire drops uploads older than draftTTL. Callers hold mu.
func (d *draftUploads) expire(now time.Time) {
	for id, upload := range d.uploads {
		if now.Sub(upload.scannedAt) > draftTTL {
			slog.Info("Dropping expired draft upload", "id", id, "filename", upload.filename)
			delete(d.uploads, id)
		}
	}
}
