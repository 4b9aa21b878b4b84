package upload

import "time"

// Session status values. INITIATED is the only non-terminal state; FAILED
// may still transition to ABORTED through a retried abort.
const (
	StatusInitiated = "INITIATED"
	StatusCompleted = "COMPLETED"
	StatusAborted   = "ABORTED"
	StatusFailed    = "FAILED"
)

// Session is a tracked multipart upload attempt, persisted from creation to
// a terminal outcome. Terminal sessions are kept for audit, never deleted.
type Session struct {
	ID             string     `dynamodbav:"id"`
	OwnerID        string     `dynamodbav:"owner_id"`
	OwnerName      string     `dynamodbav:"owner_name,omitempty"`
	Bucket         string     `dynamodbav:"bucket"`
	ObjectKey      string     `dynamodbav:"object_key"`
	RemoteUploadID string     `dynamodbav:"remote_upload_id"`
	FileName       string     `dynamodbav:"file_name"`
	ContentType    string     `dynamodbav:"content_type"`
	FileSizeBytes  int64      `dynamodbav:"file_size_bytes"`
	PartSizeBytes  int64      `dynamodbav:"part_size_bytes"`
	PartCount      int        `dynamodbav:"part_count"`
	IdempotencyKey string     `dynamodbav:"idempotency_key,omitempty"`
	Status         string     `dynamodbav:"status"`
	CreatedAt      time.Time  `dynamodbav:"created_at"`
	UpdatedAt      time.Time  `dynamodbav:"updated_at"`
	CompletedAt    *time.Time `dynamodbav:"completed_at,omitempty"`

	// CreatedAtNanos is the epoch-nanos copy of CreatedAt used as the
	// index sort key. A numeric range attribute orders exactly, which the
	// RFC3339Nano string form of created_at does not once fractional
	// seconds lose trailing zeros. Repository.Save keeps it in sync.
	CreatedAtNanos int64 `dynamodbav:"created_at_ns"`

	// Version is the optimistic-concurrency counter. A session that has
	// never been saved carries 0; Repository.Save bumps it on success.
	Version int64 `dynamodbav:"version"`
}

// CreateRequest is the client request to open a new upload session.
type CreateRequest struct {
	FileName       string `json:"file_name"`
	ContentType    string `json:"content_type"`
	FileSizeBytes  int64  `json:"file_size_bytes"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CreateResponse tells the client how to drive the part uploads.
type CreateResponse struct {
	UploadID      string    `json:"upload_id"`
	ObjectKey     string    `json:"object_key"`
	PartSizeBytes int64     `json:"part_size_bytes"`
	PartCount     int       `json:"part_count"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// SessionView is the owner-facing projection of a session.
type SessionView struct {
	ID            string     `json:"id"`
	ObjectKey     string     `json:"object_key"`
	FileName      string     `json:"file_name"`
	ContentType   string     `json:"content_type"`
	FileSizeBytes int64      `json:"file_size_bytes"`
	Status        string     `json:"status"`
	PartSizeBytes int64      `json:"part_size_bytes"`
	PartCount     int        `json:"part_count"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PresignedPartURL is a time-boxed URL for uploading one part directly to
// the object store.
type PresignedPartURL struct {
	PartNumber int       `json:"part_number"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// CompletedPart is one entry of the client-reported part manifest.
type CompletedPart struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// CompleteRequest carries the full part manifest for finalization.
type CompleteRequest struct {
	Parts []CompletedPart `json:"parts"`
}

func (s *Session) view() *SessionView {
	return &SessionView{
		ID:            s.ID,
		ObjectKey:     s.ObjectKey,
		FileName:      s.FileName,
		ContentType:   s.ContentType,
		FileSizeBytes: s.FileSizeBytes,
		Status:        s.Status,
		PartSizeBytes: s.PartSizeBytes,
		PartCount:     s.PartCount,
		CreatedAt:     s.CreatedAt,
		CompletedAt:   s.CompletedAt,
	}
}
