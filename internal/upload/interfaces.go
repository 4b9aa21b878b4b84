package upload

import (
	"context"
	"time"
)

// MultipartGateway is the remote object-store surface the manager drives.
// Kept as an interface so the lifecycle logic can be tested without AWS
// calls. Any failure is treated uniformly as an upstream failure; the core
// never inspects retryability.
type MultipartGateway interface {
	CreateUpload(ctx context.Context, bucket, key, contentType string) (string, error)
	PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int) (string, error)
	CompleteUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) error
	AbortUpload(ctx context.Context, bucket, key, uploadID string) error
}

// Repository persists upload sessions. Save is an explicit
// compare-and-swap: the write only succeeds if the stored version still
// matches the version the session was read at, and the persisted version is
// bumped by one (reflected back into the passed session). A stale write
// fails with ErrVersionConflict. Lookups return (nil, nil) when no session
// matches. FindByOwnerAndIdempotencyKey returns only the live INITIATED
// session for the pair; terminal sessions sharing the key are skipped.
type Repository interface {
	Save(ctx context.Context, s *Session) error
	FindByID(ctx context.Context, id string) (*Session, error)
	FindByOwnerAndIdempotencyKey(ctx context.Context, ownerID, key string) (*Session, error)
	FindRecentByOwner(ctx context.Context, ownerID string, limit int) ([]Session, error)
	FindStaleInitiated(ctx context.Context, cutoff time.Time, limit int) ([]Session, error)
}

// CompletionNotifier publishes an event after a session reaches COMPLETED.
// Publishing is best effort: the manager logs failures and never fails the
// request over them.
type CompletionNotifier interface {
	UploadCompleted(ctx context.Context, s *Session) error
}

// Cache is a small shared cache used to memoize per-owner list reads. A
// miss is ("", nil). Cache errors degrade to repository reads.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
