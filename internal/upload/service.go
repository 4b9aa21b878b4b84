package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"uploadgate/internal/auth"
	"uploadgate/internal/config"
)

const listCacheTTL = 30 * time.Second

// Service orchestrates the upload session lifecycle: creation with
// idempotency resolution, part URL presigning, strict completion and
// aborts, all driven through the state machine persisted by the
// repository.
type Service struct {
	repo     Repository
	gateway  MultipartGateway
	notifier CompletionNotifier
	cache    Cache
	policy   *config.UploadPolicy
	bucket   string
	logger   *slog.Logger
}

// NewService wires the manager. notifier and cache may be nil; both are
// optional side channels.
func NewService(
	repo Repository,
	gateway MultipartGateway,
	notifier CompletionNotifier,
	cache Cache,
	policy *config.UploadPolicy,
	bucket string,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cache:    cache,
		policy:   policy,
		bucket:   bucket,
		logger:   logger,
	}
}

// Create validates the request, resolves the idempotency fast path, plans
// the part layout, opens a multipart upload remotely and persists the new
// INITIATED session. A remote failure surfaces as upstream with nothing
// persisted.
func (s *Service) Create(ctx context.Context, identity auth.Identity, req *CreateRequest) (*CreateResponse, error) {
	if req.FileSizeBytes > s.policy.MaxFileSizeBytes {
		return nil, newError(KindValidation, "file size %d exceeds maximum %d", req.FileSizeBytes, s.policy.MaxFileSizeBytes)
	}
	if !AllowedContentType(req.ContentType, s.policy.AllowedContentTypes) {
		return nil, newError(KindValidation, "content type not allowed: %s", req.ContentType)
	}

	idem := strings.TrimSpace(req.IdempotencyKey)
	if idem != "" {
		existing, err := s.repo.FindByOwnerAndIdempotencyKey(ctx, identity.Subject, idem)
		if err != nil {
			return nil, wrapError(KindInternal, err, "idempotency lookup failed")
		}
		if existing != nil && existing.Status == StatusInitiated {
			return s.createResponse(existing), nil
		}
	}

	plan, err := PlanParts(req.FileSizeBytes, s.policy.PartSizeBytes, s.policy.MaxPartCount)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(identity.Subject, req.FileName)

	remoteUploadID, err := s.gateway.CreateUpload(ctx, s.bucket, key, req.ContentType)
	if err != nil {
		return nil, wrapError(KindUpstream, err, "failed to create multipart upload")
	}

	now := time.Now().UTC()
	session := &Session{
		ID:             uuid.NewString(),
		OwnerID:        identity.Subject,
		OwnerName:      identity.DisplayName,
		Bucket:         s.bucket,
		ObjectKey:      key,
		RemoteUploadID: remoteUploadID,
		FileName:       req.FileName,
		ContentType:    req.ContentType,
		FileSizeBytes:  req.FileSizeBytes,
		PartSizeBytes:  plan.PartSizeBytes,
		PartCount:      plan.PartCount,
		IdempotencyKey: idem,
		Status:         StatusInitiated,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.invalidateList(ctx, identity.Subject)
	s.logger.Info("upload session created",
		"upload_id", session.ID, "owner", identity.Subject,
		"object_key", key, "part_count", plan.PartCount)

	return s.createResponse(session), nil
}

// Get returns the caller's view of one session.
func (s *Service) Get(ctx context.Context, identity auth.Identity, sessionID string) (*SessionView, error) {
	session, err := s.loadOwned(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	return session.view(), nil
}

// ListMine returns the caller's most recent sessions, newest first,
// regardless of status. Reads go through the cache when one is wired.
func (s *Service) ListMine(ctx context.Context, identity auth.Identity) ([]SessionView, error) {
	cacheKey := listCacheKey(identity.Subject)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.logger.Warn("list cache read failed", "owner", identity.Subject, "error", err)
		} else if cached != "" {
			var views []SessionView
			if err := json.Unmarshal([]byte(cached), &views); err == nil {
				return views, nil
			}
		}
	}

	sessions, err := s.repo.FindRecentByOwner(ctx, identity.Subject, s.policy.ListLimit)
	if err != nil {
		return nil, wrapError(KindInternal, err, "failed to list sessions")
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		views = append(views, *sessions[i].view())
	}

	if s.cache != nil {
		if data, err := json.Marshal(views); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), listCacheTTL); err != nil {
				s.logger.Warn("list cache write failed", "owner", identity.Subject, "error", err)
			}
		}
	}

	return views, nil
}

// PresignPartURL returns a time-boxed URL for uploading one part. The
// session is not mutated; the URL carries its own expiry.
func (s *Service) PresignPartURL(ctx context.Context, identity auth.Identity, sessionID string, partNumber int) (*PresignedPartURL, error) {
	session, err := s.loadOwned(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInitiated {
		return nil, newError(KindConflict, "upload is not in INITIATED state")
	}
	if partNumber < 1 || partNumber > session.PartCount {
		return nil, newError(KindValidation, "part number must be between 1 and %d", session.PartCount)
	}

	url, err := s.gateway.PresignPartUpload(ctx, session.Bucket, session.ObjectKey, session.RemoteUploadID, partNumber)
	if err != nil {
		return nil, wrapError(KindUpstream, err, "failed to presign part url")
	}

	return &PresignedPartURL{
		PartNumber: partNumber,
		URL:        url,
		ExpiresAt:  time.Now().UTC().Add(s.policy.PresignExpiry()),
	}, nil
}

// Complete validates the part manifest and finalizes the upload remotely.
// On remote failure the session is persisted as FAILED before the error
// surfaces, so retries see a terminal state instead of retrying blindly.
func (s *Service) Complete(ctx context.Context, identity auth.Identity, sessionID string, req *CompleteRequest) (*SessionView, error) {
	session, err := s.loadOwned(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInitiated {
		return nil, newError(KindConflict, "upload is not in INITIATED state")
	}

	parts, err := ValidateParts(session.PartCount, req.Parts)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.CompleteUpload(ctx, session.Bucket, session.ObjectKey, session.RemoteUploadID, parts); err != nil {
		s.markFailed(ctx, session)
		return nil, wrapError(KindUpstream, err, "failed to complete multipart upload")
	}

	now := time.Now().UTC()
	session.Status = StatusCompleted
	session.CompletedAt = &now
	session.UpdatedAt = now
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.invalidateList(ctx, session.OwnerID)
	s.notifyCompleted(ctx, session)
	s.logger.Info("upload session completed",
		"upload_id", session.ID, "owner", session.OwnerID, "object_key", session.ObjectKey)

	return session.view(), nil
}

// Abort cancels an upload. Already-ABORTED sessions are a no-op success;
// COMPLETED sessions are a conflict. A remote failure is persisted as
// FAILED before the error surfaces, which keeps abort itself retryable.
func (s *Service) Abort(ctx context.Context, identity auth.Identity, sessionID string) (*SessionView, error) {
	session, err := s.loadOwned(ctx, identity, sessionID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case StatusCompleted:
		return nil, newError(KindConflict, "cannot abort a COMPLETED upload")
	case StatusAborted:
		return session.view(), nil
	}

	if err := s.gateway.AbortUpload(ctx, session.Bucket, session.ObjectKey, session.RemoteUploadID); err != nil {
		s.markFailed(ctx, session)
		return nil, wrapError(KindUpstream, err, "failed to abort multipart upload")
	}

	session.Status = StatusAborted
	session.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.invalidateList(ctx, session.OwnerID)
	s.logger.Info("upload session aborted", "upload_id", session.ID, "owner", session.OwnerID)

	return session.view(), nil
}

// loadOwned fetches a session and enforces the ownership guard. A session
// owned by someone else yields Forbidden, never NotFound: existence and
// access stay distinguishable for the caller layer.
func (s *Service) loadOwned(ctx context.Context, identity auth.Identity, sessionID string) (*Session, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, wrapError(KindInternal, err, "failed to load session")
	}
	if session == nil {
		return nil, newError(KindNotFound, "upload %s not found", sessionID)
	}
	if session.OwnerID != identity.Subject {
		return nil, newError(KindForbidden, "not the owner of upload %s", sessionID)
	}
	return session, nil
}

func (s *Service) save(ctx context.Context, session *Session) error {
	if err := s.repo.Save(ctx, session); err != nil {
		if KindOf(err) == KindConflict {
			return wrapError(KindConflict, err, "concurrent modification of upload "+session.ID)
		}
		return wrapError(KindInternal, err, "failed to persist session")
	}
	return nil
}

// markFailed persists the FAILED transition before a remote failure is
// re-raised. Persistence errors here are logged, not surfaced: the caller
// already gets the upstream error.
func (s *Service) markFailed(ctx context.Context, session *Session) {
	session.Status = StatusFailed
	session.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, session); err != nil {
		s.logger.Error("failed to persist FAILED transition",
			"upload_id", session.ID, "error", err)
		return
	}
	s.invalidateList(ctx, session.OwnerID)
}

func (s *Service) notifyCompleted(ctx context.Context, session *Session) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.UploadCompleted(ctx, session); err != nil {
		s.logger.Warn("failed to publish completion event",
			"upload_id", session.ID, "error", err)
	}
}

func (s *Service) invalidateList(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listCacheKey(ownerID)); err != nil {
		s.logger.Warn("failed to invalidate list cache", "owner", ownerID, "error", err)
	}
}

func (s *Service) createResponse(session *Session) *CreateResponse {
	return &CreateResponse{
		UploadID:      session.ID,
		ObjectKey:     session.ObjectKey,
		PartSizeBytes: session.PartSizeBytes,
		PartCount:     session.PartCount,
		ExpiresAt:     time.Now().UTC().Add(s.policy.PresignExpiry()),
	}
}

func listCacheKey(ownerID string) string {
	return fmt.Sprintf("user:uploads:%s", ownerID)
}
