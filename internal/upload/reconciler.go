package upload

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"uploadgate/internal/config"
)

// Reconciler aborts INITIATED sessions that were created before the stale
// cutoff and never finished. Abandoned multipart uploads keep consuming
// object-store space for their parts until aborted, so the job runs on a
// fixed interval and drives the same abort path as the request layer.
//
// Cleanup is best effort: each session's outcome is persisted on its own,
// so one failure never blocks the rest of the batch and partial progress
// survives a crash mid-batch.
type Reconciler struct {
	repo       Repository
	gateway    MultipartGateway
	cache      Cache
	staleAfter time.Duration
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReconciler(parent context.Context, repo Repository, gateway MultipartGateway, cache Cache, policy *config.UploadPolicy, logger *slog.Logger) *Reconciler {
	ctx, cancel := context.WithCancel(parent)

	return &Reconciler{
		repo:       repo,
		gateway:    gateway,
		cache:      cache,
		staleAfter: policy.StaleAfter(),
		interval:   policy.CleanupInterval(),
		batchSize:  policy.CleanupBatchSize,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the periodic loop.
func (r *Reconciler) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run()
	}()
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.ReconcileOnce(r.ctx)
		}
	}
}

// ReconcileOnce runs a single cleanup pass: fetch a bounded batch of stale
// INITIATED sessions, oldest first, and abort each one. Gateway success
// transitions a session to ABORTED, gateway failure to FAILED; both are
// persisted per item.
func (r *Reconciler) ReconcileOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.staleAfter)

	stale, err := r.repo.FindStaleInitiated(ctx, cutoff, r.batchSize)
	if err != nil {
		r.logger.Error("failed to scan stale sessions", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	r.logger.Info("aborting stale upload sessions", "count", len(stale), "cutoff", cutoff)

	for i := range stale {
		session := &stale[i]

		if err := r.gateway.AbortUpload(ctx, session.Bucket, session.ObjectKey, session.RemoteUploadID); err != nil {
			// keep the record for inspection
			r.logger.Warn("failed to abort stale upload remotely",
				"upload_id", session.ID, "error", err)
			session.Status = StatusFailed
		} else {
			session.Status = StatusAborted
		}
		session.UpdatedAt = time.Now().UTC()

		if err := r.repo.Save(ctx, session); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				// a request-driven transition won the race; already handled
				r.logger.Debug("stale session transitioned concurrently", "upload_id", session.ID)
				continue
			}
			r.logger.Error("failed to persist stale session transition",
				"upload_id", session.ID, "error", err)
			continue
		}

		if r.cache != nil {
			if err := r.cache.Delete(ctx, listCacheKey(session.OwnerID)); err != nil {
				r.logger.Warn("failed to invalidate list cache",
					"owner", session.OwnerID, "error", err)
			}
		}
	}
}

// Shutdown stops the loop and waits for an in-flight pass to finish.
func (r *Reconciler) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
