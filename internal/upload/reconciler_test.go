package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uploadgate/internal/config"
)

func newTestReconciler(repo *fakeRepo, gw *fakeGateway) *Reconciler {
	policy := config.DefaultUploadPolicy()
	return NewReconciler(context.Background(), repo, gw, nil, policy, testLogger())
}

func TestReconciler_AbortsStaleSessions(t *testing.T) {
	repo := newFakeRepo()

	stale1 := initiatedSession("stale-1", "user-1")
	stale1.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	stale2 := initiatedSession("stale-2", "user-2")
	stale2.CreatedAt = time.Now().UTC().Add(-36 * time.Hour)
	fresh := initiatedSession("fresh-1", "user-1")
	oldCompleted := initiatedSession("done-1", "user-1")
	oldCompleted.Status = StatusCompleted
	oldCompleted.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)

	repo.seed(stale1)
	repo.seed(stale2)
	repo.seed(fresh)
	repo.seed(oldCompleted)

	gw := &fakeGateway{
		abortFunc: func(ctx context.Context, bucket, key, uploadID string) error {
			if key == stale2.ObjectKey {
				return fmt.Errorf("s3 unavailable")
			}
			return nil
		},
	}

	newTestReconciler(repo, gw).ReconcileOnce(context.Background())

	get := func(id string) Session {
		s, err := repo.FindByID(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, s)
		return *s
	}

	assert.Equal(t, StatusAborted, get("stale-1").Status)
	assert.Equal(t, StatusFailed, get("stale-2").Status, "gateway failure marks the session FAILED")
	assert.Equal(t, StatusInitiated, get("fresh-1").Status, "sessions newer than the cutoff stay untouched")
	assert.Equal(t, StatusCompleted, get("done-1").Status, "non-INITIATED sessions stay untouched")
	assert.Equal(t, 2, gw.abortCalls)
}

func TestReconciler_PartialBatchFailure(t *testing.T) {
	repo := newFakeRepo()
	for i := 1; i <= 3; i++ {
		s := initiatedSession(fmt.Sprintf("stale-%d", i), "user-1")
		s.CreatedAt = time.Now().UTC().Add(-time.Duration(24+i) * time.Hour)
		repo.seed(s)
	}

	calls := 0
	gw := &fakeGateway{
		abortFunc: func(ctx context.Context, bucket, key, uploadID string) error {
			calls++
			if calls == 1 {
				return fmt.Errorf("s3 unavailable")
			}
			return nil
		},
	}

	newTestReconciler(repo, gw).ReconcileOnce(context.Background())

	// the first (oldest) item fails, the rest of the batch still runs
	statuses := make(map[string]int)
	for _, s := range repo.sessions {
		statuses[s.Status]++
	}
	assert.Equal(t, 1, statuses[StatusFailed])
	assert.Equal(t, 2, statuses[StatusAborted])
}

func TestReconciler_LosesRaceGracefully(t *testing.T) {
	repo := newFakeRepo()
	stale := initiatedSession("stale-1", "user-1")
	stale.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	repo.seed(stale)
	// simulate a request-driven transition landing between scan and save
	repo.saveErr = fmt.Errorf("save session stale-1: %w", ErrVersionConflict)

	gw := &fakeGateway{}

	// must not panic or escalate; the conflict is treated as handled
	newTestReconciler(repo, gw).ReconcileOnce(context.Background())
	assert.Equal(t, 1, gw.abortCalls)
}

func TestReconciler_CacheInvalidationFailureIsLogged(t *testing.T) {
	repo := newFakeRepo()
	stale := initiatedSession("stale-1", "user-1")
	stale.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	repo.seed(stale)

	cache := newFakeCache()
	cache.deleteErr = fmt.Errorf("redis unavailable")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewReconciler(context.Background(), repo, &fakeGateway{}, cache, config.DefaultUploadPolicy(), logger)
	r.ReconcileOnce(context.Background())

	// the transition still lands; the cache failure only gets logged
	s, err := repo.FindByID(context.Background(), "stale-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, StatusAborted, s.Status)
	assert.Contains(t, buf.String(), "failed to invalidate list cache")
}

func TestReconciler_StartAndShutdown(t *testing.T) {
	repo := newFakeRepo()
	r := newTestReconciler(repo, &fakeGateway{})
	r.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
}
