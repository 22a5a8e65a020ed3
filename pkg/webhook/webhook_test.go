package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-run/komodo-core/pkg/actionstate"
	"github.com/komodo-run/komodo-core/pkg/execution"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/permission"
	"github.com/komodo-run/komodo-core/pkg/update"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAcceptsMatchingHMAC(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	header := sign("s3cr3t", body)
	assert.NoError(t, VerifySignature("s3cr3t", body, header))
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	header := sign("s3cr3t", body)
	assert.Error(t, VerifySignature("wrong", body, header))
}

func TestVerifySignatureRejectsMalformedHeader(t *testing.T) {
	assert.Error(t, VerifySignature("s3cr3t", []byte("body"), "not-a-signature"))
}

func TestBranchFromRefStripsPrefix(t *testing.T) {
	assert.Equal(t, "main", BranchFromRef("refs/heads/main"))
	assert.Equal(t, "feature/x", BranchFromRef("refs/heads/feature/x"))
}

func TestLockCacheWithLockSerializesSameKey(t *testing.T) {
	c := NewLockCache()
	var mu sync.Mutex
	order := []string{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.WithLock("r1", func() {
			mu.Lock()
			order = append(order, "a-start")
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, "a-end")
			mu.Unlock()
		})
	}()
	time.Sleep(2 * time.Millisecond)
	go func() {
		defer wg.Done()
		c.WithLock("r1", func() {
			mu.Lock()
			order = append(order, "b-start")
			mu.Unlock()
		})
	}()
	wg.Wait()

	require.Equal(t, []string{"a-start", "a-end", "b-start"}, order)
}

func TestLockCacheDistinctKeysDoNotContend(t *testing.T) {
	c := NewLockCache()
	done := make(chan struct{})
	c.WithLock("a", func() {
		go func() {
			c.WithLock("b", func() {})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("distinct keys should not block each other")
		}
	})
}

// --- listener integration tests ---

type fakeRepoSource struct{ repo *models.Repo }

func (f fakeRepoSource) GetRepo(_ context.Context, id string) (*models.Repo, error) {
	if f.repo == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.repo, nil
}

type fakeBuildSource struct{ build *models.Build }

func (f fakeBuildSource) GetBuild(_ context.Context, id string) (*models.Build, error) {
	if f.build == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.build, nil
}

type fakeProcedureSource struct{ proc *models.Procedure }

func (f fakeProcedureSource) GetProcedure(_ context.Context, id string) (*models.Procedure, error) {
	if f.proc == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.proc, nil
}

type fakeSyncSource struct{ sync *models.ResourceSync }

func (f fakeSyncSource) GetSync(_ context.Context, id string) (*models.ResourceSync, error) {
	if f.sync == nil {
		return nil, fmt.Errorf("not found")
	}
	return f.sync, nil
}

func newTestListener(t *testing.T, repo *models.Repo) (*Listener, *gin.Engine, *int32) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls int32
	engine := execution.New(permission.New(nil, nil, nil, false), actionstate.NewCache(), update.New(newJournalStore(), nil, func() int64 { return 1 }))
	engine.Register(execution.TypePullRepo, func(_ context.Context, _ execution.ExecuteRequest, _ *update.Journal, _ *models.Update) error {
		calls++
		return nil
	})
	engine.Register(execution.TypeCloneRepo, func(_ context.Context, _ execution.ExecuteRequest, _ *update.Journal, _ *models.Update) error {
		calls++
		return nil
	})

	l := New(fakeRepoSource{repo: repo}, fakeBuildSource{}, fakeProcedureSource{}, fakeSyncSource{}, NewLocks(), engine, func(string) string { return "s3cr3t" })
	l.Jitter = 0

	r := gin.New()
	l.Register(r)
	return l, r, &calls
}

type journalStore struct {
	mu sync.Mutex
	m  map[string]*models.Update
}

func newJournalStore() *journalStore { return &journalStore{m: make(map[string]*models.Update)} }

func (s *journalStore) InsertUpdate(_ context.Context, u *models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.ID] = u
	return nil
}
func (s *journalStore) SaveUpdate(_ context.Context, u *models.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[u.ID] = u
	return nil
}
func (s *journalStore) GetUpdate(_ context.Context, id string) (*models.Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[id], nil
}

func TestHandleRepoPullDispatchesOnValidSignatureAndBranch(t *testing.T) {
	repo := &models.Repo{ID: "r1", Config: models.RepoConfig{Branch: "main"}}
	_, router, calls := newTestListener(t, repo)

	body := []byte(`{"ref":"refs/heads/main"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/github/repo/r1/pull", bytes.NewReader(body))
	req.Header.Set("x-hub-signature-256", sign("s3cr3t", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, *calls)
}

func TestHandleRepoPullRejectsBadSignature(t *testing.T) {
	repo := &models.Repo{ID: "r1", Config: models.RepoConfig{Branch: "main"}}
	_, router, calls := newTestListener(t, repo)

	body := []byte(`{"ref":"refs/heads/main"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/github/repo/r1/pull", bytes.NewReader(body))
	req.Header.Set("x-hub-signature-256", sign("wrong-secret", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.EqualValues(t, 0, *calls)
}

func TestHandleRepoPullRejectsBranchMismatch(t *testing.T) {
	repo := &models.Repo{ID: "r1", Config: models.RepoConfig{Branch: "main"}}
	_, router, calls := newTestListener(t, repo)

	body := []byte(`{"ref":"refs/heads/feature-x"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/github/repo/r1/pull", bytes.NewReader(body))
	req.Header.Set("x-hub-signature-256", sign("s3cr3t", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.EqualValues(t, 0, *calls)
}

func TestHandleRepoCloneUnknownRepoReturns404(t *testing.T) {
	_, router, calls := newTestListener(t, nil)

	body := []byte(`{"ref":"refs/heads/main"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/github/repo/missing/clone", bytes.NewReader(body))
	req.Header.Set("x-hub-signature-256", sign("s3cr3t", body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.EqualValues(t, 0, *calls)
}

func TestHandleProcedureComparesURLBoundBranch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := execution.New(permission.New(nil, nil, nil, false), actionstate.NewCache(), update.New(newJournalStore(), nil, func() int64 { return 1 }))
	var calls int32
	engine.Register(execution.TypeRunProcedure, func(_ context.Context, _ execution.ExecuteRequest, _ *update.Journal, _ *models.Update) error {
		calls++
		return nil
	})
	l := New(fakeRepoSource{}, fakeBuildSource{}, fakeProcedureSource{proc: &models.Procedure{ID: "p1"}}, fakeSyncSource{}, NewLocks(), engine, func(string) string { return "s3cr3t" })
	l.Jitter = 0
	r := gin.New()
	l.Register(r)

	body := []byte(`{"ref":"refs/heads/release"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhook/github/procedure/p1/release", bytes.NewReader(body))
	req.Header.Set("x-hub-signature-256", sign("s3cr3t", body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, calls)
}
