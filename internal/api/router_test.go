package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/finance-ingest/internal/api/handlers"
	"github.com/dvloznov/finance-ingest/internal/jobs"
	"github.com/dvloznov/finance-ingest/internal/jobs/inmemory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of jobs.Publisher.
type MockPublisher struct {
	PublishFunc func(ctx context.Context, job *jobs.Job) error
	published   []*jobs.Job
}

func (m *MockPublisher) Publish(ctx context.Context, job *jobs.Job) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, job); err != nil {
			return err
		}
	}
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	job.Status = jobs.JobStatusPending
	m.published = append(m.published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// MockSweeper is a mock implementation of handlers.Sweeper.
type MockSweeper struct {
	SweepFunc func(ctx context.Context, userID string, olderThan time.Duration) ([]string, error)
}

func (m *MockSweeper) Sweep(ctx context.Context, userID string, olderThan time.Duration) ([]string, error) {
	return m.SweepFunc(ctx, userID, olderThan)
}

type harness struct {
	pub     *MockPublisher
	store   *inmemory.Store
	sweeper *MockSweeper
	handler http.Handler
}

func newHarness(token string) *harness {
	h := &harness{
		pub:     &MockPublisher{},
		store:   inmemory.NewStore(),
		sweeper: &MockSweeper{},
	}
	h.sweeper.SweepFunc = func(ctx context.Context, userID string, olderThan time.Duration) ([]string, error) {
		return nil, nil
	}
	log := zerolog.Nop()
	h.handler = NewRouter(RouterConfig{
		Events:       handlers.NewEventsHandler(h.pub, log),
		Jobs:         handlers.NewJobsHandler(h.store, log),
		Maintenance:  handlers.NewMaintenanceHandler(h.sweeper, 15*time.Minute, log),
		TriggerToken: token,
		Log:          log,
	})
	return h
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRawFileCreated(t *testing.T) {
	h := newHarness("")

	rec := h.do(http.MethodPost, "/events/raw-file-created", `{"user_id":"u1","file_id":"f1"}`, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "job-1", decodeBody(t, rec)["job_id"])

	require.Len(t, h.pub.published, 1)
	job := h.pub.published[0]
	assert.Equal(t, jobs.JobTypeProcessRawFile, job.Type)
	assert.Equal(t, "u1", job.UserID)
	assert.Equal(t, "f1", job.FileID)
}

func TestRawFileCreated_BadRequests(t *testing.T) {
	h := newHarness("")

	for _, body := range []string{`not json`, `{"user_id":"u1"}`, `{"file_id":"f1"}`, `{"user_id":" ","file_id":"f1"}`} {
		rec := h.do(http.MethodPost, "/events/raw-file-created", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, h.pub.published)
}

func TestUserCreated(t *testing.T) {
	h := newHarness("")

	rec := h.do(http.MethodPost, "/events/user-created", `{"user_id":"u9"}`, "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, h.pub.published, 1)
	assert.Equal(t, jobs.JobTypeSeedCategories, h.pub.published[0].Type)
	assert.Equal(t, "u9", h.pub.published[0].UserID)
}

func TestEvents_PublishFailure(t *testing.T) {
	h := newHarness("")
	h.pub.PublishFunc = func(ctx context.Context, job *jobs.Job) error { return errors.New("queue is closed") }

	rec := h.do(http.MethodPost, "/events/user-created", `{"user_id":"u9"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEvents_TriggerToken(t *testing.T) {
	h := newHarness("s3cret")

	rec := h.do(http.MethodPost, "/events/user-created", `{"user_id":"u9"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/events/user-created", `{"user_id":"u9"}`, "s3cret")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJobs(t *testing.T) {
	h := newHarness("")
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, h.store.SaveJob(ctx, &jobs.Job{JobID: "a", Type: jobs.JobTypeProcessRawFile, UserID: "u1", FileID: "f1", Status: jobs.JobStatusCompleted, CreatedAt: now}))
	require.NoError(t, h.store.SaveJob(ctx, &jobs.Job{JobID: "b", Type: jobs.JobTypeSeedCategories, UserID: "u2", Status: jobs.JobStatusFailed, CreatedAt: now.Add(time.Second)}))

	rec := h.do(http.MethodGet, "/api/jobs?user_id=u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeBody(t, rec)["count"])

	rec = h.do(http.MethodGet, "/api/jobs?status=unknown", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["jobs"])

	rec = h.do(http.MethodGet, "/api/jobs/b", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failed", decodeBody(t, rec)["status"])

	rec = h.do(http.MethodGet, "/api/jobs/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSweep(t *testing.T) {
	h := newHarness("")

	var gotUser string
	var gotAge time.Duration
	h.sweeper.SweepFunc = func(ctx context.Context, userID string, olderThan time.Duration) ([]string, error) {
		gotUser, gotAge = userID, olderThan
		return []string{"f1", "f2"}, nil
	}

	rec := h.do(http.MethodPost, "/api/users/u1/sweep", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, 15*time.Minute, gotAge)
	assert.EqualValues(t, 2, decodeBody(t, rec)["count"])

	rec = h.do(http.MethodPost, "/api/users/u1/sweep?older_than=1h", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Hour, gotAge)

	rec = h.do(http.MethodPost, "/api/users/u1/sweep?older_than=soon", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h.sweeper.SweepFunc = func(ctx context.Context, userID string, olderThan time.Duration) ([]string, error) {
		return nil, errors.New("query failed")
	}
	rec = h.do(http.MethodPost, "/api/users/u1/sweep", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEvents_ConcurrentWithRealQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := inmemory.NewStore()
	queue := inmemory.NewQueue(10, 2, store)
	require.NoError(t, queue.Start(ctx, func(ctx context.Context, job *jobs.Job) error {
		job.Result = job.UserID
		return nil
	}))
	defer queue.Close()

	log := zerolog.Nop()
	handler := NewRouter(RouterConfig{
		Events: handlers.NewEventsHandler(queue, log),
		Jobs:   handlers.NewJobsHandler(store, log),
		Log:    log,
	})

	const n = 50
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/events/user-created", strings.NewReader(`{"user_id":"u1"}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusAccepted {
				return
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err == nil && body["status"] == string(jobs.JobStatusPending) {
				ids[i] = body["job_id"]
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.NotEmpty(t, id)
		require.Eventually(t, func() bool {
			j, err := store.GetJob(context.Background(), id)
			return err == nil && j.Status == jobs.JobStatusCompleted
		}, 2*time.Second, 10*time.Millisecond)
	}
}
