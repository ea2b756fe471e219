package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/finance-ingest/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ListJobsFilters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, j := range []*jobs.Job{
		{JobID: "a", Type: jobs.JobTypeProcessRawFile, UserID: "u1", FileID: "f1", Status: jobs.JobStatusCompleted},
		{JobID: "b", Type: jobs.JobTypeProcessRawFile, UserID: "u1", FileID: "f2", Status: jobs.JobStatusFailed},
		{JobID: "c", Type: jobs.JobTypeSeedCategories, UserID: "u2", Status: jobs.JobStatusCompleted},
	} {
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.SaveJob(ctx, j))
	}

	all, err := s.ListJobs(ctx, jobs.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].JobID, "newest first")

	byUser, err := s.ListJobs(ctx, jobs.JobFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byFile, err := s.ListJobs(ctx, jobs.JobFilter{FileID: "f2"})
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, "b", byFile[0].JobID)

	byType, err := s.ListJobs(ctx, jobs.JobFilter{Type: jobs.JobTypeSeedCategories})
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	paged, err := s.ListJobs(ctx, jobs.JobFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].JobID)

	empty, err := s.ListJobs(ctx, jobs.JobFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetJob(context.Background(), "nope")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	assert.ErrorIs(t, s.UpdateJobStatus(context.Background(), "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
	assert.Error(t, s.SaveJob(context.Background(), &jobs.Job{}))
}

func TestStore_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.SaveJob(ctx, &jobs.Job{JobID: "a", Status: jobs.JobStatusRunning}))
	require.NoError(t, s.UpdateJobStatus(ctx, "a", jobs.JobStatusFailed, "boom"))

	got, err := s.GetJob(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)
}
