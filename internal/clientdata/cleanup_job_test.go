package clientdata

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	job := NewCleanupJob(NewRepository(db), nil, zerolog.Nop())
	assert.Equal(t, "price_cache_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, nil, zerolog.Nop())

	require.NoError(t, repo.Store(TablePriceHistory, "expired-1", closes{}, -time.Hour))
	require.NoError(t, repo.Store(TablePriceHistory, "expired-2", closes{}, -time.Minute))
	require.NoError(t, repo.Store(TablePriceHistory, "fresh", closes{}, time.Hour))

	require.NoError(t, job.Run())

	n, err := repo.Count(TablePriceHistory)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Nothing left to clean
	require.NoError(t, job.Run())
}

func TestCleanupJobRun_Error(t *testing.T) {
	db := setupTestDB(t)
	job := NewCleanupJob(NewRepository(db), nil, zerolog.Nop())
	db.Close()

	assert.Error(t, job.Run())
}

type fakeCheckpointer struct {
	modes []string
	err   error
}

func (c *fakeCheckpointer) WALCheckpoint(mode string) error {
	c.modes = append(c.modes, mode)
	return c.err
}

func TestCleanupJobRun_CheckpointsAfterDeletes(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	cp := &fakeCheckpointer{}
	job := NewCleanupJob(repo, cp, zerolog.Nop())

	// Nothing expired, nothing to checkpoint
	require.NoError(t, repo.Store(TablePriceHistory, "fresh", closes{}, time.Hour))
	require.NoError(t, job.Run())
	assert.Empty(t, cp.modes)

	require.NoError(t, repo.Store(TablePriceHistory, "expired", closes{}, -time.Hour))
	require.NoError(t, job.Run())
	assert.Equal(t, []string{"TRUNCATE"}, cp.modes)
}

func TestCleanupJobRun_CheckpointFailureIsNotFatal(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	cp := &fakeCheckpointer{err: errors.New("database is locked")}
	job := NewCleanupJob(repo, cp, zerolog.Nop())

	require.NoError(t, repo.Store(TablePriceHistory, "expired", closes{}, -time.Hour))
	assert.NoError(t, job.Run())
	assert.Len(t, cp.modes, 1)

	n, err := repo.Count(TablePriceHistory)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
