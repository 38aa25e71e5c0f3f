package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

func sampleResult() grant.DiscoveryResult {
	return grant.DiscoveryResult{
		RunID:      "0c5f8a1e-6f2a-4b6e-9a7d-0b1c2d3e4f50",
		Mode:       grant.ModeForm,
		TotalFound: 2,
		Elapsed:    3 * time.Second,
		Grants: []grant.EnrichedGrant{
			{
				RawGrantRecord: grant.RawGrantRecord{Title: "First Grant"},
				ID:             1,
				RelevanceScore: 90,
			},
			{
				RawGrantRecord: grant.RawGrantRecord{Title: "Second Grant"},
				ID:             2,
				RelevanceScore: 75,
			},
		},
	}
}

func TestSaveRun(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	result := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO discovery_runs").
		WithArgs(result.RunID, result.Mode, pgxmock.AnyArg(), result.TotalFound, int64(3000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO discovery_grants").
		WithArgs(result.RunID, 1, "First Grant", 90, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO discovery_grants").
		WithArgs(result.RunID, 2, "Second Grant", 75, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	p := &Postgres{pool: mock, logger: zap.NewNop()}
	require.NoError(t, p.SaveRun(context.Background(), result, grant.SearchCriteria{Industry: "AI"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRollsBackOnGrantInsertFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	result := sampleResult()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO discovery_runs").
		WithArgs(result.RunID, result.Mode, pgxmock.AnyArg(), result.TotalFound, int64(3000)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO discovery_grants").
		WithArgs(result.RunID, 1, "First Grant", 90, pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	p := &Postgres{pool: mock, logger: zap.NewNop()}
	err = p.SaveRun(context.Background(), result, grant.SearchCriteria{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert grant")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoOpProvider(t *testing.T) {
	t.Parallel()

	var p Provider = NoOp{}
	assert.NoError(t, p.SaveRun(context.Background(), grant.DiscoveryResult{}, grant.SearchCriteria{}))
	assert.NoError(t, p.Close())
}
