package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	for _, table := range []string{"runs", "trades", "equity", "assessments"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := sampleRecord("AAPL")
	runID, err := j.Save(ctx, rec)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	got, err := j.Get(ctx, runID)
	require.NoError(t, err)

	want := rec.Result
	want.ID = runID
	assert.Equal(t, runID, got.ID)
	assert.True(t, rec.Created.Equal(got.Created))
	assert.Equal(t, rec.Notes, got.Notes)
	assert.Equal(t, want.Config, got.Result.Config)
	assert.Equal(t, want.Metrics, got.Result.Metrics)
	assert.Equal(t, want.Backend, got.Result.Backend)
	assert.Equal(t, want.Cash, got.Result.Cash)
	assert.Nil(t, got.Result.OpenPosition)

	require.Len(t, got.Result.Trades, 1)
	tr := got.Result.Trades[0]
	assert.Equal(t, int64(95), tr.Shares)
	assert.InDelta(t, 1404.575, tr.NetPnL, 1e-9)
	assert.True(t, want.Trades[0].EntryDate.Equal(tr.EntryDate))
	assert.True(t, want.Trades[0].ExitDate.Equal(tr.ExitDate))

	require.Len(t, got.Result.Equity, 5)
	for i, p := range got.Result.Equity {
		assert.Equal(t, want.Equity[i].Value, p.Value)
		assert.True(t, want.Equity[i].Date.Equal(p.Date))
	}

	require.NotNil(t, got.Assessment)
	assert.Equal(t, *rec.Assessment, *got.Assessment)
}

func TestSQLiteOpenPositionAndNoAssessment(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := sampleRecord("MSFT")
	rec.Assessment = nil
	rec.Result.Trades = rec.Result.Trades[:0]
	rec.Result.OpenPosition = &backtestPosition
	runID, err := j.Save(ctx, rec)
	require.NoError(t, err)

	got, err := j.Get(ctx, runID)
	require.NoError(t, err)
	assert.Nil(t, got.Assessment)
	assert.Empty(t, got.Result.Trades)
	require.NotNil(t, got.Result.OpenPosition)
	assert.Equal(t, backtestPosition.Shares, got.Result.OpenPosition.Shares)
}

func TestSQLiteSaveReplaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	rec := sampleRecord("AAPL")
	rec.ID = "01HZZZZZZZZZZZZZZZZZZZZZZZ"
	_, err := j.Save(ctx, rec)
	require.NoError(t, err)

	rec.Notes = "second"
	_, err = j.Save(ctx, rec)
	require.NoError(t, err)

	got, err := j.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Notes)
	assert.Len(t, got.Result.Trades, 1)
	assert.Len(t, got.Result.Equity, 5)
}

func TestSQLiteGetNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	defer j.Close()

	_, err := j.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, _ := newTestSQLite(t)
	defer j.Close()

	var ids []string
	for _, sym := range []string{"AAPL", "MSFT", "AAPL"} {
		rec := sampleRecord(sym)
		if sym == "MSFT" {
			rec.Assessment = nil
		}
		runID, err := j.Save(ctx, rec)
		require.NoError(t, err)
		ids = append(ids, runID)
	}

	all, err := j.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// newest first
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	msft := all[1]
	assert.Equal(t, "MSFT", msft.Symbol)
	assert.Empty(t, msft.RiskLevel)
	assert.Nil(t, msft.ComplianceScore)

	aapl, err := j.List(ctx, Filter{Symbol: "AAPL", Limit: 1})
	require.NoError(t, err)
	require.Len(t, aapl, 1)
	assert.Equal(t, ids[2], aapl[0].ID)
	assert.Equal(t, 1, aapl[0].Trades)
	assert.Equal(t, "native", aapl[0].Backend)
	require.NotNil(t, aapl[0].ComplianceScore)
	assert.NotEmpty(t, aapl[0].RiskLevel)
}
