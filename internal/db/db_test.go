package db

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/racetime/internal/cache"
	"github.com/banshee-data/racetime/internal/dva"
	"github.com/banshee-data/racetime/internal/monitoring"
	"github.com/banshee-data/racetime/internal/testutil"
	"github.com/banshee-data/racetime/internal/timeutil"
)

var testEpoch = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*DB, *timeutil.MockClock) {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	clock := timeutil.NewMockClock(testEpoch)
	db, err := OpenDB(MemoryDSN, clock)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, clock
}

func testRun(t *testing.T, p dva.Params) (cache.Key, *dva.Result) {
	t.Helper()
	res, err := dva.Run(testutil.ThrustCurve(), p)
	if err != nil {
		t.Fatalf("dva.Run failed: %v", err)
	}
	return cache.KeyFor(testutil.ThrustCurve(), p), res
}

func TestOpenDB_Migrates(t *testing.T) {
	db, _ := newTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	for _, table := range []string{"dva_runs", "dva_samples"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		assert.NoError(t, err, "table %s missing", table)
	}

	// Running again is a no-op.
	assert.NoError(t, db.MigrateUp())
}

func TestMigrateDown(t *testing.T) {
	db, _ := newTestDB(t)
	require.NoError(t, db.MigrateDown())

	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name='dva_runs'`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestPutGet_RoundTrip(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()
	key, res := testRun(t, testutil.DragsterParams)

	id, err := db.Put(ctx, key, testutil.DragsterParams, res)
	require.NoError(t, err)
	assert.Len(t, id, 36, "uuid run id")

	gotID, got, err := db.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	if diff := cmp.Diff(res, got); diff != "" {
		t.Errorf("stored result mismatch (-want +got):\n%s", diff)
	}
}

func TestPut_SameKeyKeepsFirstRun(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()
	key, res := testRun(t, testutil.DragsterParams)

	first, err := db.Put(ctx, key, testutil.DragsterParams, res)
	require.NoError(t, err)
	second, err := db.Put(ctx, key, testutil.DragsterParams, res)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM dva_samples`).Scan(&n))
	assert.Equal(t, len(res.Samples), n)
}

func TestGet_NotFound(t *testing.T) {
	db, _ := newTestDB(t)
	_, _, err := db.Get(context.Background(), cache.Key{})
	assert.ErrorIs(t, err, cache.ErrNotFound)

	_, _, err = db.Run(context.Background(), "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRecentRuns(t *testing.T) {
	db, clock := newTestDB(t)
	ctx := context.Background()

	var ids []string
	for _, mass := range []float64{40, 50, 60} {
		p := dva.Params{VehicleMass: mass, FrictionCoefficient: 0.05}
		key, res := testRun(t, p)
		id, err := db.Put(ctx, key, p, res)
		require.NoError(t, err)
		ids = append(ids, id)
		clock.Advance(time.Minute)
	}

	runs, err := db.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].RunID)
	assert.Equal(t, ids[1], runs[1].RunID)
	assert.Equal(t, 60.0, runs[0].VehicleMass)
	assert.Equal(t, testEpoch.Add(2*time.Minute), runs[0].CreatedAt)

	rec, samples, err := db.Run(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 40.0, rec.VehicleMass)
	assert.Len(t, samples, rec.Summary.Samples)
}

func TestCacheWithStore(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	first, err := cache.New(4, db).Compute(ctx, testutil.ThrustCurve(), testutil.DragsterParams)
	require.NoError(t, err)

	// A new cache over the same database recalls the run.
	again, err := cache.New(4, db).Compute(ctx, testutil.ThrustCurve(), testutil.DragsterParams)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, first.Result, again.Result)
}

func TestOpenDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := NewDB(path)
	require.NoError(t, err)
	key, res := testRun(t, testutil.DragsterParams)
	id, err := db.Put(context.Background(), key, testutil.DragsterParams, res)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := NewDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	gotID, _, err := reopened.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, path, reopened.DSN())
}

func TestAttachAdminRoutes(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()
	key, res := testRun(t, testutil.DragsterParams)
	id, err := db.Put(ctx, key, testutil.DragsterParams, res)
	require.NoError(t, err)

	mux := http.NewServeMux()
	require.NoError(t, db.AttachAdminRoutes(mux))

	// Debug routes only answer local and tailnet callers.
	const loopback = "127.0.0.1:40000"

	t.Run("remote caller refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/runs", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusForbidden)
	})

	t.Run("tailsql mounted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
		req.RemoteAddr = loopback
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.NotEqual(t, http.StatusNotFound, rec.Code)
	})

	t.Run("runs", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/runs", nil)
		req.RemoteAddr = loopback
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var runs []RunRecord
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
		require.Len(t, runs, 1)
		assert.Equal(t, id, runs[0].RunID)
	})

	t.Run("runs bad limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/runs?limit=x", nil)
		req.RemoteAddr = loopback
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	})

	t.Run("backup", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/backup", nil)
		req.RemoteAddr = loopback
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		zr, err := gzip.NewReader(rec.Body)
		require.NoError(t, err)
		data, err := io.ReadAll(zr)
		require.NoError(t, err)
		assert.True(t, len(data) > 16 && string(data[:15]) == "SQLite format 3")
	})
}
