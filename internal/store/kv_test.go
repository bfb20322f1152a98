package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "courses")
	require.NoError(t, err)
	assert.False(t, ok, "missing key reports not found")

	require.NoError(t, kv.Set(ctx, "courses", `[{"id":"c1"}]`))
	require.NoError(t, kv.Set(ctx, "attendanceRecords", `[]`))

	v, ok, err := kv.Get(ctx, "courses")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"c1"}]`, v)

	require.NoError(t, kv.Set(ctx, "courses", `[]`))
	v, _, err = kv.Get(ctx, "courses")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "latest write wins")

	keys, err := kv.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"attendanceRecords", "courses"}, keys)

	require.NoError(t, kv.Remove(ctx, "courses"))
	_, ok, err = kv.Get(ctx, "courses")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Remove(ctx, "never-set"))

	require.NoError(t, kv.Set(ctx, "darkMode", "true"))
	require.NoError(t, kv.Clear(ctx))
	keys, err = kv.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryKV(t *testing.T) {
	m := NewMemory()
	exerciseKV(t, m)

	require.NoError(t, m.Close())
	_, _, err := m.Get(context.Background(), "courses")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(context.Background(), "courses", "[]"), ErrClosed)
}

func TestMemoryKVHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Set(ctx, "k", "v")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteKV(t *testing.T) {
	db, err := NewDB(DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	assert.True(t, db.Healthy(context.Background()))

	kv, err := NewSQLKV(context.Background(), db)
	require.NoError(t, err)
	exerciseKV(t, kv)

	// migrate is idempotent
	_, err = NewSQLKV(context.Background(), db)
	require.NoError(t, err)
}

func TestSQLiteKVOnDisk(t *testing.T) {
	path := t.TempDir() + "/data/attendtrack.db"
	db, err := NewDB(DriverSQLite, path)
	require.NoError(t, err)
	kv, err := NewSQLKV(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), "courses", `[{"id":"c1"}]`))
	require.NoError(t, db.Close())

	db, err = NewDB(DriverSQLite, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	kv, err = NewSQLKV(context.Background(), db)
	require.NoError(t, err)
	v, ok, err := kv.Get(context.Background(), "courses")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"c1"}]`, v)
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr())
	t.Cleanup(func() { _ = r.Close() })
	assert.True(t, r.Healthy(context.Background()))

	// foreign keys outside the prefix must survive Clear
	mr.Set("other:key", "keep")

	exerciseKV(t, NewRedisKV(r.Client, "test:"))
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisHealthyNil(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	var d *DB
	assert.False(t, d.Healthy(context.Background()))
	assert.NoError(t, d.Close())
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := NewRedis(mr.Addr())
	defer rdb.Close()

	for _, o := range []Options{
		{Backend: BackendMemory},
		{Backend: BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "data", "open.db")},
		{Backend: BackendRedis, Redis: rdb, RedisPrefix: "open:"},
	} {
		t.Run(o.Backend, func(t *testing.T) {
			opened, err := Open(ctx, o)
			require.NoError(t, err)
			defer opened.Close()
			assert.True(t, opened.Healthy(ctx))
			require.NoError(t, opened.KV.Set(ctx, "k", "v"))
			v, ok, err := opened.KV.Get(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}

	_, err := Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
	_, err = Open(ctx, Options{Backend: BackendRedis})
	assert.Error(t, err)
}
