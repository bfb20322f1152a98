package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Options selects and configures a KV backend.
type Options struct {
	Backend     string
	SQLitePath  string
	DatabaseURL string
	Redis       *Redis
	RedisPrefix string
}

// Opened is a ready KV plus the hooks its owner needs.
type Opened struct {
	KV      KV
	Healthy func(ctx context.Context) bool
	Close   func() error
}

// Open connects the configured backend. The redis backend borrows o.Redis and
// leaves closing it to the caller.
func Open(ctx context.Context, o Options) (*Opened, error) {
	switch o.Backend {
	case BackendMemory:
		m := NewMemory()
		return &Opened{KV: m, Healthy: func(context.Context) bool { return true }, Close: m.Close}, nil
	case BackendSQLite, BackendPostgres:
		driver, dsn := DriverSQLite, o.SQLitePath
		if o.Backend == BackendPostgres {
			driver, dsn = DriverPostgres, o.DatabaseURL
		}
		db, err := NewDB(driver, dsn)
		if err != nil {
			return nil, err
		}
		kv, err := NewSQLKV(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Opened{KV: kv, Healthy: db.Healthy, Close: db.Close}, nil
	case BackendRedis:
		if o.Redis == nil {
			return nil, fmt.Errorf("redis backend needs a client")
		}
		return &Opened{
			KV:      NewRedisKV(o.Redis.Client, o.RedisPrefix),
			Healthy: o.Redis.Healthy,
			Close:   func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", o.Backend)
}
