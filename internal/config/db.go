package config

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-sql-driver/mysql"
)

var (
	DB    *sql.DB
	Redis *redis.Client
	dbMu  sync.Mutex
)

// ConnectDB initializes the shared MySQL connection used by the draft store (idempotent).
func ConnectDB(dsn string) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}
	if dsn == "" {
		return nil, errors.New("MYSQL_DSN is empty")
	}

	cfg, err := mysqlConfig(dsn)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	DB = db
	return DB, nil
}

// mysqlConfig parses dsn and turns on parseTime, which the draft
// repository needs to scan DATETIME columns into time.Time.
func mysqlConfig(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = true
	return cfg, nil
}

// ConnectRedis initializes the shared Redis client used by the draft cache (idempotent).
func ConnectRedis(addr, password string) (*redis.Client, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if Redis != nil {
		return Redis, nil
	}
	if addr == "" {
		return nil, errors.New("REDIS_ADDR is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	Redis = client
	return Redis, nil
}

func Close() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
	if Redis != nil {
		_ = Redis.Close()
		Redis = nil
	}
}
