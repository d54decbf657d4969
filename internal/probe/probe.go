// Package probe implements the single diagnostic operation this service
// exists for: open one connection to the configured PostgreSQL database,
// verify it answers, and close it again.
package probe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mwhitford/pgprobe/internal/config"
	"github.com/mwhitford/pgprobe/internal/logger"
	"github.com/mwhitford/pgprobe/internal/metrics"
)

// Result is the outcome of a single connection check. A failed check is a
// normal result, not an error: every failure mode (DNS, TCP refusal, TLS
// negotiation, authentication, driver errors) collapses into OK=false with
// the underlying text in Message.
type Result struct {
	OK            bool          `json:"ok"`
	Message       string        `json:"message"`
	Elapsed       time.Duration `json:"-"`
	ServerVersion string        `json:"server_version,omitempty"`
	CheckedAt     time.Time     `json:"checked_at"`
}

// Checker performs connection checks against a fixed target. The target
// parameters are set at construction and never change; concurrent Check
// calls are independent.
type Checker struct {
	cfg config.DatabaseConfig

	// open is the handle factory, injectable for tests
	open func(dsn string) (*sql.DB, error)
}

// New creates a Checker for the given database target
func New(cfg config.DatabaseConfig) *Checker {
	return &Checker{
		cfg: cfg,
		open: func(dsn string) (*sql.DB, error) {
			return sql.Open("pgx", dsn)
		},
	}
}

// Check attempts one connection: open, ping, SELECT version(), close.
// The handle is closed on every exit path. No retries.
func (c *Checker) Check(ctx context.Context) Result {
	start := time.Now()

	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.ConnectTimeout)*time.Second)
		defer cancel()
	}

	logger.Debug("probe", "Checking connection to %s:%d/%s", c.cfg.Host, c.cfg.Port, c.cfg.Database)

	db, err := c.open(c.cfg.DSN())
	if err != nil {
		return c.failure(start, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("probe", "Failed to close connection: %v", err)
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return c.failure(start, err)
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return c.failure(start, err)
	}

	result := Result{
		OK:            true,
		Elapsed:       time.Since(start),
		ServerVersion: version,
		CheckedAt:     time.Now(),
	}
	result.Message = fmt.Sprintf("connected to %s:%d/%s in %s",
		c.cfg.Host, c.cfg.Port, c.cfg.Database, result.Elapsed.Round(time.Millisecond))

	metrics.CheckDuration.Observe(result.Elapsed.Seconds())
	metrics.RecordCheck(true, float64(result.CheckedAt.Unix()))
	logger.Info("probe", "%s", result.Message)
	return result
}

// failure builds the undifferentiated failure result. Callers only ever see
// the error text; no error subtypes are exposed.
func (c *Checker) failure(start time.Time, err error) Result {
	result := Result{
		OK:        false,
		Elapsed:   time.Since(start),
		Message:   fmt.Sprintf("connection failed: %v", err),
		CheckedAt: time.Now(),
	}

	metrics.CheckDuration.Observe(result.Elapsed.Seconds())
	metrics.RecordCheck(false, float64(result.CheckedAt.Unix()))
	logger.Error("probe", "Connection check to %s:%d/%s failed after %v: %v",
		c.cfg.Host, c.cfg.Port, c.cfg.Database, result.Elapsed.Round(time.Millisecond), err)
	return result
}
