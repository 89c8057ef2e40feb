package common

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	"report-logger/config"

	"github.com/apex/log"
	"github.com/go-sql-driver/mysql"
)

const maxPingInterval = 30 * time.Second

// DSN builds the MySQL data source name. clientFoundRows makes UPDATE report
// matched rows instead of changed rows, so a no-op update is not a miss.
func DSN(cfg *config.Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.ClientFoundRows = true
	return mc.FormatDSN()
}

func DBConnect(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(cfg))
	if err != nil {
		log.Errorf("Failed to open the database: %v", err)
		return nil, err
	}

	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
	if cfg.DBConnMaxLifetimeMin > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeMin) * time.Minute)
	}

	if err := waitForDB(db, time.Duration(cfg.DBPingMaxWaitSec)*time.Second); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Established db connection pool: open=%d idle=%d max_lifetime_min=%d",
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	return db, nil
}

// waitForDB pings with exponential backoff until maxWait elapses.
func waitForDB(db *sql.DB, maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	waitInterval := time.Second
	for {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		pingErr := db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database ping timeout after %v: %w", maxWait, pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > maxPingInterval {
			waitInterval = maxPingInterval
		}
	}
}
