package database

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"

	"github.com/raynanbulhoes22/finrecon/cache"
	"github.com/raynanbulhoes22/finrecon/config"
)

// Package-level singleton; the datasource is shared by the server and the
// background workers.
var instance *Datasource
var once sync.Once

type Datasource struct {
	Conn  *sql.DB
	Cache cache.Cache
}

func NewDataSource(configuration *config.Configuration) (IDataSource, error) {
	con, err := GetDBConnection(configuration)
	if err != nil {
		return nil, err
	}
	return con, nil
}

// GetDBConnection provides a global access point to the instance and initializes it if it's not already.
func GetDBConnection(configuration *config.Configuration) (*Datasource, error) {
	var err error
	once.Do(func() {
		con, errConn := ConnectDB(configuration.DataSource.Dns)
		if errConn != nil {
			err = errConn
			return
		}
		instance = &Datasource{Conn: con, Cache: nil}
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// ConnectDB opens the Postgres connection and ensures the reconciliation
// schema exists. The ping is retried with exponential backoff so a server
// that starts before its database does not die immediately.
func ConnectDB(dns string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dns)
	if err != nil {
		return nil, err
	}

	err = backoff.Retry(db.Ping, backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
	), 5))
	if err != nil {
		log.Printf("database connection error: %v", err)
		return nil, err
	}

	err = createReconciliationRecordTable(db)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// createReconciliationRecordTable creates the table owned by this engine.
// The commitment and transaction tables belong to the CRUD subsystem and
// are only read here; their schema ships in sql/ for local development.
func createReconciliationRecordTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reconciliation_records (
			id SERIAL PRIMARY KEY,
			record_id TEXT NOT NULL UNIQUE,
			user_id TEXT NOT NULL,
			month INT NOT NULL,
			year INT NOT NULL,
			event_kind TEXT NOT NULL,
			event_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			expected_amount DOUBLE PRECISION NOT NULL,
			expected_date TIMESTAMP NOT NULL,
			actual_amount DOUBLE PRECISION,
			actual_date TIMESTAMP,
			linked_transaction_id TEXT,
			confidence INT NOT NULL DEFAULT 0,
			manual_override BOOLEAN NOT NULL DEFAULT FALSE,
			notes TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, month, year, event_kind, event_id)
		)
	`)
	if err != nil {
		return err
	}

	// One transaction satisfies at most one expected event per period.
	_, err = db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS reconciliation_records_linked_txn_idx
		ON reconciliation_records (user_id, month, year, linked_transaction_id)
		WHERE linked_transaction_id IS NOT NULL
	`)
	return err
}
