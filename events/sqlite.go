package events

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"vesting-project/models"
)

// SQLiteRecorder persists events to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vesting_events (
			seq                   INTEGER PRIMARY KEY AUTOINCREMENT,
			id                    TEXT NOT NULL UNIQUE,
			event_type            TEXT NOT NULL,
			contract_package_hash TEXT,
			round_name            TEXT,
			recipient             TEXT,
			deposit_amount        TEXT,
			block_time            INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vesting_events_recipient ON vesting_events(recipient)`,
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) Emit(ctx context.Context, evt models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO vesting_events
		(id, event_type, contract_package_hash, round_name, recipient, deposit_amount, block_time)
		VALUES (?,?,?,?,?,?,?)`,
		evt.ID, evt.Type, evt.ContractPackageHash, evt.RoundName,
		evt.Recipient, evt.DepositAmount, int64(evt.BlockTime),
	)
	return err
}

// List returns the most recent events, newest first
func (r *SQLiteRecorder) List(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, event_type, contract_package_hash, round_name,
		recipient, deposit_amount, block_time
		FROM vesting_events ORDER BY seq DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var evt models.Event
		var blockTime int64
		if err := rows.Scan(&evt.ID, &evt.Type, &evt.ContractPackageHash, &evt.RoundName,
			&evt.Recipient, &evt.DepositAmount, &blockTime); err != nil {
			return nil, err
		}
		evt.BlockTime = uint64(blockTime)
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
