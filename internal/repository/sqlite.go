package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required

	"gp-captain-panel/internal/model"
)

// SQLiteConfigStore implements ConfigStore using SQLite, for deployments
// without a GitHub token. A revision counter per row stands in for the
// blob SHA: writes compare-and-swap on it.
type SQLiteConfigStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteConfigStore opens (and if needed initializes) the database at
// dbPath, e.g. "./data/panel.db".
func NewSQLiteConfigStore(dbPath string) (*SQLiteConfigStore, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite config store initialized")
	return &SQLiteConfigStore{db: db}, nil
}

func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS bot_configs (
		account TEXT PRIMARY KEY,
		config_json TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 1
	);`
	_, err := db.Exec(query)
	return err
}

// Get implements ConfigStore.
func (s *SQLiteConfigStore) Get(ctx context.Context, account string) (*model.BotConfig, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM bot_configs WHERE account = ?`, account).Scan(&raw)
	if err == sql.ErrNoRows {
		return model.DefaultConfig(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get config: %w", err)
	}

	cfg, err := model.MergeDefaults([]byte(raw))
	if err != nil {
		return nil, false, fmt.Errorf("config for %q: %w", account, err)
	}
	return cfg, false, nil
}

// Put implements ConfigStore with a compare-and-swap on the revision.
func (s *SQLiteConfigStore) Put(ctx context.Context, account string, cfg *model.BotConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config for %q: %w", account, err)
	}

	var revision int64
	err = s.db.QueryRowContext(ctx,
		`SELECT revision FROM bot_configs WHERE account = ?`, account).Scan(&revision)
	if err == sql.ErrNoRows {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO bot_configs (account, config_json, revision) VALUES (?, ?, 1)`,
			account, string(data))
		if err != nil {
			return fmt.Errorf("failed to create config: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read revision: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE bot_configs SET config_json = ?, revision = revision + 1
		 WHERE account = ? AND revision = ?`,
		string(data), account, revision)
	if err != nil {
		return fmt.Errorf("failed to update config: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("config for %q: %w", account, ErrConflict)
	}
	return nil
}

// List implements ConfigStore.
func (s *SQLiteConfigStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT account FROM bot_configs ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("failed to list configs: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteConfigStore) Close() error {
	return s.db.Close()
}
