package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"gp-captain-panel/internal/model"
)

// MySQLConfigStore implements ConfigStore using MySQL, with the same
// revision compare-and-swap discipline as the other SQL backends.
type MySQLConfigStore struct {
	db *sql.DB
}

// NewMySQLConfigStore opens a connection for the given DSN and ensures
// the schema exists. dsn format: "user:pass@tcp(host:port)/db?parseTime=true".
func NewMySQLConfigStore(dsn string) (*MySQLConfigStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	query := `
	CREATE TABLE IF NOT EXISTS bot_configs (
		account VARCHAR(191) PRIMARY KEY,
		config_json MEDIUMTEXT NOT NULL,
		revision BIGINT NOT NULL DEFAULT 1
	)`
	if _, err := db.Exec(query); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Info().Msg("mysql config store initialized")
	return &MySQLConfigStore{db: db}, nil
}

// Get implements ConfigStore.
func (s *MySQLConfigStore) Get(ctx context.Context, account string) (*model.BotConfig, bool, error) {
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

// Put implements ConfigStore.
func (s *MySQLConfigStore) Put(ctx context.Context, account string, cfg *model.BotConfig) error {
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
func (s *MySQLConfigStore) List(ctx context.Context) ([]string, error) {
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
func (s *MySQLConfigStore) Close() error {
	return s.db.Close()
}
