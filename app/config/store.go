package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/form-spam/app/storage/engine"
)

// ErrNoSettings is returned by Load if settings for the group were never saved
var ErrNoSettings = errors.New("no settings found in database")

// Store provides access to settings stored in database, one json record per group.
// With a crypter set, sensitive fields are encrypted at rest.
type Store struct {
	*engine.SQL
	engine.RWLocker
	crypter *Crypter
}

// all config queries
const (
	CmdCreateConfigTable engine.DBCmd = iota + 100
	CmdCreateConfigIndexes
	CmdUpsertConfig
	CmdSelectConfig
	CmdDeleteConfig
	CmdSelectConfigUpdatedAt
	CmdCountConfig
)

// queries holds all config queries
var configQueries = engine.NewQueryMap().
	Add(CmdCreateConfigTable, engine.Query{
		Sqlite: `CREATE TABLE IF NOT EXISTS config (
			id INTEGER PRIMARY KEY,
			gid TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid)
		)`,
		Postgres: `CREATE TABLE IF NOT EXISTS config (
			id SERIAL PRIMARY KEY,
			gid TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(gid)
		)`,
	}).
	AddSame(CmdCreateConfigIndexes, `CREATE INDEX IF NOT EXISTS idx_config_gid ON config(gid)`).
	Add(CmdUpsertConfig, engine.Query{
		Sqlite: `INSERT INTO config (gid, data, updated_at) 
			VALUES (?, ?, ?) 
			ON CONFLICT (gid) DO UPDATE 
			SET data = excluded.data, updated_at = excluded.updated_at`,
		Postgres: `INSERT INTO config (gid, data, updated_at) 
			VALUES ($1, $2, $3) 
			ON CONFLICT (gid) DO UPDATE 
			SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	}).
	AddSame(CmdSelectConfig, `SELECT data FROM config WHERE gid = ?`).
	AddSame(CmdDeleteConfig, `DELETE FROM config WHERE gid = ?`).
	AddSame(CmdSelectConfigUpdatedAt, `SELECT updated_at FROM config WHERE gid = ?`).
	AddSame(CmdCountConfig, `SELECT COUNT(*) FROM config WHERE gid = ?`)

// NewStore creates a new settings store, crypter is optional
func NewStore(ctx context.Context, db *engine.SQL, crypter *Crypter) (*Store, error) {
	if db == nil {
		return nil, errors.New("no db provided")
	}

	res := &Store{SQL: db, RWLocker: db.MakeLock(), crypter: crypter}
	cfg := engine.TableConfig{
		Name:          "config",
		CreateTable:   CmdCreateConfigTable,
		CreateIndexes: CmdCreateConfigIndexes,
		MigrateFunc:   noopMigrate,
		QueriesMap:    configQueries,
	}

	if err := engine.InitTable(ctx, db, cfg); err != nil {
		return nil, fmt.Errorf("failed to init config table: %w", err)
	}

	return res, nil
}

// Load retrieves the settings from the database
func (s *Store) Load(ctx context.Context) (*Settings, error) {
	s.RLock()
	defer s.RUnlock()

	var record struct {
		Data string `db:"data"`
	}

	query, err := configQueries.Pick(s.Type(), CmdSelectConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to get select query: %w", err)
	}

	query = s.Adopt(query)
	err = s.GetContext(ctx, &record, query, s.GID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSettings
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	// stored settings are decoded over defaults, so fields added later get default values
	result := New()
	if err := json.Unmarshal([]byte(record.Data), result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if s.crypter != nil {
		if err := s.crypter.DecryptSensitiveFields(result); err != nil {
			return nil, fmt.Errorf("failed to decrypt settings: %w", err)
		}
	}
	return result, nil
}

// Save stores the settings to the database
func (s *Store) Save(ctx context.Context, settings *Settings) error {
	if settings == nil {
		return errors.New("nil settings")
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.Lock()
	defer s.Unlock()

	safeCopy := *settings
	safeCopy.Transient = TransientSettings{}
	if s.crypter != nil {
		if err := s.crypter.EncryptSensitiveFields(&safeCopy); err != nil {
			return fmt.Errorf("failed to encrypt settings: %w", err)
		}
	}

	data, err := json.Marshal(&safeCopy)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query, err := configQueries.Pick(s.Type(), CmdUpsertConfig)
	if err != nil {
		return fmt.Errorf("failed to get upsert query: %w", err)
	}

	query = s.Adopt(query)
	_, err = s.ExecContext(ctx, query, s.GID(), string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	return nil
}

// Delete removes the settings from the database
func (s *Store) Delete(ctx context.Context) error {
	s.Lock()
	defer s.Unlock()

	query, err := configQueries.Pick(s.Type(), CmdDeleteConfig)
	if err != nil {
		return fmt.Errorf("failed to get delete query: %w", err)
	}

	query = s.Adopt(query)
	_, err = s.ExecContext(ctx, query, s.GID())
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}

	return nil
}

// LastUpdated returns the last update time of the settings
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	s.RLock()
	defer s.RUnlock()

	var record struct {
		UpdatedAt time.Time `db:"updated_at"`
	}

	query, err := configQueries.Pick(s.Type(), CmdSelectConfigUpdatedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get updated_at query: %w", err)
	}

	query = s.Adopt(query)
	err = s.GetContext(ctx, &record, query, s.GID())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, ErrNoSettings
		}
		return time.Time{}, fmt.Errorf("failed to get settings update time: %w", err)
	}

	return record.UpdatedAt, nil
}

// Exists checks if settings exist in the database
func (s *Store) Exists(ctx context.Context) (bool, error) {
	s.RLock()
	defer s.RUnlock()

	var count int
	query, err := configQueries.Pick(s.Type(), CmdCountConfig)
	if err != nil {
		return false, fmt.Errorf("failed to get count query: %w", err)
	}

	query = s.Adopt(query)
	err = s.GetContext(ctx, &count, query, s.GID())
	if err != nil {
		return false, fmt.Errorf("failed to check if settings exist: %w", err)
	}

	return count > 0, nil
}

func noopMigrate(_ context.Context, _ *sqlx.Tx, _ string) error {
	log.Printf("[DEBUG] no migration needed for config table")
	return nil
}
