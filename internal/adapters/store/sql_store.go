package store

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/mikey/scam-monitor/internal/core"
	"github.com/mikey/scam-monitor/internal/database"
)

// SQLStore is a RecordStore and FlagStore backed by SQLite or MySQL
type SQLStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore opens a SQLite store and creates its tables
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	db, err := database.NewSQLite(path)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, logger)
}

// NewMySQLStore opens a MySQL store and creates its tables
func NewMySQLStore(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	db, err := database.NewMySQL(dsn)
	if err != nil {
		return nil, err
	}
	return newSQLStore(ctx, db, logger)
}

func newSQLStore(ctx context.Context, db *database.DB, logger *zap.Logger) (*SQLStore, error) {
	if err := db.Migrate(ctx, schemaFor(db.Driver)); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db, logger: logger}, nil
}

// Insert appends a record to its channel's collection
func (s *SQLStore) Insert(ctx context.Context, record *core.ScamRecord) error {
	table, err := TableFor(record.Channel)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrPersistence, err)
	}

	query := `INSERT INTO ` + table + ` (id, channel, external_id, sender, content, detected_at, owner_user_id)
		VALUES (:id, :channel, :external_id, :sender, :content, :detected_at, :owner_user_id)`
	rec := *record
	rec.DetectedAt = rec.DetectedAt.UTC()
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("%w: insert into %s: %v", core.ErrPersistence, table, err)
	}

	s.logger.Debug("Stored scam record",
		zap.String("table", table),
		zap.String("id", record.ID))
	return nil
}

// ListByUser returns every record owned by the user, newest first
func (s *SQLStore) ListByUser(ctx context.Context, userID string) ([]core.ScamRecord, error) {
	var all []core.ScamRecord
	for _, ch := range core.AllChannels {
		table, _ := TableFor(ch)
		var records []core.ScamRecord
		query := `SELECT id, channel, external_id, sender, content, detected_at, owner_user_id
			FROM ` + table + ` WHERE owner_user_id = ?`
		if err := s.db.SelectContext(ctx, &records, query, userID); err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", core.ErrPersistence, table, err)
		}
		all = append(all, records...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].DetectedAt.After(all[j].DetectedAt)
	})
	return all, nil
}

// DeleteByID removes a record from whichever collection holds it
func (s *SQLStore) DeleteByID(ctx context.Context, id string) error {
	var deleted int64
	for _, ch := range core.AllChannels {
		table, _ := TableFor(ch)
		result, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("%w: delete from %s: %v", core.ErrPersistence, table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("%w: rows affected: %v", core.ErrPersistence, err)
		}
		deleted += n
	}
	if deleted == 0 {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// SetFlag stores a boolean setting
func (s *SQLStore) SetFlag(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx,
		`REPLACE INTO settings (setting_key, setting_value) VALUES (?, ?)`,
		key, fmt.Sprintf("%t", value))
	if err != nil {
		return fmt.Errorf("%w: set flag %s: %v", core.ErrPersistence, key, err)
	}
	return nil
}

// Flag reads a boolean setting, false when absent
func (s *SQLStore) Flag(ctx context.Context, key string) (bool, error) {
	var values []string
	err := s.db.SelectContext(ctx, &values,
		`SELECT setting_value FROM settings WHERE setting_key = ?`, key)
	if err != nil {
		return false, fmt.Errorf("%w: read flag %s: %v", core.ErrPersistence, key, err)
	}
	return len(values) > 0 && values[0] == "true", nil
}

// Close closes the underlying database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
