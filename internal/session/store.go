package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"camwatch/internal/event"
	"camwatch/internal/logging"
	"camwatch/internal/metrics"
)

// Default timeout for store operations
const defaultTimeout = 5 * time.Second

// Blob keys in the session_state table.
const (
	keyCameras = "cameras"
	keyLedger  = "ledger"
)

// Store is the session-scoped persistence layer.
type Store struct {
	db     *sql.DB
	dbPath string

	// includeThumbnails controls whether match-record image payloads
	// are written to disk or stripped to keep the database small.
	includeThumbnails bool
}

// New opens (or creates) the session store at dbPath. The parent
// directory must already exist and be writable; use startup.LoadConfig
// to validate that before calling.
func New(ctx context.Context, dbPath string, includeThumbnails bool) (*Store, error) {
	logging.Info("Session store path: %s", dbPath)

	// WAL mode and busy_timeout prevent "database is locked" errors
	// when the HTTP surface reads while the dispatcher writes.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close session store after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to session store: %w", err)
	}

	s := &Store{
		db:                db,
		dbPath:            dbPath,
		includeThumbnails: includeThumbnails,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close session store after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize session store schema: %w", err)
	}

	logging.Info("Session store initialized at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_state (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveCameras writes the full first-seen camera order.
func (s *Store) SaveCameras(cameras []string) error {
	return s.saveBlob(keyCameras, cameras)
}

// LoadCameras reads the persisted camera order. A missing blob yields
// an empty slice, not an error.
func (s *Store) LoadCameras() ([]string, error) {
	var cameras []string
	if err := s.loadBlob(keyCameras, &cameras); err != nil {
		return nil, err
	}
	return cameras, nil
}

// SaveLedger writes the full match ledger, most recent first. Image
// payloads are stripped when the store was opened without thumbnail
// persistence.
func (s *Store) SaveLedger(records []event.MatchRecord) error {
	if !s.includeThumbnails {
		stripped := make([]event.MatchRecord, len(records))
		copy(stripped, records)
		for i := range stripped {
			stripped[i].Thumbnail = nil
		}
		records = stripped
	}
	return s.saveBlob(keyLedger, records)
}

// LoadLedger reads the persisted match ledger.
func (s *Store) LoadLedger() ([]event.MatchRecord, error) {
	var records []event.MatchRecord
	if err := s.loadBlob(keyLedger, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Store) saveBlob(key string, v interface{}) error {
	start := time.Now()

	data, err := json.Marshal(v)
	if err != nil {
		metrics.SessionPersistErrors.WithLabelValues(key).Inc()
		return fmt.Errorf("failed to encode %s blob: %w", key, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, strftime('%s', 'now'))
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data)
	if err != nil {
		metrics.SessionPersistErrors.WithLabelValues(key).Inc()
		return fmt.Errorf("failed to persist %s blob: %w", key, err)
	}

	metrics.SessionPersistDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())
	logging.Debug("Persisted %s blob (%d bytes)", key, len(data))
	return nil
}

func (s *Store) loadBlob(key string, v interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM session_state WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s blob: %w", key, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		// A corrupt blob is treated like a missing one; the session
		// starts empty rather than failing to start at all.
		logging.Warn("Discarding corrupt %s blob: %v", key, err)
		return nil
	}
	return nil
}
