package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdesk/backend/internal/models"
)

var (
	// ErrNoEvent means no event has been authored yet.
	ErrNoEvent = errors.New("no active event")
	// ErrEventClosed means the event's end date has passed.
	ErrEventClosed = errors.New("event has ended")
)

// Store is the persistence contract for the current event. Load is
// called once per join attempt; a session in progress keeps the config
// it started with even if the event is later replaced.
type Store interface {
	Load(ctx context.Context) (*models.EventConfig, error)
	Save(ctx context.Context, cfg *models.EventConfig) error
}

// Gate checks join eligibility: an event must exist and its end date
// must not have passed. Checked at session start only.
func Gate(cfg *models.EventConfig, now time.Time) error {
	if cfg == nil {
		return ErrNoEvent
	}
	ends, err := cfg.EndsAt()
	if err != nil {
		return fmt.Errorf("event end date: %w", err)
	}
	if now.After(ends) {
		return ErrEventClosed
	}
	return nil
}

// FileStore keeps the current event in a local JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed event store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the event file. A missing file means no event.
func (s *FileStore) Load(ctx context.Context) (*models.EventConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoEvent
		}
		return nil, fmt.Errorf("read event file: %w", err)
	}
	var cfg models.EventConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decode event file: %w", err)
	}
	return &cfg, nil
}

// Save writes the event file, replacing any previous event.
func (s *FileStore) Save(ctx context.Context, cfg *models.EventConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write event file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace event file: %w", err)
	}
	return nil
}

// PostgresStore keeps authored events in the events table; the newest
// row is the current event.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed event store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Load returns the most recently saved event.
func (s *PostgresStore) Load(ctx context.Context) (*models.EventConfig, error) {
	const q = `SELECT name, end_date, banner_url, fields FROM events ORDER BY created_at DESC LIMIT 1`
	var cfg models.EventConfig
	var fields []byte
	err := s.pool.QueryRow(ctx, q).Scan(&cfg.Name, &cfg.EndDate, &cfg.BannerURL, &fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoEvent
		}
		return nil, fmt.Errorf("load event: %w", err)
	}
	if err := json.Unmarshal(fields, &cfg.Fields); err != nil {
		return nil, fmt.Errorf("decode event fields: %w", err)
	}
	return &cfg, nil
}

// Save inserts a new current event.
func (s *PostgresStore) Save(ctx context.Context, cfg *models.EventConfig) error {
	fields, err := json.Marshal(cfg.Fields)
	if err != nil {
		return fmt.Errorf("encode event fields: %w", err)
	}
	const q = `INSERT INTO events (id, name, end_date, banner_url, fields)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)`
	if _, err := s.pool.Exec(ctx, q, cfg.Name, cfg.EndDate, cfg.BannerURL, fields); err != nil {
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}
