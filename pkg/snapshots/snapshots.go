// Package snapshots persists universe checkpoints into SQLite, keyed by
// epoch.
package snapshots

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3" // migration driver for sqlite3
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/qubicnetwork/go-universe/pkg/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSnapshotNotFound indicates no snapshot exists for the requested epoch.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one persisted universe checkpoint.
type Snapshot struct {
	Epoch     int64
	Digest    string
	CreatedAt time.Time
	Data      []byte
}

// Store is a SQLite-backed snapshot store.
type Store struct {
	uri string
	db  *sql.DB

	log zerolog.Logger
}

// Open opens the snapshot database, running pending migrations.
func Open(path string, attributes ...attribute.KeyValue) (*Store, error) {
	log := logger.With().
		Str("component", "snapshots").
		Logger()

	attributes = append(attributes, metrics.BaseAttrs...)
	db, err := otelsql.Open("sqlite3", path, otelsql.WithAttributes(attributes...))
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %s", err)
	}

	if err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(attributes...)); err != nil {
		return nil, fmt.Errorf("registering dbstats: %s", err)
	}

	store := &Store{uri: path, db: db, log: log}
	if err := store.executeMigration(path); err != nil {
		return nil, fmt.Errorf("initializing db connection: %s", err)
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// executeMigration runs db migrations so the connection is ready to use.
func (s *Store) executeMigration(dbURI string) error {
	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating source driver: %s", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, "sqlite3://"+dbURI)
	if err != nil {
		return fmt.Errorf("creating migration: %s", err)
	}
	defer func() {
		if _, err := m.Close(); err != nil {
			s.log.Error().Err(err).Msg("closing db migration")
		}
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migration up: %s", err)
	}
	return nil
}

// Save persists a snapshot, replacing any existing one for the epoch.
func (s *Store) Save(ctx context.Context, epoch int64, digest string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (epoch, digest, created_at, data) VALUES (?1, ?2, ?3, ?4)`,
		epoch, digest, time.Now().UTC().Unix(), data,
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %s", err)
	}
	s.log.Info().
		Int64("epoch", epoch).
		Str("digest", digest).
		Int("bytes", len(data)).
		Msg("snapshot saved")
	return nil
}

// Get returns the snapshot for an epoch.
func (s *Store) Get(ctx context.Context, epoch int64) (Snapshot, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT epoch, digest, created_at, data FROM snapshots WHERE epoch = ?1`, epoch,
	))
}

// Latest returns the snapshot with the highest epoch.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT epoch, digest, created_at, data FROM snapshots ORDER BY epoch DESC LIMIT 1`,
	))
}

// Epochs lists the stored epochs in ascending order.
func (s *Store) Epochs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT epoch FROM snapshots ORDER BY epoch ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying epochs: %s", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.log.Error().Err(err).Msg("closing rows")
		}
	}()

	var epochs []int64
	for rows.Next() {
		var epoch int64
		if err := rows.Scan(&epoch); err != nil {
			return nil, fmt.Errorf("scanning epoch: %s", err)
		}
		epochs = append(epochs, epoch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating epochs: %s", err)
	}
	return epochs, nil
}

// Prune deletes every snapshot except the keep highest epochs.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return fmt.Errorf("keep must be positive, got %d", keep)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE epoch NOT IN (SELECT epoch FROM snapshots ORDER BY epoch DESC LIMIT ?1)`,
		keep,
	)
	if err != nil {
		return fmt.Errorf("pruning snapshots: %s", err)
	}
	return nil
}

func (s *Store) scanOne(row *sql.Row) (Snapshot, error) {
	var snap Snapshot
	var createdAt int64
	if err := row.Scan(&snap.Epoch, &snap.Digest, &createdAt, &snap.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, fmt.Errorf("scanning snapshot: %s", err)
	}
	snap.CreatedAt = time.Unix(createdAt, 0).UTC()
	return snap, nil
}
