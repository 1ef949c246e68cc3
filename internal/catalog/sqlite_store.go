// Package catalog records conversion outcomes and band statistics in a
// sqlite database
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var initSchemaSQL string

const (
	insertConversionSQL = `
INSERT INTO conversions (id,
                         archive,
                         scene_id,
                         product_id,
                         acquired,
                         cloud_cover,
                         sun_elevation,
                         output,
                         output_size,
                         masked_pixels,
                         status,
                         error,
                         started_at,
                         finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	insertBandStatSQL = `
INSERT INTO band_stats (conversion_id,
                        band_index,
                        band_name,
                        valid_pixels,
                        nodata_pixels,
                        min_value,
                        max_value,
                        mean_value)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectConversionsSQL = `
SELECT id,
       archive,
       scene_id,
       product_id,
       acquired,
       cloud_cover,
       sun_elevation,
       output,
       output_size,
       masked_pixels,
       status,
       error,
       started_at,
       finished_at
FROM conversions`

	selectBandStatsSQL = `
SELECT conversion_id,
       band_index,
       band_name,
       valid_pixels,
       nodata_pixels,
       min_value,
       max_value,
       mean_value
FROM band_stats
WHERE conversion_id = ?
ORDER BY band_index`
)

// ErrNotFound is returned when a conversion does not exist
var ErrNotFound = errors.New("conversion not found")

// QueryOption narrows down the conversions returned by Conversions
type QueryOption func(*query)

type query struct {
	where []string
	args  []any
	limit int
}

// WithStatus returns only conversions with the given outcome
func WithStatus(status Status) QueryOption {
	return func(q *query) {
		q.where = append(q.where, "status = ?")
		q.args = append(q.args, string(status))
	}
}

// WithSceneID returns only conversions of the given scene
func WithSceneID(sceneID string) QueryOption {
	return func(q *query) {
		q.where = append(q.where, "scene_id = ?")
		q.args = append(q.args, sceneID)
	}
}

// WithLimit caps the number of conversions returned, most recent first
func WithLimit(n int) QueryOption {
	return func(q *query) {
		q.limit = n
	}
}

// SqliteStore handles catalog database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the sqlite file at dbPath. The
// database is opened, and the schema created, on first use.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// InsertConversion stores a conversion and the statistics of its bands in a
// single transaction and returns the conversion ID
func (s *SqliteStore) InsertConversion(ctx context.Context, c *Conversion, bands []BandStat) (id string, err error) {
	db, err := s.getWriteDB()
	if err != nil {
		return "", fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	id = uuid.NewString()
	_, err = tx.ExecContext(ctx, insertConversionSQL,
		id,
		c.Archive,
		c.SceneID,
		toNullString(c.ProductID),
		toNullTime(c.Acquired),
		toNullFloat64(c.CloudCover),
		toNullFloat64(c.SunElevation),
		toNullString(c.Output),
		toNullInt64(c.OutputSize),
		toNullInt64(c.MaskedPixels),
		string(c.Status),
		toNullString(c.Error),
		c.StartedAt.UTC(),
		c.FinishedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting conversion: %w", err)
	}

	if len(bands) > 0 {
		var stmt *sql.Stmt
		if stmt, err = tx.PrepareContext(ctx, insertBandStatSQL); err != nil {
			return "", fmt.Errorf("preparing statement: %w", err)
		}
		defer closeWithError(stmt, &err)

		for _, b := range bands {
			_, err = stmt.ExecContext(ctx,
				id,
				b.Index,
				b.Name,
				b.Valid,
				b.NoData,
				toNullFloat64(b.Min),
				toNullFloat64(b.Max),
				toNullFloat64(b.Mean),
			)
			if err != nil {
				return "", fmt.Errorf("inserting band %s: %w", b.Name, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}
	return id, nil
}

// Conversion returns the conversion with the given ID
func (s *SqliteStore) Conversion(ctx context.Context, id string) (*Conversion, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var row conversionRow
	err = db.QueryRowContext(ctx, selectConversionsSQL+"\nWHERE id = ?", id).Scan(row.dest()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning conversion: %w", err)
	}
	return row.toConversion(), nil
}

// Conversions returns the recorded conversions, most recent first
func (s *SqliteStore) Conversions(ctx context.Context, opts ...QueryOption) (conversions []*Conversion, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	var q query
	for _, opt := range opts {
		opt(&q)
	}

	stmt := selectConversionsSQL
	if len(q.where) > 0 {
		stmt += "\nWHERE " + strings.Join(q.where, " AND ")
	}
	stmt += "\nORDER BY finished_at DESC"
	if q.limit > 0 {
		stmt += fmt.Sprintf("\nLIMIT %d", q.limit)
	}

	rows, err := db.QueryContext(ctx, stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversions: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var row conversionRow
		if err = rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("scanning conversion: %w", err)
		}
		conversions = append(conversions, row.toConversion())
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversions: %w", err)
	}
	return conversions, nil
}

// BandStats returns the band statistics of a conversion in band order
func (s *SqliteStore) BandStats(ctx context.Context, conversionID string) (stats []BandStat, err error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectBandStatsSQL, conversionID)
	if err != nil {
		return nil, fmt.Errorf("querying band stats: %w", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var b BandStat
		var minV, maxV, meanV sql.NullFloat64
		if err = rows.Scan(&b.ConversionID, &b.Index, &b.Name, &b.Valid, &b.NoData, &minV, &maxV, &meanV); err != nil {
			return nil, fmt.Errorf("scanning band stat: %w", err)
		}
		b.Min = fromNull(minV.Float64, minV.Valid)
		b.Max = fromNull(maxV.Float64, maxV.Valid)
		b.Mean = fromNull(meanV.Float64, meanV.Valid)
		stats = append(stats, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating band stats: %w", err)
	}
	return stats, nil
}

// Close closes the database connections. It is safe to call Close multiple times.
func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
