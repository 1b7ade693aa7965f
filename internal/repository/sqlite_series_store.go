package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	applogger "StockX/pkg/logger"
	"StockX/pkg/util"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS observations (
	symbol TEXT NOT NULL,
	date   TEXT NOT NULL,
	open   REAL NOT NULL,
	high   REAL NOT NULL,
	low    REAL NOT NULL,
	close  REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, date)
)`

// SQLiteSeriesStore keeps every instrument's series in one observations table.
type SQLiteSeriesStore struct {
	db *sql.DB
	l  *applogger.Logger
}

// OpenSQLite opens (and creates if needed) the database at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLiteSeriesStore ensures the schema exists on db.
func NewSQLiteSeriesStore(ctx context.Context, db *sql.DB) (*SQLiteSeriesStore, error) {
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteSeriesStore{db: db, l: applogger.NewNop()}, nil
}

// SetLogger injects a structured logger.
func (s *SQLiteSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *SQLiteSeriesStore) Upsert(ctx context.Context, symbol string, obs models.Observation) (models.TimeSeries, error) {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &models.StorageError{Op: "begin upsert", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM observations WHERE symbol = ?`, symbol).Scan(&n); err != nil {
		return nil, &models.StorageError{Op: "count series", Err: err}
	}
	if n == 0 {
		return nil, fmt.Errorf("series %s: %w", symbol, models.ErrNotFound)
	}

	if err := upsertRow(ctx, tx, symbol, obs); err != nil {
		return nil, &models.StorageError{Op: "upsert observation", Err: err}
	}

	out, err := selectSeries(ctx, tx, symbol)
	if err != nil {
		return nil, &models.StorageError{Op: "read series", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &models.StorageError{Op: "commit upsert", Err: err}
	}

	s.l.Debug("sqlite upsert ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		since(start),
	)
	return out, nil
}

// Import writes series for symbol in one transaction, replacing rows with the same date.
func (s *SQLiteSeriesStore) Import(ctx context.Context, symbol string, series models.TimeSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &models.StorageError{Op: "begin import", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	for _, o := range series {
		if err := upsertRow(ctx, tx, symbol, o); err != nil {
			return &models.StorageError{Op: "import observation", Err: err}
		}
	}
	if err := tx.Commit(); err != nil {
		return &models.StorageError{Op: "commit import", Err: err}
	}
	return nil
}

func (s *SQLiteSeriesStore) Close() error {
	return s.db.Close()
}

func upsertRow(ctx context.Context, tx *sql.Tx, symbol string, o models.Observation) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO observations (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`, symbol, util.FormatDate(models.DayKey(o.Date)), o.Open, o.High, o.Low, o.Close, o.Volume)
	return err
}

func selectSeries(ctx context.Context, tx *sql.Tx, symbol string) (models.TimeSeries, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT date, open, high, low, close, volume
		FROM observations
		WHERE symbol = ?
		ORDER BY date ASC
	`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out models.TimeSeries
	for rows.Next() {
		var o models.Observation
		var date string
		if err := rows.Scan(&date, &o.Open, &o.High, &o.Low, &o.Close, &o.Volume); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		if o.Date, err = util.ParseDate(date); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ domrepo.SeriesStore = (*SQLiteSeriesStore)(nil)
