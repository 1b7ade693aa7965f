package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	pkgch "StockX/pkg/clickhouse"
	applogger "StockX/pkg/logger"
)

// CHSeriesStore keeps observations in a ReplacingMergeTree; the newest
// version of a (symbol, date) row wins when read with FINAL.
type CHSeriesStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSeriesStore(ch *pkgch.Client, database string) *CHSeriesStore {
	return &CHSeriesStore{db: ch.DB(), table: database + ".observations", l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CHSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSeriesStore) Upsert(ctx context.Context, symbol string, obs models.Observation) (models.TimeSeries, error) {
	start := time.Now()

	var n uint64
	q := fmt.Sprintf("SELECT count() FROM %s FINAL WHERE symbol = ?", s.table)
	if err := s.db.QueryRowContext(ctx, q, symbol).Scan(&n); err != nil {
		s.l.Error("clickhouse upsert count error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, &models.StorageError{Op: "count series", Err: err}
	}
	if n == 0 {
		return nil, fmt.Errorf("series %s: %w", symbol, models.ErrNotFound)
	}

	if err := s.insert(ctx, symbol, models.TimeSeries{obs}); err != nil {
		s.l.Error("clickhouse upsert insert error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, &models.StorageError{Op: "insert observation", Err: err}
	}

	out, err := s.read(ctx, symbol)
	if err != nil {
		s.l.Error("clickhouse upsert read error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, &models.StorageError{Op: "read series", Err: err}
	}
	s.l.Debug("clickhouse upsert ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		since(start),
	)
	return out, nil
}

// Import inserts series for symbol in chunks.
func (s *CHSeriesStore) Import(ctx context.Context, symbol string, series models.TimeSeries) error {
	const chunkSize = 2000
	for start := 0; start < len(series); start += chunkSize {
		end := start + chunkSize
		if end > len(series) {
			end = len(series)
		}
		if err := s.insert(ctx, symbol, series[start:end]); err != nil {
			return &models.StorageError{Op: "import observations", Err: err}
		}
	}
	return nil
}

func (s *CHSeriesStore) Close() error { return nil }

func (s *CHSeriesStore) insert(ctx context.Context, symbol string, rows models.TimeSeries) error {
	if len(rows) == 0 {
		return nil
	}
	version := uint64(time.Now().UnixNano())
	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)
	for _, o := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, symbol, models.DayKey(o.Date), o.Open, o.High, o.Low, o.Close, o.Volume, version)
	}
	q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, volume, version) VALUES %s",
		s.table, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *CHSeriesStore) read(ctx context.Context, symbol string) (models.TimeSeries, error) {
	q := fmt.Sprintf(`
        SELECT date, open, high, low, close, volume
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY date ASC
    `, s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	out := make(models.TimeSeries, 0, 256)
	for rows.Next() {
		var o models.Observation
		if err := rows.Scan(&o.Date, &o.Open, &o.High, &o.Low, &o.Close, &o.Volume); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.Date = models.DayKey(o.Date)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

var _ domrepo.SeriesStore = (*CHSeriesStore)(nil)
