package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	applogger "StockX/pkg/logger"
	"StockX/pkg/util"
)

var csvHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// CSVSeriesStore keeps one csv file per instrument and rewrites it atomically
// on every upsert.
type CSVSeriesStore struct {
	path func(symbol string) string
	l    *applogger.Logger
}

// NewCSVSeriesStore resolves each symbol's file through path.
func NewCSVSeriesStore(path func(symbol string) string) *CSVSeriesStore {
	return &CSVSeriesStore{path: path, l: applogger.NewNop()}
}

// SetLogger injects a structured logger.
func (s *CSVSeriesStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CSVSeriesStore) Upsert(ctx context.Context, symbol string, obs models.Observation) (models.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	path := s.path(symbol)
	series, err := ReadCSVSeries(path)
	if err != nil {
		return nil, err
	}

	out := mergeObservation(series, obs)
	if err := writeCSVAtomic(path, out); err != nil {
		s.l.Error("csv upsert write failed", applogger.String("symbol", symbol), applogger.String("path", path), applogger.Error(err))
		return nil, &models.StorageError{Op: "write series", Err: err}
	}
	s.l.Debug("csv upsert ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		since(start),
	)
	return out, nil
}

func (s *CSVSeriesStore) Close() error { return nil }

// ReadCSVSeries loads a dataset file in ascending date order. A missing file
// yields models.ErrNotFound; unreadable content yields a StorageError.
func ReadCSVSeries(path string) (models.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset %s: %w", path, models.ErrNotFound)
		}
		return nil, &models.StorageError{Op: "open series", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return models.TimeSeries{}, nil
		}
		return nil, &models.StorageError{Op: "read series header", Err: err}
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, &models.StorageError{Op: "read series header", Err: fmt.Errorf("%s: %w", path, err)}
	}

	var rows models.TimeSeries
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.StorageError{Op: "read series", Err: err}
		}
		obs, err := parseRecord(rec, cols)
		if err != nil {
			return nil, &models.StorageError{Op: "parse series", Err: fmt.Errorf("%s line %d: %w", path, line, err)}
		}
		rows = append(rows, obs)
	}
	return normalize(rows), nil
}

func columnIndex(header []string) ([]int, error) {
	idx := make([]int, len(csvHeader))
	for i := range idx {
		idx[i] = -1
	}
	for pos, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		for i, want := range csvHeader {
			if strings.EqualFold(name, want) {
				idx[i] = pos
			}
		}
	}
	for i, pos := range idx {
		if pos < 0 {
			return nil, fmt.Errorf("missing column %s", csvHeader[i])
		}
	}
	return idx, nil
}

func parseRecord(rec []string, cols []int) (models.Observation, error) {
	var obs models.Observation
	for _, pos := range cols {
		if pos >= len(rec) {
			return obs, fmt.Errorf("short record with %d fields", len(rec))
		}
	}
	d, err := util.ParseDate(rec[cols[0]])
	if err != nil {
		return obs, err
	}
	obs.Date = d
	vals := []*float64{&obs.Open, &obs.High, &obs.Low, &obs.Close, &obs.Volume}
	for i, dst := range vals {
		raw := strings.TrimSpace(rec[cols[i+1]])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return obs, fmt.Errorf("%s: %w", csvHeader[i+1], err)
		}
		*dst = v
	}
	return obs, nil
}

// writeCSVAtomic writes series next to path and renames it into place.
func writeCSVAtomic(path string, series models.TimeSeries) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := csv.NewWriter(tmp)
	if err = w.Write(csvHeader); err != nil {
		return err
	}
	rec := make([]string, len(csvHeader))
	for _, o := range series {
		rec[0] = o.Date.Format(util.DateLayout)
		rec[1] = formatFloat(o.Open)
		rec[2] = formatFloat(o.High)
		rec[3] = formatFloat(o.Low)
		rec[4] = formatFloat(o.Close)
		rec[5] = formatFloat(o.Volume)
		if err = w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// since returns the elapsed time as a log field.
func since(start time.Time) applogger.Field {
	return applogger.Duration("duration_ms", time.Since(start))
}

var _ domrepo.SeriesStore = (*CSVSeriesStore)(nil)
