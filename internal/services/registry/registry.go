package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	domsvc "StockX/internal/domain/service"
	"StockX/internal/services/features"
	"StockX/internal/services/forecast"
	"StockX/pkg/config"
	applogger "StockX/pkg/logger"
)

// Entry holds one instrument's configuration and loaded models. Callers hold
// the entry lock across upsert, extraction and both model updates.
type Entry struct {
	mu sync.Mutex

	Instrument  models.Instrument
	Scaler      domsvc.FeatureScaler
	Sequence    domsvc.SequenceForecaster
	Statistical domsvc.StatisticalForecaster
}

func (e *Entry) Lock()   { e.mu.Lock() }
func (e *Entry) Unlock() { e.mu.Unlock() }

// Registry maps case-folded symbols to their entries. It is immutable after
// construction.
type Registry struct {
	entries map[string]*Entry
}

// New builds a registry from entries. Symbols are case-folded and must be unique.
func New(entries ...*Entry) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Entry, len(entries))}
	for _, e := range entries {
		key := Key(e.Instrument.Symbol)
		if key == "" {
			return nil, fmt.Errorf("registry: empty symbol")
		}
		if _, dup := r.entries[key]; dup {
			return nil, fmt.Errorf("registry: %s registered twice", key)
		}
		e.Instrument.Symbol = key
		r.entries[key] = e
	}
	return r, nil
}

// Key case-folds a symbol.
func Key(symbol string) string {
	return strings.ToLower(strings.TrimSpace(symbol))
}

// Get returns the entry for symbol or an UnknownInstrumentError.
func (r *Registry) Get(symbol string) (*Entry, error) {
	key := Key(symbol)
	e, ok := r.entries[key]
	if !ok {
		return nil, &models.UnknownInstrumentError{Symbol: key}
	}
	return e, nil
}

// Instruments lists configured instruments ordered by symbol.
func (r *Registry) Instruments() []models.Instrument {
	out := make([]models.Instrument, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Instrument)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// SequenceFactory builds the sequence model for one configured instrument.
type SequenceFactory func(in config.Instrument) (domsvc.SequenceForecaster, error)

// Load builds every configured instrument. Any failure aborts startup.
func Load(ctx context.Context, cfg *config.Config, states domrepo.StateStore, seq SequenceFactory, l *applogger.Logger) (*Registry, error) {
	entries := make([]*Entry, 0, len(cfg.Instruments))
	for _, ci := range cfg.Instruments {
		e, err := loadEntry(ctx, ci, states, seq)
		if err != nil {
			return nil, fmt.Errorf("instrument %s: %w", ci.Symbol, err)
		}
		capability := ""
		if s, ok := e.Statistical.(*forecast.Statistical); ok {
			capability = s.Capability()
		}
		l.Info("instrument loaded",
			applogger.String("symbol", e.Instrument.Symbol),
			applogger.Int("window", e.Instrument.Window),
			applogger.Int("statistical_history", e.Statistical.HistoryLen()),
			applogger.String("statistical_capability", capability),
		)
		entries = append(entries, e)
	}
	return New(entries...)
}

func loadEntry(ctx context.Context, ci config.Instrument, states domrepo.StateStore, seq SequenceFactory) (*Entry, error) {
	in, err := instrumentFrom(ci)
	if err != nil {
		return nil, err
	}

	x, err := features.LoadScaler(ci.Scaler)
	if err != nil {
		return nil, err
	}
	if x.Dim() != len(in.Features) {
		return nil, &models.ShapeMismatchError{What: "feature scaler", WantCols: len(in.Features), GotCols: x.Dim()}
	}
	var y *features.Scaler
	if ci.TargetScaler != "" {
		if y, err = features.LoadScaler(ci.TargetScaler); err != nil {
			return nil, err
		}
	}
	scaler, err := features.NewFeatureScaler(x, y, in.TargetIndex())
	if err != nil {
		return nil, err
	}

	sf, err := seq(ci)
	if err != nil {
		return nil, fmt.Errorf("sequence model: %w", err)
	}
	if rows, cols := sf.InputShape(); rows != in.Window || cols != len(in.Features) {
		return nil, &models.ShapeMismatchError{What: "sequence model", WantRows: in.Window, WantCols: len(in.Features), GotRows: rows, GotCols: cols}
	}

	st, err := forecast.LoadStatistical(ctx, in.Symbol, states)
	if err != nil {
		return nil, err
	}

	return &Entry{Instrument: in, Scaler: scaler, Sequence: sf, Statistical: st}, nil
}

func instrumentFrom(ci config.Instrument) (models.Instrument, error) {
	in := models.Instrument{
		Symbol:   Key(ci.Symbol),
		Window:   ci.Window,
		Target:   strings.ToLower(ci.Target),
		Features: make([]string, 0, len(ci.Features)),
	}
	for _, f := range ci.Features {
		f = strings.ToLower(f)
		if _, ok := (models.Observation{}).Value(f); !ok {
			return in, fmt.Errorf("unknown feature %q", f)
		}
		in.Features = append(in.Features, f)
	}
	if in.TargetIndex() < 0 {
		return in, fmt.Errorf("target %q is not a feature", in.Target)
	}
	if len(ci.Derivations) > 0 {
		in.Derivations = make(map[string]models.Derivation, len(ci.Derivations))
		for f, d := range ci.Derivations {
			dv := models.Derivation(strings.ToLower(d))
			if !features.ValidDerivation(dv) {
				return in, fmt.Errorf("feature %s: unknown derivation %q", f, d)
			}
			in.Derivations[strings.ToLower(f)] = dv
		}
	}
	return in, nil
}
