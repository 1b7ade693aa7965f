package models

// Derivation names a deterministic per-column transform applied before scaling.
type Derivation string

const (
	DeriveNone  Derivation = "none"
	DeriveLog   Derivation = "log"
	DeriveLog1p Derivation = "log1p"
)

// Instrument is the immutable per-symbol configuration.
type Instrument struct {
	Symbol      string
	Window      int
	Features    []string
	Derivations map[string]Derivation
	Target      string
}

// TargetIndex returns the column index of the target feature, or -1.
func (i Instrument) TargetIndex() int {
	for idx, f := range i.Features {
		if f == i.Target {
			return idx
		}
	}
	return -1
}
