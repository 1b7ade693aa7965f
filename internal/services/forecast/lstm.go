package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"StockX/internal/domain/models"
	domsvc "StockX/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// Layer kinds in an exported weights file.
const (
	layerLSTM  = "lstm"
	layerDense = "dense"
)

// LayerSpec is one layer of an exported network. Weight layouts follow the
// exporting framework: kernel is (inputs x 4*units) with gates ordered
// input, forget, cell, output; recurrent_kernel is (units x 4*units).
type LayerSpec struct {
	Type            string      `json:"type"`
	Units           int         `json:"units"`
	ReturnSequences bool        `json:"return_sequences,omitempty"`
	Activation      string      `json:"activation,omitempty"`
	Kernel          [][]float64 `json:"kernel"`
	RecurrentKernel [][]float64 `json:"recurrent_kernel,omitempty"`
	Bias            []float64   `json:"bias"`
}

// NetworkSpec is the on-disk form of a trained sequence network.
type NetworkSpec struct {
	InputShape [2]int      `json:"input_shape"`
	Layers     []LayerSpec `json:"layers"`
}

type lstmLayer struct {
	units     int
	kernel    *mat.Dense
	recurrent *mat.Dense
	bias      []float64
	seq       bool
}

type denseLayer struct {
	kernel     *mat.Dense
	bias       []float64
	activation string
}

// LSTMNetwork evaluates a stack of LSTM layers followed by dense layers.
// Weights are read-only after load, so Predict is safe for concurrent use.
type LSTMNetwork struct {
	rows, cols int
	lstm       []lstmLayer
	dense      []denseLayer
}

// LoadLSTMNetwork reads a JSON weights file.
func LoadLSTMNetwork(path string) (*LSTMNetwork, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	var spec NetworkSpec
	if err := json.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("parse network %s: %w", path, err)
	}
	return NewLSTMNetwork(spec)
}

// NewLSTMNetwork validates layer dimensions and builds the network.
func NewLSTMNetwork(spec NetworkSpec) (*LSTMNetwork, error) {
	rows, cols := spec.InputShape[0], spec.InputShape[1]
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("network: invalid input shape %v", spec.InputShape)
	}
	n := &LSTMNetwork{rows: rows, cols: cols}
	in := cols
	seq := true
	for i, ls := range spec.Layers {
		switch ls.Type {
		case layerLSTM:
			if len(n.dense) > 0 {
				return nil, fmt.Errorf("network: layer %d: lstm after dense", i)
			}
			if !seq {
				return nil, fmt.Errorf("network: layer %d: previous lstm does not return sequences", i)
			}
			k, err := denseFrom(ls.Kernel, in, 4*ls.Units)
			if err != nil {
				return nil, fmt.Errorf("network: layer %d kernel: %w", i, err)
			}
			r, err := denseFrom(ls.RecurrentKernel, ls.Units, 4*ls.Units)
			if err != nil {
				return nil, fmt.Errorf("network: layer %d recurrent_kernel: %w", i, err)
			}
			if len(ls.Bias) != 4*ls.Units {
				return nil, fmt.Errorf("network: layer %d bias has %d entries, want %d", i, len(ls.Bias), 4*ls.Units)
			}
			n.lstm = append(n.lstm, lstmLayer{units: ls.Units, kernel: k, recurrent: r, bias: ls.Bias, seq: ls.ReturnSequences})
			in = ls.Units
			seq = ls.ReturnSequences
		case layerDense:
			if len(n.lstm) == 0 || seq {
				return nil, fmt.Errorf("network: layer %d: dense needs a final non-sequence lstm", i)
			}
			k, err := denseFrom(ls.Kernel, in, ls.Units)
			if err != nil {
				return nil, fmt.Errorf("network: layer %d kernel: %w", i, err)
			}
			if len(ls.Bias) != ls.Units {
				return nil, fmt.Errorf("network: layer %d bias has %d entries, want %d", i, len(ls.Bias), ls.Units)
			}
			if _, ok := activations[ls.Activation]; !ok {
				return nil, fmt.Errorf("network: layer %d: unsupported activation %q", i, ls.Activation)
			}
			n.dense = append(n.dense, denseLayer{kernel: k, bias: ls.Bias, activation: ls.Activation})
			in = ls.Units
		default:
			return nil, fmt.Errorf("network: layer %d: unsupported type %q", i, ls.Type)
		}
	}
	if len(n.dense) == 0 || in != 1 {
		return nil, fmt.Errorf("network: must end in a dense layer with one unit")
	}
	return n, nil
}

func (n *LSTMNetwork) InputShape() (int, int) { return n.rows, n.cols }

// Predict runs the network on one (rows x cols) window.
func (n *LSTMNetwork) Predict(ctx context.Context, window *mat.Dense) (float64, error) {
	r, c := window.Dims()
	if r != n.rows || c != n.cols {
		return 0, &models.ShapeMismatchError{What: "sequence model", WantRows: n.rows, WantCols: n.cols, GotRows: r, GotCols: c}
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	x := mat.DenseCopyOf(window)
	var last []float64
	for _, l := range n.lstm {
		x, last = l.forward(x)
	}

	v := mat.NewDense(1, len(last), last)
	for _, d := range n.dense {
		v = d.forward(v)
	}
	return v.At(0, 0), nil
}

// forward returns the hidden-state sequence (steps x units) and the final hidden state.
func (l lstmLayer) forward(x *mat.Dense) (*mat.Dense, []float64) {
	steps, in := x.Dims()
	u := l.units
	h := mat.NewDense(1, u, nil)
	cell := make([]float64, u)
	seq := mat.NewDense(steps, u, nil)

	z := mat.NewDense(1, 4*u, nil)
	rec := mat.NewDense(1, 4*u, nil)
	for t := 0; t < steps; t++ {
		z.Mul(x.Slice(t, t+1, 0, in), l.kernel)
		rec.Mul(h, l.recurrent)
		z.Add(z, rec)
		for j := 0; j < u; j++ {
			ig := sigmoid(z.At(0, j) + l.bias[j])
			fg := sigmoid(z.At(0, u+j) + l.bias[u+j])
			cg := math.Tanh(z.At(0, 2*u+j) + l.bias[2*u+j])
			og := sigmoid(z.At(0, 3*u+j) + l.bias[3*u+j])
			cell[j] = fg*cell[j] + ig*cg
			h.Set(0, j, og*math.Tanh(cell[j]))
		}
		seq.SetRow(t, h.RawRowView(0))
	}
	return seq, append([]float64(nil), h.RawRowView(0)...)
}

func (d denseLayer) forward(v *mat.Dense) *mat.Dense {
	_, out := d.kernel.Dims()
	res := mat.NewDense(1, out, nil)
	res.Mul(v, d.kernel)
	act := activations[d.activation]
	for j := 0; j < out; j++ {
		res.Set(0, j, act(res.At(0, j)+d.bias[j]))
	}
	return res
}

var activations = map[string]func(float64) float64{
	"":        func(v float64) float64 { return v },
	"linear":  func(v float64) float64 { return v },
	"relu":    func(v float64) float64 { return math.Max(0, v) },
	"tanh":    math.Tanh,
	"sigmoid": sigmoid,
}

func sigmoid(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

func denseFrom(rows [][]float64, r, c int) (*mat.Dense, error) {
	if len(rows) != r {
		return nil, fmt.Errorf("want %d rows, got %d", r, len(rows))
	}
	data := make([]float64, 0, r*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("row %d: want %d cols, got %d", i, c, len(row))
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}

var _ domsvc.SequenceForecaster = (*LSTMNetwork)(nil)
