package forecast

import (
	"testing"

	"StockX/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ar1State() *models.ARIMAState {
	return &models.ARIMAState{Symbol: "asian", Const: 1, AR: []float64{0.5}, History: []float64{2, 4}}
}

func ima11State() *models.ARIMAState {
	return &models.ARIMAState{Symbol: "ntc", D: 1, MA: []float64{0.5}, History: []float64{10, 12, 11}}
}

func withInnovations(st *models.ARIMAState) *models.ARIMAState {
	st.Residuals = innovations(st, differenced(st.History, st.D))
	return st
}

func TestARIMAForecastAR1(t *testing.T) {
	m, err := NewARIMA(ar1State())
	require.NoError(t, err)

	f, err := m.Forecast(1)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, f, 1e-12)

	require.NoError(t, m.Update(6))
	f, err = m.Forecast(1)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, f, 1e-12)
	assert.Equal(t, 3, m.Len())
}

func TestARIMAForecastIMA11(t *testing.T) {
	m, err := NewARIMA(withInnovations(ima11State()))
	require.NoError(t, err)
	assert.Equal(t, CapabilityAppend, m.Capability())
	assert.InDeltaSlice(t, []float64{2, -2}, m.State().Residuals, 1e-12)

	f, err := m.Forecast(1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, f, 1e-12)

	require.NoError(t, m.Update(13))
	f, err = m.Forecast(1)
	require.NoError(t, err)
	assert.InDelta(t, 14.5, f, 1e-12)
}

func TestARIMACapabilitiesAreEquivalent(t *testing.T) {
	appendModel, err := NewARIMA(withInnovations(ima11State()))
	require.NoError(t, err)
	extendModel, err := NewARIMA(ima11State())
	require.NoError(t, err)
	require.Equal(t, CapabilityAppend, appendModel.Capability())
	require.Equal(t, CapabilityExtend, extendModel.Capability())

	coefs := append([]float64(nil), extendModel.State().MA...)
	for _, v := range []float64{13, 12.5, 14, 150} {
		require.NoError(t, appendModel.Update(v))
		require.NoError(t, extendModel.Update(v))

		fa, err := appendModel.Forecast(1)
		require.NoError(t, err)
		fe, err := extendModel.Forecast(1)
		require.NoError(t, err)
		assert.Equal(t, fa, fe)
		assert.Equal(t, appendModel.Len(), extendModel.Len())
	}
	assert.Equal(t, coefs, extendModel.State().MA)
	assert.Equal(t, coefs, appendModel.State().MA)
}

func TestARIMAUpdateThenForecastIsDeterministic(t *testing.T) {
	base, err := NewARIMA(withInnovations(&models.ARIMAState{
		D: 1, Const: 0.1, AR: []float64{0.3, -0.1}, MA: []float64{0.2},
		History: []float64{100, 101, 99, 102, 104, 103},
	}))
	require.NoError(t, err)

	run := func() float64 {
		m := base.Clone()
		require.NoError(t, m.Update(105))
		f, err := m.Forecast(1)
		require.NoError(t, err)
		return f
	}
	assert.Equal(t, run(), run())
	assert.Equal(t, 6, base.Len())
}

func TestARIMARejectsBadInput(t *testing.T) {
	m, err := NewARIMA(ar1State())
	require.NoError(t, err)

	_, err = m.Forecast(2)
	assert.ErrorIs(t, err, errMultiStep)
	assert.Error(t, m.Update(nan()))
	assert.Equal(t, 2, m.Len())

	_, err = NewARIMA(&models.ARIMAState{D: 1, History: []float64{1}})
	assert.Error(t, err)
	_, err = NewARIMA(&models.ARIMAState{D: 3, History: []float64{1, 2, 3, 4}})
	assert.Error(t, err)
	_, err = NewARIMA(nil)
	assert.Error(t, err)
}

func TestDiffAtSecondOrder(t *testing.T) {
	y := []float64{1, 4, 9, 16}
	assert.Equal(t, []float64{2, 2}, differenced(y, 2))
}
