package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockX/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsPredictions(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	v := 101.5
	p := &models.Prediction{
		Symbol:      "ntc",
		Date:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Statistical: &v,
		Errors:      map[string]string{models.ModelNeural: "non-finite forecast discarded"},
	}
	require.NoError(t, hub.PublishPrediction(context.Background(), p))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.PredictResponse
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "NTC", got.Company)
	assert.Equal(t, "2024-02-01", got.Date)
	assert.Nil(t, got.LSTMPredictedClose)
	require.NotNil(t, got.ARIMAPredictedClose)
	assert.Equal(t, 101.5, *got.ARIMAPredictedClose)
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Zero(t, hub.Subscribers())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestHubWithoutSubscribers(t *testing.T) {
	hub := NewHub(nil, WithBufferSize(1), WithPingInterval(time.Second))
	assert.NoError(t, hub.PublishPrediction(context.Background(), &models.Prediction{Symbol: "ntc"}))
}
