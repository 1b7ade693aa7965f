package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	xhttp "StockX/pkg/http"
	pkgkafka "StockX/pkg/kafka"
)

// KafkaObservationsHandler feeds observation messages into the prediction
// use case. The message body has the /predict_next shape; the key is the
// symbol and is used when the body omits company.
type KafkaObservationsHandler struct {
	topic   string
	uc      *PredictionUseCase
	metrics domrepo.Metrics
}

func NewKafkaObservationsHandler(topic string, uc *PredictionUseCase, metrics domrepo.Metrics) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, uc: uc, metrics: metrics}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

func (h *KafkaObservationsHandler) Handle(ctx context.Context, key, value []byte) error {
	var req models.PredictRequest
	if err := json.Unmarshal(value, &req); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode observation: %w", err)
	}
	if strings.TrimSpace(req.Company) == "" {
		req.Company = string(key)
	}
	if verrs := xhttp.ValidateStruct(ctx, &req); len(verrs) > 0 {
		h.recordError("consumer_validation")
		return fmt.Errorf("invalid observation: %s", verrs[0].Message)
	}

	_, err := h.uc.HandleRequest(ctx, req)
	return err
}

func (h *KafkaObservationsHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
