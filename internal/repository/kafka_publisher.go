package repository

import (
	"context"

	"StockX/internal/domain/models"
	domrepo "StockX/internal/domain/repository"
	pkgkafka "StockX/pkg/kafka"
)

// KafkaPredictionPublisher writes predictions keyed by symbol.
type KafkaPredictionPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPredictionPublisher(producer *pkgkafka.Producer, topic string) *KafkaPredictionPublisher {
	return &KafkaPredictionPublisher{producer: producer, topic: topic}
}

func (p *KafkaPredictionPublisher) PublishPrediction(ctx context.Context, pr *models.Prediction) error {
	return p.producer.Publish(ctx, p.topic, []byte(pr.Symbol), models.NewPredictResponse(pr))
}

func (p *KafkaPredictionPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.PredictionPublisher = (*KafkaPredictionPublisher)(nil)
