package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	kafkautils "github.com/smartmedishop/fraud-pipeline/pkg/kafka"
	"github.com/smartmedishop/fraud-pipeline/pkg/views"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"go.uber.org/zap"
)

// AlertPublisher fans newly created fraud alerts out to Kafka so downstream
// case-management consumers pick them up. Publishing is best-effort; the
// pipeline never blocks on, or fails because of, the broker.
type AlertPublisher interface {
	PublishAlert(event views.AlertEvent) error
	Close()
}

type AlertPublisherImpl struct {
	logger   *zap.Logger
	producer *kafka.Producer
	cnf      *configs.Config
}

// NewAlertPublisher creates the alert topic and wires a producer. Returns nil
// when no brokers are configured; callers treat a nil publisher as disabled.
func NewAlertPublisher(logger *zap.Logger, ctx context.Context, cnf *configs.Config) AlertPublisher {
	if cnf.KafkaBrokers == "" {
		logger.Warn("kafka_disabled_no_brokers_configured")
		return nil
	}

	topicConfig := kafkautils.KafkaConfig{
		BootstrapServers: cnf.KafkaBrokers,
		Topics: []kafkautils.TopicConfig{
			{
				Topic:             cnf.KafkaAlertTopic,
				NumPartitions:     int(cnf.KafkaPartition),
				ReplicationFactor: 1,
				Config: map[string]string{
					"cleanup.policy": "delete",
					"retention.ms":   fmt.Sprintf("%d", cnf.KafkaAlertRetention.Milliseconds()),
				},
			},
		},
	}
	err := kafkautils.InitKafkaTopics(logger, ctx, topicConfig)
	if err != nil {
		logger.Fatal("failed to initialize kafka topics", zap.Error(err))
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":  cnf.KafkaBrokers,
		"acks":               "all",
		"enable.idempotence": "true",
		"retries":            "1",
	})
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	logger.Info("kafka producer created successfully", zap.String("brokers", cnf.KafkaBrokers))
	go handleDeliveryReports(logger, p)
	return &AlertPublisherImpl{
		logger:   logger,
		cnf:      cnf,
		producer: p,
	}
}

func (k AlertPublisherImpl) PublishAlert(event views.AlertEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &k.cnf.KafkaAlertTopic,
			Partition: kafka.PartitionAny, // keyed by user, broker picks the partition
		},
		Key:   []byte(event.UserID), // per-user ordering of alert events
		Value: msgBytes,
	}, nil)
}

func (k AlertPublisherImpl) Close() {
	k.producer.Close()
}

func handleDeliveryReports(logger *zap.Logger, p *kafka.Producer) {
	for e := range p.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Error("failed to publish alert event", zap.Error(ev.TopicPartition.Error))
			}
		}
	}
}
