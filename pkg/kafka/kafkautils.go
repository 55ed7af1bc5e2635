package kafkautils

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// KafkaConfig names the broker and the topics the alert pipeline requires.
type KafkaConfig struct {
	BootstrapServers string
	Topics           []TopicConfig
}

type TopicConfig struct {
	Topic             string
	NumPartitions     int
	ReplicationFactor int
	Config            map[string]string
}

// InitKafkaTopics ensures the alert topics exist before the producer starts,
// retrying for up to two minutes so a broker that is still coming up does not
// fail the boot. A topic that already exists is not an error.
func InitKafkaTopics(logger *zap.Logger, ctx context.Context, cnf KafkaConfig) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": cnf.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer admin.Close()

	specs := make([]kafka.TopicSpecification, 0, len(cnf.Topics))
	for _, tc := range cnf.Topics {
		specs = append(specs, kafka.TopicSpecification{
			Topic:             tc.Topic,
			NumPartitions:     tc.NumPartitions,
			ReplicationFactor: tc.ReplicationFactor,
			Config:            tc.Config,
		})
	}

	createTopics := func() error {
		results, err := admin.CreateTopics(ctx, specs, kafka.SetAdminOperationTimeout(30*time.Second))
		if err != nil {
			return fmt.Errorf("failed to create kafka topics: %w", err)
		}
		for _, result := range results {
			code := result.Error.Code()
			if code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
				return fmt.Errorf("kafka topic %s creation failed: %v", result.Topic, result.Error)
			}
			logger.Info("kafka_topic_ready", zap.String("topic", result.Topic))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	notify := func(err error, next time.Duration) {
		logger.Warn("kafka_topic_init_retrying",
			zap.Error(err), zap.Duration("next_attempt_in", next))
	}
	return backoff.RetryNotify(createTopics, b, notify)
}
