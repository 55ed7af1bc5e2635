package configs

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/smartmedishop/fraud-pipeline/pkg/utils"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds application configuration for fraud-api.
type Config struct {
	Port          string `mapstructure:"PORT" validate:"required"`
	PrimaryDbAddr string `mapstructure:"PRIMARY_DB_ADDR" validate:"required"`
	ReplicaDbAddr string `mapstructure:"REPLICA_DB_ADDR"`
	MaxDbCons     int32  `mapstructure:"MAX_DB_CONNECTIONS" validate:"min=1"`
	MinDbCons     int32  `mapstructure:"MIN_DB_CONNECTIONS" validate:"min=1"`

	// Optional; the behavior profile cache is disabled when empty.
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	BehaviorCacheTTL time.Duration `mapstructure:"BEHAVIOR_CACHE_TTL" validate:"required"`

	// Remote risk model. Connect timeout must stay below the read timeout so
	// a dead host fails fast while slow scoring is still tolerated.
	ModelBaseURL             string        `mapstructure:"AI_MODEL_BASE_URL" validate:"required"`
	ModelConnectTimeout      time.Duration `mapstructure:"AI_MODEL_CONNECT_TIMEOUT" validate:"required"`
	ModelReadTimeout         time.Duration `mapstructure:"AI_MODEL_READ_TIMEOUT" validate:"required"`
	ModelRetryBackoff        time.Duration `mapstructure:"AI_MODEL_RETRY_BACKOFF" validate:"required"`
	MlRateLimitPerSec        int           `mapstructure:"ML_RATE_LIMIT_PER_SEC" validate:"min=1"`
	MlRequestBurst           int           `mapstructure:"ML_REQUEST_BURST" validate:"min=1"`
	MlRequestMaxThrottleWait time.Duration `mapstructure:"ML_REQUEST_MAX_THROTTLE_WAIT" validate:"required"` // Throttle wait guard: if the wait time is longer than this to get a token, fall back to rules

	// Optional; alert events are not published when no brokers are set.
	KafkaBrokers        string        `mapstructure:"KAFKA_BROKERS"`
	KafkaAlertTopic     string        `mapstructure:"KAFKA_ALERT_TOPIC" validate:"required"`
	KafkaPartition      uint32        `mapstructure:"KAFKA_PARTITION" validate:"min=1"`
	KafkaAlertRetention time.Duration `mapstructure:"KAFKA_ALERT_RETENTION" validate:"required"`
}

func Load(logger *zap.Logger) (*Config, error) {
	viper.SetEnvPrefix("app") // Prefix for env vars
	viper.AutomaticEnv()

	// Default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("MAX_DB_CONNECTIONS", "10")
	viper.SetDefault("MIN_DB_CONNECTIONS", "2")
	viper.SetDefault("BEHAVIOR_CACHE_TTL", "5m")
	viper.SetDefault("AI_MODEL_CONNECT_TIMEOUT", "2s")
	viper.SetDefault("AI_MODEL_READ_TIMEOUT", "8s")
	viper.SetDefault("AI_MODEL_RETRY_BACKOFF", "200ms")
	viper.SetDefault("ML_RATE_LIMIT_PER_SEC", "50")
	viper.SetDefault("ML_REQUEST_BURST", "10")
	viper.SetDefault("ML_REQUEST_MAX_THROTTLE_WAIT", "1s")
	viper.SetDefault("KAFKA_ALERT_TOPIC", "fraud.alerts")
	viper.SetDefault("KAFKA_PARTITION", "4")
	viper.SetDefault("KAFKA_ALERT_RETENTION", "168h")

	// Optional: Read from config.yaml if exists
	if gin.ReleaseMode == gin.Mode() {
		viper.SetConfigName("config.prod")
	} else if gin.TestMode == gin.Mode() {
		logger.Warn("running_in_test_mode")
		viper.SetConfigName("config.test")
	} else {
		logger.Warn("running_in_development_mode")
		viper.SetConfigName("config.dev")
	}
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./services/fraud-api/configs")
	_ = viper.ReadInConfig() // Ignore if no file

	var cfg Config
	if err := utils.ParseStructEnv(&cfg); err != nil {
		return nil, err
	}

	// Validate after unmarshal
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, utils.FormatConfigErrors(logger, err, cfg)
	}
	return &cfg, nil
}
