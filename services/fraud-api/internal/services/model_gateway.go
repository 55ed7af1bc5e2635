package services

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RiskModelGateway fronts the remote scorer with throttling, one retry and a
// silent rule-engine fallback. It always produces a verdict: any remote
// failure is recovered locally and never reaches the caller.
type RiskModelGatewayConfig struct {
	Logger *zap.Logger
	Cnf    *configs.Config
	Remote Scorer
	Rules  Scorer

	// internal initialization
	limiter         *rate.Limiter
	retryBackoff    time.Duration
	maxThrottleWait time.Duration
}

func NewRiskModelGateway(cfg RiskModelGatewayConfig) Scorer {
	cfg.limiter = rate.NewLimiter(rate.Limit(cfg.Cnf.MlRateLimitPerSec), cfg.Cnf.MlRequestBurst)
	cfg.retryBackoff = cfg.Cnf.ModelRetryBackoff
	cfg.maxThrottleWait = cfg.Cnf.MlRequestMaxThrottleWait
	return &cfg
}

func (g *RiskModelGatewayConfig) Score(ctx context.Context, features dtos.FeatureMap) (ScoreResult, error) {
	// Throttle wait guard: rather than queue behind a saturated limiter,
	// fail fast into the local path.
	waitCtx, cancel := context.WithTimeout(ctx, g.maxThrottleWait)
	defer cancel()
	if err := g.limiter.Wait(waitCtx); err != nil {
		g.Logger.Warn("risk_model_throttled_falling_back", zap.Error(err))
		observability.ModelFallbacks.WithLabelValues("throttled").Inc()
		return g.scoreLocally(ctx, features)
	}

	var result ScoreResult
	operation := func() error {
		var err error
		result, err = g.Remote.Score(ctx, features)
		return err
	}

	// One retry on top of the initial attempt, constant backoff between them.
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(g.retryBackoff), 1), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		g.Logger.Warn("risk_model_call_failed_falling_back", zap.Error(err))
		observability.ModelFallbacks.WithLabelValues("remote_error").Inc()
		return g.scoreLocally(ctx, features)
	}
	observability.TransactionsScored.WithLabelValues(string(result.RiskLevel), "remote").Inc()
	return result, nil
}

func (g *RiskModelGatewayConfig) scoreLocally(ctx context.Context, features dtos.FeatureMap) (ScoreResult, error) {
	result, err := g.Rules.Score(ctx, features)
	if err == nil {
		observability.TransactionsScored.WithLabelValues(string(result.RiskLevel), "rules").Inc()
	}
	return result, err
}
