package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/utils"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"go.uber.org/zap"
)

const analyzePath = "/api/analyze-transaction"

// Cap on model response bodies; anything bigger is malformed by definition.
const maxResponseBytes = 1 << 20

// remoteScorer calls the remote risk model over HTTP. It implements Scorer
// and reports every failure to the caller; the gateway owns the fallback
// decision.
type remoteScorer struct {
	logger  *zap.Logger
	baseURL string
	client  *http.Client
}

// NewRemoteScorer builds the HTTP-backed scorer. The connect timeout applies
// to dialing, the read timeout caps the whole request.
func NewRemoteScorer(logger *zap.Logger, cnf *configs.Config) Scorer {
	return &remoteScorer{
		logger:  logger,
		baseURL: cnf.ModelBaseURL,
		client: utils.NewHTTPClient(
			utils.WithDialerTimeout(cnf.ModelConnectTimeout),
			utils.WithResponseHeaderTimeout(cnf.ModelReadTimeout),
			utils.WithClientTimeout(cnf.ModelReadTimeout),
		),
	}
}

func (s *remoteScorer) Score(ctx context.Context, features dtos.FeatureMap) (ScoreResult, error) {
	body, err := json.Marshal(features)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("encode features: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return ScoreResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("call risk model: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ScoreResult{}, fmt.Errorf("risk model returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ScoreResult{}, fmt.Errorf("read risk model response: %w", err)
	}

	var envelope dtos.AnalyzeResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ScoreResult{}, fmt.Errorf("decode risk model response: %w", err)
	}
	return parseAnalysis(envelope.Analysis)
}

// parseAnalysis validates the mandatory verdict fields and tolerates absent
// explanation blobs.
func parseAnalysis(a *dtos.Analysis) (ScoreResult, error) {
	if a == nil {
		return ScoreResult{}, fmt.Errorf("%w: missing analysis object", pkg.ErrModelUnavailable)
	}
	if a.FraudScore == nil || a.IsFraud == nil || a.Reasons == nil {
		return ScoreResult{}, fmt.Errorf("%w: incomplete analysis", pkg.ErrModelUnavailable)
	}
	riskLevel := pkg.RiskLevel(a.RiskLevel)
	if !riskLevel.Valid() {
		return ScoreResult{}, fmt.Errorf("%w: unknown risk level %q", pkg.ErrModelUnavailable, a.RiskLevel)
	}
	if *a.FraudScore < 0 || *a.FraudScore > 1 {
		return ScoreResult{}, fmt.Errorf("%w: fraud score %f out of range", pkg.ErrModelUnavailable, *a.FraudScore)
	}

	return ScoreResult{
		FraudScore:      *a.FraudScore,
		RiskLevel:       riskLevel,
		IsFraud:         *a.IsFraud,
		Reasons:         a.Reasons,
		MLExplanation:   string(a.MLExplanation),
		RuleExplanation: string(a.RuleExplanation),
		Conclusion:      string(a.Conclusion),
	}, nil
}
