package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/configs"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRemoteScorer(baseURL string) Scorer {
	return NewRemoteScorer(zap.NewNop(), &configs.Config{
		ModelBaseURL:        baseURL,
		ModelConnectTimeout: 500 * time.Millisecond,
		ModelReadTimeout:    time.Second,
	})
}

func TestRemoteScorer_Score_Success(t *testing.T) {
	var gotFeatures dtos.FeatureMap
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/analyze-transaction", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotFeatures))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"analysis": {
				"fraud_score": 0.85,
				"risk_level": "CRITICAL",
				"is_fraud": true,
				"reasons": ["Suspicious velocity pattern"],
				"ml_explanation": {"top_feature": "amount"},
				"conclusion": "block"
			}
		}`))
	}))
	defer srv.Close()

	result, err := newTestRemoteScorer(srv.URL).Score(context.Background(), dtos.FeatureMap{"amount": 9500.0})

	require.NoError(t, err)
	assert.Equal(t, 0.85, result.FraudScore)
	assert.Equal(t, pkg.RiskLevelCritical, result.RiskLevel)
	assert.True(t, result.IsFraud)
	assert.Equal(t, []string{"Suspicious velocity pattern"}, result.Reasons)
	assert.JSONEq(t, `{"top_feature": "amount"}`, result.MLExplanation)
	assert.Equal(t, `"block"`, result.Conclusion)
	assert.Equal(t, 9500.0, gotFeatures["amount"])
}

func TestRemoteScorer_Score_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestRemoteScorer(srv.URL).Score(context.Background(), dtos.FeatureMap{})
	assert.Error(t, err)
}

func TestRemoteScorer_Score_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	_, err := newTestRemoteScorer(srv.URL).Score(context.Background(), dtos.FeatureMap{})
	assert.Error(t, err)
}

func TestRemoteScorer_Score_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestRemoteScorer(srv.URL).Score(context.Background(), dtos.FeatureMap{})
	assert.Error(t, err)
}

func TestParseAnalysis_Validation(t *testing.T) {
	score := 0.4
	badScore := 1.5
	isFraud := false

	tests := []struct {
		name     string
		analysis *dtos.Analysis
	}{
		{name: "nil analysis", analysis: nil},
		{name: "missing score", analysis: &dtos.Analysis{RiskLevel: "LOW", IsFraud: &isFraud, Reasons: []string{}}},
		{name: "missing is_fraud", analysis: &dtos.Analysis{FraudScore: &score, RiskLevel: "LOW", Reasons: []string{}}},
		{name: "missing reasons", analysis: &dtos.Analysis{FraudScore: &score, RiskLevel: "LOW", IsFraud: &isFraud}},
		{name: "unknown risk level", analysis: &dtos.Analysis{FraudScore: &score, RiskLevel: "SEVERE", IsFraud: &isFraud, Reasons: []string{}}},
		{name: "score out of range", analysis: &dtos.Analysis{FraudScore: &badScore, RiskLevel: "LOW", IsFraud: &isFraud, Reasons: []string{}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseAnalysis(tc.analysis)
			assert.ErrorIs(t, err, pkg.ErrModelUnavailable)
		})
	}
}

func TestParseAnalysis_EmptyReasonsAllowed(t *testing.T) {
	score := 0.1
	isFraud := false

	result, err := parseAnalysis(&dtos.Analysis{
		FraudScore: &score,
		RiskLevel:  "LOW",
		IsFraud:    &isFraud,
		Reasons:    []string{},
	})

	require.NoError(t, err)
	assert.Equal(t, 0.1, result.FraudScore)
	assert.Empty(t, result.Reasons)
}
