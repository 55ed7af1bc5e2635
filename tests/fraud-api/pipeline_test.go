package fraudapi_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	testutils "github.com/smartmedishop/fraud-pipeline/tests/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transactionResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	Amount       string  `json:"amount"`
	Status       string  `json:"status"`
	FraudScore   float64 `json:"fraudScore"`
	RiskLevel    string  `json:"riskLevel"`
	IsFraud      bool    `json:"isFraud"`
	FraudReasons string  `json:"fraudReasons"`
}

type alertResponse struct {
	ID            string  `json:"id"`
	TransactionID string  `json:"transactionId"`
	AlertType     string  `json:"alertType"`
	Severity      string  `json:"severity"`
	Status        string  `json:"status"`
	FraudScore    float64 `json:"fraudScore"`
	ResolvedBy    string  `json:"resolvedBy"`
}

func submitPayload(userID, amount string) map[string]interface{} {
	return map[string]interface{}{
		"userId":          userID,
		"amount":          amount,
		"paymentMethod":   "CREDIT_CARD",
		"deviceType":      "MOBILE",
		"locationCountry": "US",
		"merchantName":    "acme-pharma",
		"transactionType": "PURCHASE",
		"transactionDate": "2025-06-10T14:00:00Z",
	}
}

func TestSubmitTransaction_CleanTransaction_RulePath(t *testing.T) {
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	userID := testutils.GetSeededUserID().String()

	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", submitPayload(userID, "42.50"))
	require.NoError(t, err)
	assert.NotEmpty(t, testutils.GetTraceId(resp))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var txn transactionResponse
	testutils.DecodeJSON(t, resp.Body, &txn)
	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, userID, txn.UserID)
	assert.Equal(t, "COMPLETED", txn.Status)
	assert.Equal(t, "LOW", txn.RiskLevel)
	assert.False(t, txn.IsFraud)
	assert.Zero(t, txn.FraudScore)
}

func TestSubmitTransaction_UnknownUser(t *testing.T) {
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	payload := submitPayload("3b6f3a1e-0000-4000-8000-000000000000", "42.50")
	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	out := testutils.DecodeError(t, resp.Body)
	assert.Equal(t, "BUSINESS_UNKNOWN_USER", out.Code)
}

func TestSubmitTransaction_InvalidAmount(t *testing.T) {
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	payload := submitPayload(testutils.GetSeededUserID().String(), "-5")
	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSubmitTransaction_RuleFallbackFlagsHighRisk(t *testing.T) {
	// No model is reachable, so the verdict comes from the rule engine:
	// high amount (+0.3) and unusual hour (+0.2) and fraud history (+0.2).
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	userID := testutils.SeedUserWithFraudHistory(t, 1)

	payload := submitPayload(userID.String(), "15000.00")
	payload["transactionDate"] = "2025-06-10T03:00:00Z"

	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var txn transactionResponse
	testutils.DecodeJSON(t, resp.Body, &txn)
	assert.Equal(t, "CRITICAL", txn.RiskLevel)
	assert.True(t, txn.IsFraud)
	assert.InDelta(t, 0.7, txn.FraudScore, 1e-9)
	assert.Contains(t, txn.FraudReasons, "High transaction amount")
	assert.Contains(t, txn.FraudReasons, "Transaction made during unusual hours")
	assert.Contains(t, txn.FraudReasons, "User has fraud history")

	// The flagged transaction must have produced an ACTIVE alert.
	alertsResp, err := testutils.GetRequest(t, baseURL+"/api/v1/alerts/active")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, alertsResp.StatusCode)

	var alerts []alertResponse
	testutils.DecodeJSON(t, alertsResp.Body, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, txn.ID, alerts[0].TransactionID)
	assert.Equal(t, "AI_FRAUD_DETECTION", alerts[0].AlertType)
	assert.Equal(t, "CRITICAL", alerts[0].Severity)
	assert.Equal(t, "ACTIVE", alerts[0].Status)
}

func TestSubmitTransaction_RemoteModelVerdict(t *testing.T) {
	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"analysis": {
				"fraud_score": 0.91,
				"risk_level": "CRITICAL",
				"is_fraud": true,
				"reasons": ["Model flagged velocity anomaly"]
			}
		}`))
	}))
	defer model.Close()

	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{ModelBaseURL: model.URL})
	defer stop()

	userID := testutils.GetSeededUserID().String()
	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", submitPayload(userID, "42.50"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var txn transactionResponse
	testutils.DecodeJSON(t, resp.Body, &txn)
	assert.Equal(t, 0.91, txn.FraudScore)
	assert.Equal(t, "CRITICAL", txn.RiskLevel)
	assert.True(t, txn.IsFraud)
	assert.Contains(t, txn.FraudReasons, "Model flagged velocity anomaly")
}

func TestGetTransactionAndUserHistory(t *testing.T) {
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	userID := testutils.GetSeededUserID().String()

	first, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", submitPayload(userID, "10.00"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	var created transactionResponse
	testutils.DecodeJSON(t, first.Body, &created)

	second, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", submitPayload(userID, "20.00"))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, second.StatusCode)

	// Single transaction lookup
	byID, err := testutils.GetRequest(t, baseURL+"/api/v1/transactions/"+created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, byID.StatusCode)
	var fetched transactionResponse
	testutils.DecodeJSON(t, byID.Body, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	// Full user history, oldest first
	history, err := testutils.GetRequest(t, baseURL+"/api/v1/users/"+userID+"/transactions")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, history.StatusCode)
	var txns []transactionResponse
	testutils.DecodeJSON(t, history.Body, &txns)
	require.Len(t, txns, 2)
	assert.Equal(t, created.ID, txns[0].ID)
}

func TestResolveAlert_Lifecycle(t *testing.T) {
	baseURL, stop := testutils.StartFraudAPIServer(t, testutils.ServerOptions{})
	defer stop()

	userID := testutils.SeedUserWithFraudHistory(t, 1)
	payload := submitPayload(userID.String(), "15000.00")
	payload["transactionDate"] = "2025-06-10T03:00:00Z"

	resp, err := testutils.PostRequest(t, baseURL+"/api/v1/transactions", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	alertsResp, err := testutils.GetRequest(t, baseURL+"/api/v1/alerts/active")
	require.NoError(t, err)
	var alerts []alertResponse
	testutils.DecodeJSON(t, alertsResp.Body, &alerts)
	require.Len(t, alerts, 1)

	resolvePayload := map[string]interface{}{
		"status":             "FALSE_POSITIVE",
		"resolvedBy":         "analyst-7",
		"investigationNotes": "customer confirmed the purchase",
	}
	resolveResp, err := testutils.PutRequest(t, baseURL+"/api/v1/alerts/"+alerts[0].ID+"/resolve", resolvePayload)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resolveResp.StatusCode)

	var resolved alertResponse
	testutils.DecodeJSON(t, resolveResp.Body, &resolved)
	assert.Equal(t, "FALSE_POSITIVE", resolved.Status)
	assert.Equal(t, "analyst-7", resolved.ResolvedBy)

	// Resolving a closed alert is a state error.
	again, err := testutils.PutRequest(t, baseURL+"/api/v1/alerts/"+alerts[0].ID+"/resolve", resolvePayload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, again.StatusCode)
	out := testutils.DecodeError(t, again.Body)
	assert.Equal(t, "BUSINESS_ALERT_STATE", out.Code)

	// And the active list is empty again.
	emptyResp, err := testutils.GetRequest(t, baseURL+"/api/v1/alerts/active")
	require.NoError(t, err)
	var remaining []alertResponse
	testutils.DecodeJSON(t, emptyResp.Body, &remaining)
	assert.Empty(t, remaining)
}
