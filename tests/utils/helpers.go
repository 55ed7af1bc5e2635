package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/smartmedishop/fraud-pipeline/pkg"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func PostRequest(t *testing.T, url string, payload interface{}) (*http.Response, error) {
	return doRequest(t, http.MethodPost, url, payload)
}

func PutRequest(t *testing.T, url string, payload interface{}) (*http.Response, error) {
	return doRequest(t, http.MethodPut, url, payload)
}

func GetRequest(t *testing.T, url string) (*http.Response, error) {
	return doRequest(t, http.MethodGet, url, nil)
}

func doRequest(t *testing.T, method, url string, payload interface{}) (*http.Response, error) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	// Ensure required tracing headers exist for middleware
	req.Header.Set(pkg.HeaderRequestId, uuid.New().String())
	req.Header.Set(pkg.HeaderTraceId, uuid.New().String())

	client := &http.Client{}
	t.Logf("Request %s %s", method, url)
	resp, err := client.Do(req)
	if resp != nil {
		t.Logf("Response %s %s: Status %d", method, url, resp.StatusCode)
	}
	t.Cleanup(func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	})
	return resp, err
}

func GetTraceId(resp *http.Response) string {
	return resp.Header.Get(pkg.HeaderTraceId)
}

// DecodeJSON decodes a response body into out.
func DecodeJSON(t *testing.T, r io.Reader, out interface{}) {
	t.Helper()
	if err := json.NewDecoder(r).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

func DecodeError(t *testing.T, r io.Reader) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	DecodeJSON(t, r, &out)
	return out
}
