package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"bookstore/internal/platform/googlebooks"
)

// NewRequest creates a new HTTP request for testing. A non-nil body is sent as JSON.
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse is a decoded response envelope.
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
	// Data is the raw "data" member of the envelope.
	Data json.RawMessage
}

// RecordHTTPResponse decodes the recorded response.
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if len(bodyBytes) > 0 {
		_ = json.Unmarshal(bodyBytes, &bodyMap)
		_ = json.Unmarshal(bodyBytes, &envelope)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
		Data:   envelope.Data,
	}
}

// DecodeData unmarshals the envelope data into dst.
func (r RecordResponse) DecodeData(t testing.TB, dst any) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", r.Data, err)
	}
}

// ErrorCode returns error.code of a failure envelope.
func (r RecordResponse) ErrorCode() string {
	e, _ := r.Body["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

// GoogleBooksServer serves the given volumes from a fake volumes endpoint,
// paginated the way the real API is.
func GoogleBooksServer(t testing.TB, volumes []googlebooks.Volume) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books/v1/volumes" {
			http.NotFound(w, r)
			return
		}
		start, err := strconv.Atoi(r.URL.Query().Get("startIndex"))
		if err != nil {
			http.Error(w, "bad startIndex", http.StatusBadRequest)
			return
		}
		res := googlebooks.VolumesResponse{TotalItems: len(volumes)}
		for i := start; i < len(volumes) && i < start+googlebooks.PageSize; i++ {
			res.Items = append(res.Items, volumes[i])
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(res)
	}))
	t.Cleanup(srv.Close)
	return srv
}
