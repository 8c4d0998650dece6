package apispec

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load("")
	require.NoError(t, err)
	info, ok := doc["info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2022.05.16", info["version"])
	assert.Contains(t, doc["paths"], "/books/")

	doc, err = Load("2030.01.01")
	require.NoError(t, err)
	assert.Equal(t, "2030.01.01", doc["info"].(map[string]any)["version"])
}

func TestHTTPHandler_Get(t *testing.T) {
	doc, err := Load("")
	require.NoError(t, err)
	handler := NewHTTPHandler(doc)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api_spec/", nil)

	handler.Get(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Info struct {
				Version string `json:"version"`
			} `json:"info"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2022.05.16", body.Data.Info.Version)
}
