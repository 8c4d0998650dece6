package apispec

import (
	_ "embed"
	"fmt"
	"net/http"

	"bookstore/internal/httpx"

	"gopkg.in/yaml.v3"
)

//go:embed api_spec.yaml
var raw []byte

// Document is the parsed API description.
type Document map[string]any

// Load parses the embedded document. A non-empty version replaces info.version.
func Load(version string) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse api spec: %w", err)
	}
	if version != "" {
		info, ok := doc["info"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("parse api spec: missing info section")
		}
		info["version"] = version
	}
	return doc, nil
}

type HTTPHandler struct {
	doc Document
}

func NewHTTPHandler(doc Document) *HTTPHandler {
	return &HTTPHandler{doc: doc}
}

// Get handles GET /api_spec/
// @Summary API description
// @Tags meta
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /api_spec/ [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, r, h.doc, nil)
}
