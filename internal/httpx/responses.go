package httpx

import (
	"encoding/json"
	"net/http"
)

// SuccessResponse is the envelope of every 2xx body.
type SuccessResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorResponse is the envelope of every 4xx and 5xx body.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Meta    map[string]any    `json:"meta,omitempty"`
}

type ErrorResponseBody struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points a validation message at a request field.
type ErrorDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// MessageResponse is the payload of informational answers such as duplicate detection.
type MessageResponse struct {
	Message string `json:"message"`
}

// responseMeta merges the request id into extra. It returns nil when both are empty.
func responseMeta(r *http.Request, extra map[string]any) map[string]any {
	id := RequestIDFrom(r)
	if id == "" && len(extra) == 0 {
		return nil
	}
	m := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		m[k] = v
	}
	if id != "" {
		m["request_id"] = id
	}
	return m
}

func respond(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger(r).Error().Err(err).Int("status", status).Msg("encode response")
	}
}

// JSONSuccess writes a 200 envelope around data with optional extra meta.
func JSONSuccess(w http.ResponseWriter, r *http.Request, data any, meta map[string]any) {
	respond(w, r, http.StatusOK, SuccessResponse{Success: true, Data: data, Meta: responseMeta(r, meta)})
}

func JSONSuccessCreated(w http.ResponseWriter, r *http.Request, data any) {
	respond(w, r, http.StatusCreated, SuccessResponse{Success: true, Data: data, Meta: responseMeta(r, nil)})
}

// JSONMessage writes a 200 envelope whose data is {"message": message}.
func JSONMessage(w http.ResponseWriter, r *http.Request, message string) {
	JSONSuccess(w, r, MessageResponse{Message: message}, nil)
}

func JSONSuccessNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// JSONError writes a failure envelope with a machine readable code.
func JSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, details []ErrorDetail) {
	respond(w, r, status, ErrorResponse{
		Error: ErrorResponseBody{Code: code, Message: message, Details: details},
		Meta:  responseMeta(r, nil),
	})
}
