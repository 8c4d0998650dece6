package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// DecodeJSON decodes the request body into dst and validates it.
// On failure it returns the details to report to the client.
func DecodeJSON(r *http.Request, dst any) []ErrorDetail {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &typeErr):
			return []ErrorDetail{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type),
			}}
		case errors.As(err, &maxErr):
			return []ErrorDetail{{Message: "request body too large"}}
		case errors.Is(err, io.EOF):
			return []ErrorDetail{{Message: "request body is empty"}}
		default:
			return []ErrorDetail{{Message: "request body is not valid JSON"}}
		}
	}
	return ValidateStruct(dst)
}
