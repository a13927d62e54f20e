package httputil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// MaxJSONBodyBytes limits JSON request bodies.
const MaxJSONBodyBytes = 16 << 10

// ParseJSON decodes JSON from the request body into the given destination.
// The body is capped at MaxJSONBodyBytes.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ReadRawBody reads the request body unparsed, capped at limit bytes.
// Signature verification needs the exact bytes the sender signed.
func ReadRawBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
