package httputil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skillbreak/kiticon/pkg/cache"
	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	switch kerrors.GetCode(err) {
	case kerrors.ErrCodeInvalidInput, kerrors.ErrCodeInvalidFormat,
		kerrors.ErrCodeInvalidPath, kerrors.ErrCodeInvalidSymbol:
		return http.StatusBadRequest
	case kerrors.ErrCodeNotFound, kerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case kerrors.ErrCodeDecodeFailure, kerrors.ErrCodeUnsupported:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	body := errorBody{Code: string(kerrors.GetCode(err)), Error: kerrors.UserMessage(err)}
	if body.Code == "" {
		body.Code = string(kerrors.ErrCodeInternal)
		body.Error = http.StatusText(status)
	}
	WriteJSON(w, status, body)
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WritePNG writes data as image/png. The ETag is the content hash; a request
// whose If-None-Match already names it gets 304 Not Modified.
func WritePNG(w http.ResponseWriter, r *http.Request, data []byte) {
	etag := `"` + cache.Hash(data) + `"`
	h := w.Header()
	h.Set("ETag", etag)
	h.Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	h.Set("Content-Type", "image/png")
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(data)
	}
}
