package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"spendwise/internal/auth"
	"spendwise/internal/docstore"
	"spendwise/internal/log"
	"spendwise/internal/market"
	"spendwise/internal/services"
)

// errBadRequest marks requests that could not be parsed.
var errBadRequest = errors.New("bad request")

// JSONResponse builds a JSON response with a fluent API.
type JSONResponse struct {
	status  int
	headers http.Header
	body    any
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{status: http.StatusOK, headers: make(http.Header)}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.status = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers.Set(name, value)
	return b
}

// Body sets the value encoded as the response body. A nil body sends
// no content.
func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if b.body == nil {
		w.WriteHeader(b.status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	_ = json.NewEncoder(w).Encode(b.body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

func writeNoContent(w http.ResponseWriter) {
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// errorKind maps an error to its status and code.
func errorKind(err error) (int, string) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, services.ErrInvalid):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, docstore.ErrMissingOwner),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, docstore.ErrNotFound), errors.Is(err, docstore.ErrUnknownCollection):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, market.ErrUpstream):
		return http.StatusBadGateway, "upstream"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal"
}

// writeError answers with the status of err. Server errors are logged
// and their message is not exposed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorKind(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, ErrorBody{Error: msg, Code: code})
}
