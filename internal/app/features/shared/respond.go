// Package shared holds the JSON request and response helpers used by every
// feature handler.
package shared

import (
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/unionhub/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Status  string            `json:"status"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Reason  string            `json:"reason,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// WriteError renders err as an ErrorBody. Internal errors are logged and
// their cause is not exposed.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	body := ErrorBody{Status: "error", Code: apperr.KindInternal.String(), Message: "internal error"}

	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
		body.Code = e.Kind.String()
		body.Message = e.Message
		body.Fields = e.Fields
		body.Reason = e.Reason
	} else if log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	WriteJSON(w, r, status, body)
}

// DecodeJSON decodes the request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()

	if err := render.DecodeJSON(body, v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Field("body", "request body too large")
		}
		return apperr.Field("body", "malformed JSON body")
	}
	return nil
}

// ObjectIDParam parses the named chi URL parameter as an ObjectID.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Field(name, "invalid id")
	}
	return oid, nil
}
