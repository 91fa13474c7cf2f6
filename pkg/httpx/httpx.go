// Package httpx contains the small pieces of HTTP plumbing shared by handlers:
// JSON responses, error mapping, request decoding and pagination.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-jobboard-go/pkg/apperror"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusOf maps a domain error kind to its HTTP status. Unknown errors are 500.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrAlreadyExists), errors.Is(err, apperror.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"detail": ...}. Domain errors keep their message;
// anything else is logged with full detail and answered with an opaque 500.
func WriteError(logger *zap.SugaredLogger, w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		logger.Errorw("unhandled error", "method", r.Method, "path", r.URL.Path, "err", err)
		WriteJSON(w, status, ErrorBody{Detail: "Internal server error"})
		return
	}
	msg := apperror.Message(err)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	logger.Debugw("request rejected", "path", r.URL.Path, "status", status, "detail", msg)
	WriteJSON(w, status, ErrorBody{Detail: msg})
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator; field names in errors follow json tags.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst and validates it. Failures are
// apperror.BadRequest.
func DecodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperror.BadRequest("request body too large")
		}
		return apperror.BadRequest("invalid payload")
	}
	return Validate(dst)
}

// Validate runs struct validation and flattens the result into a BadRequest.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
			}
			return apperror.BadRequest("invalid " + strings.Join(parts, ", "))
		}
		return apperror.BadRequest("invalid payload")
	}
	return nil
}

// Page is a skip/limit window.
type Page struct {
	Skip  int
	Limit int
}

// ParsePage reads skip and limit from the query string. skip defaults to 0,
// limit to def, and limit must lie in [1, max].
func ParsePage(r *http.Request, def, max int) (Page, error) {
	p := Page{Skip: 0, Limit: def}
	q := r.URL.Query()
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, apperror.BadRequest("skip must be a non-negative integer")
		}
		p.Skip = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > max {
			return p, apperror.BadRequest(fmt.Sprintf("limit must be between 1 and %d", max))
		}
		p.Limit = n
	}
	return p, nil
}
