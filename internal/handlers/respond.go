// internal/handlers/respond.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ammerola/pharmabook-be/internal/core/domain"
)

const maxJSONBody = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	MedicineID  string `json:"medicine_id,omitempty"`
	BatchNumber string `json:"batch_number,omitempty"`
	Available   *int   `json:"available,omitempty"`
	Requested   *int   `json:"requested,omitempty"`
	Retryable   bool   `json:"retryable"`
}

var (
	validate = newValidator()

	errUnauthenticated = errors.New("authentication required")
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

// respondError maps err onto a status code and body. Internal errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, body := errorResponse(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("kind", body.Kind),
			slog.String("error", err.Error()))
	} else {
		logger.InfoContext(r.Context(), "request rejected",
			slog.String("kind", body.Kind),
			slog.String("error", err.Error()))
	}

	respondJSON(w, logger, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, errUnauthenticated) {
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Kind: "unauthenticated"}
	}

	body := ErrorResponse{Kind: domain.KindOf(err)}

	be, ok := domain.AsBillingError(err)
	if ok {
		body.Error = be.Kind.Error()
		if be.Message != "" {
			body.Error += ": " + be.Message
		}
		if be.MedicineID != uuid.Nil {
			body.MedicineID = be.MedicineID.String()
		}
		body.BatchNumber = be.BatchNumber
		body.Retryable = be.Retryable()
		if errors.Is(be.Kind, domain.ErrInsufficientStock) {
			body.Available, body.Requested = &be.Available, &be.Requested
		}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		if !ok {
			body.Error = err.Error()
		}
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrNotFound):
		if !ok {
			body.Error = err.Error()
		}
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrStoreUnavailable):
		body.Error = domain.ErrStoreUnavailable.Error()
		body.Retryable = true
		return http.StatusServiceUnavailable, body
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: body.Kind}
	}
}

// decodeJSON reads one JSON document into dst and runs struct validation.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.InvalidRequest("request body is empty")
		case errors.As(err, &syntaxErr):
			return domain.InvalidRequest("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return domain.InvalidRequest("field %s has the wrong type", typeErr.Field)
		default:
			return domain.InvalidRequest("invalid request body: %v", err)
		}
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.InvalidRequest("%v", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "min", "gte", "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, comparator(fe.Tag()), fe.Param()))
		case "max", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return domain.InvalidRequest("%s", strings.Join(msgs, "; "))
}

func comparator(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}

func ownerFrom(r *http.Request) (uuid.UUID, error) {
	id, ok := domain.IdentityFrom(r.Context())
	if !ok {
		return uuid.Nil, errUnauthenticated
	}
	return id.UserID, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.InvalidRequest("%s %q is not a valid id", name, r.PathValue(name))
	}
	return id, nil
}
