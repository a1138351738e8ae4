package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"competition-ledger/internal/apperrors"
	"competition-ledger/internal/http/v1/middleware"
	"competition-ledger/internal/lib/logger/sl"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, data any) {
	middleware.WriteJSON(w, status, data)
}

// respondError logs err and renders it. Classified errors are client mistakes
// and only get an info line.
func respondError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		log.Error(msg, sl.Err(err))
	} else {
		log.Info(msg, sl.Err(err))
	}
	middleware.WriteError(w, err)
}

// decodeJSON reads and validates a request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidBody, err)
	}

	if err := validate.Struct(dst); err != nil {
		return validationError(err)
	}

	return nil
}

func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidBody, err)
	}

	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return apperrors.New(apperrors.KindBadRequest, "validation error: "+strings.Join(fields, "; "))
}

// NewValidator reports json field names instead of Go field names.
func NewValidator() *validator.Validate {
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

func pathID(r *http.Request, name string) (string, error) {
	id := chi.URLParam(r, name)
	if err := uuid.Validate(id); err != nil {
		return "", apperrors.ErrInvalidID
	}
	return id, nil
}

func actorID(r *http.Request) string {
	actor, _ := middleware.ActorFrom(r.Context())
	return actor.ID
}

func requestLog(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", chimiddleware.GetReqID(r.Context())),
		slog.String("actor_id", actorID(r)),
	)
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
