package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/core"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/ledger"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/register"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/services"
)

// ProblemDetail is an RFC7807 error body.
type ProblemDetail struct {
	Type   string            `json:"type,omitempty"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

var errMalformedBody = errors.New("malformed JSON body")

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeProblem(w http.ResponseWriter, p ProblemDetail) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// respondError maps domain errors to problem responses. Unknown errors are
// logged and reported without detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Namespace()] = fieldMessage(fe)
		}
		writeProblem(w, ProblemDetail{Title: "Validation Failed", Status: http.StatusBadRequest, Fields: fields})
		return
	}

	status, title := classify(err)
	if status == http.StatusInternalServerError {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		writeProblem(w, ProblemDetail{Title: title, Status: status})
		return
	}
	writeProblem(w, ProblemDetail{Title: title, Status: status, Detail: err.Error()})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, core.ErrEmptyID),
		errors.Is(err, core.ErrEmptyStore),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidType),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrDescriptionTooLong),
		errors.Is(err, core.ErrEmptyItems),
		errors.Is(err, core.ErrZeroDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyCustomer),
		errors.Is(err, register.ErrEmptyStore),
		errors.Is(err, register.ErrNegativeOpeningAmount),
		errors.Is(err, register.ErrNegativeClosingAmount):
		return http.StatusBadRequest, "Validation Failed"
	case errors.Is(err, register.ErrRegisterNotFound),
		errors.Is(err, services.ErrLayawayNotFound),
		errors.Is(err, services.ErrProductNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrPaymentMethodNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, register.ErrRegisterAlreadyOpen),
		errors.Is(err, register.ErrInvalidState),
		errors.Is(err, services.ErrLayawayClosed),
		errors.Is(err, services.ErrCategoryExists),
		errors.Is(err, services.ErrPaymentMethodExists),
		errors.Is(err, ledger.ErrDuplicateMovement):
		return http.StatusConflict, "Conflict"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "amount":
		return "must be a non-negative amount"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must have at least " + fe.Param() + " entries"
	case "gt", "gte":
		return "is out of range"
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
