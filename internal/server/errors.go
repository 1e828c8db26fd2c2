package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/schoolworks/feeledger/internal/academic"
	feecollectiondomain "github.com/schoolworks/feeledger/internal/feecollection/domain"
	feerecorddomain "github.com/schoolworks/feeledger/internal/feerecord/domain"
	feestructuredomain "github.com/schoolworks/feeledger/internal/feestructure/domain"
	studentdomain "github.com/schoolworks/feeledger/internal/student/domain"
)

var (
	ErrNotFound           = errors.New("not_found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyRequests    = errors.New("too_many_requests")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

type apiError struct {
	Status  int      `json:"-"`
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

func newValidationError(field, code, message string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

func invalidRequestError() *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

// AbortWithError maps domain errors onto HTTP responses. Warnings never
// land here; only blocking errors do.
func AbortWithError(c *gin.Context, err error) {
	var api *apiError
	if errors.As(err, &api) {
		c.AbortWithStatusJSON(api.Status, gin.H{"error": api})
		return
	}

	var invalid *feecollectiondomain.ValidationError
	if errors.As(err, &invalid) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Code:    "validation_failed",
			Message: invalid.Error(),
			Details: invalid.Messages,
		}})
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, fe.Error())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": &apiError{
			Code:    "invalid_request",
			Message: "request validation failed",
			Details: details,
		}})
		return
	}

	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, studentdomain.ErrStudentNotFound),
		errors.Is(err, feestructuredomain.ErrStructureNotFound),
		errors.Is(err, feerecorddomain.ErrRecordNotFound),
		errors.Is(err, feerecorddomain.ErrOneTimeFeeNotFound),
		errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, studentdomain.ErrSchoolMismatch),
		errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, feerecorddomain.ErrMonthAlreadyPaid),
		errors.Is(err, feerecorddomain.ErrMonthWaived),
		errors.Is(err, feerecorddomain.ErrOneTimeFeePaid):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, feerecorddomain.ErrStaleRecord):
		status, code = http.StatusConflict, "conflict_retry"
	case errors.Is(err, feerecorddomain.ErrInvalidMonth),
		errors.Is(err, feecollectiondomain.ErrInvalidAmount),
		errors.Is(err, feecollectiondomain.ErrInvalidPaymentMethod),
		errors.Is(err, feecollectiondomain.ErrInsufficientAmount),
		errors.Is(err, feecollectiondomain.ErrAmountExceedsBalance),
		errors.Is(err, feestructuredomain.ErrInvalidGrade),
		errors.Is(err, feestructuredomain.ErrInvalidAmount),
		errors.Is(err, feestructuredomain.ErrInvalidComponent),
		errors.Is(err, academic.ErrInvalidYear):
		status, code = http.StatusBadRequest, "validation_failed"
	case errors.Is(err, ErrTooManyRequests):
		status, code = http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, ErrServiceUnavailable):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": &apiError{
		Code:    code,
		Message: err.Error(),
	}})
}
