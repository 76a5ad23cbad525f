package errors

import (
	"net/http"
	"os"
	"strings"

	"codeberg.org/thecookflow/server/internal/logger"
	"github.com/gin-gonic/gin"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.InternalError(), errors.InvalidInput(), etc. for critical errors
//     These functions handle both logging and HTTP response automatically
//   - Use logger.ErrorErr() only for non-critical errors where processing continues
//   - Never call both logger.ErrorErr() and errors.InternalError() for the same error
//
// For services/repositories/internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond
//   - Do not log errors in non-handler code (avoid double logging)
//
// Quota exhaustion is never an error: it is a normal {allowed:false} result
// carried in the response body, not through this package.

// represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`             // error code (e.g., "unauthorized", "invalid_input")
	Message string `json:"message"`           // user-friendly message
	Details string `json:"details,omitempty"` // optional details (sanitized in production)
}

// standard error codes
const (
	CodeUnauthorized            = "unauthorized"
	CodeNotFound                = "not_found"
	CodeValidationError         = "validation_error"
	CodeServerError             = "server_error"
	CodeInvalidInput            = "invalid_input"
	CodeConflict                = "conflict"
	CodeTooManyRequests         = "too_many_requests"
	CodeTrialAlreadyUsed        = "trial_already_used"
	CodeVerificationRejected    = "verification_rejected"
	CodeVerificationUnavailable = "verification_unavailable"
)

// returns a 401 unauthorized error
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}

	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:   CodeUnauthorized,
		Message: message,
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, resource string) {
	message := "resource not found"

	if resource != "" {
		message = resource + " not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 400 bad request error for validation failures
func ValidationError(c *gin.Context, err error) {
	message := "validation failed"
	details := ""

	if err != nil {
		details = sanitizeError(err)
		if strings.Contains(err.Error(), "binding") || strings.Contains(err.Error(), "validation") {
			message = "request validation failed"
		}
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeValidationError,
		Message: message,
		Details: details,
	})
}

// returns a 400 error for a missing or malformed input field
func InvalidInput(c *gin.Context, message string) {
	if message == "" {
		message = "invalid input"
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeInvalidInput,
		Message: message,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "an error occurred"
	}

	// log full error server-side with context
	logger.ErrorErr(err, message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"user_id", c.GetString("user_id"),
	)

	// return sanitized error to client
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: sanitizeError(err),
	})
}

// returns a 409 conflict error
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "resource conflict"
	}

	c.JSON(http.StatusConflict, ErrorResponse{
		Error:   CodeConflict,
		Message: message,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "too many requests"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// returns a 409 error when the trial was already consumed
func TrialAlreadyUsed(c *gin.Context) {
	c.JSON(http.StatusConflict, ErrorResponse{
		Error:   CodeTrialAlreadyUsed,
		Message: "trial was already used for this account",
	})
}

// returns a 402 error when the billing provider rejected the purchase token
func VerificationRejected(c *gin.Context, message string) {
	if message == "" {
		message = "purchase could not be verified"
	}

	c.JSON(http.StatusPaymentRequired, ErrorResponse{
		Error:   CodeVerificationRejected,
		Message: message,
	})
}

// returns a 503 error when the billing provider could not be reached;
// the caller should retry, entitlement state is unchanged
func VerificationUnavailable(c *gin.Context, err error) {
	logger.ErrorErr(err, "billing verification unavailable",
		"path", c.Request.URL.Path,
		"user_id", c.GetString("user_id"),
	)

	c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Error:   CodeVerificationUnavailable,
		Message: "purchase verification is temporarily unavailable, try again",
	})
}

// sanitizes error messages for production
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}

	errMsg := err.Error()
	env := os.Getenv("ENVIRONMENT")

	if env != "production" {
		return errMsg
	}

	if strings.Contains(errMsg, "database") || strings.Contains(errMsg, "sql") {
		return "database operation failed"
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") {
		return "connection error occurred"
	}

	if strings.Contains(errMsg, "timeout") {
		return "request timed out"
	}

	if strings.Contains(errMsg, "permission") || strings.Contains(errMsg, "unauthorized") {
		return "permission denied"
	}

	if strings.Contains(errMsg, "not found") {
		return "resource not found"
	}

	return "an error occurred"
}
