package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Every response uses one of two envelopes: {status:"success", data} or
// {status:"error", message, details?}.

func Success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

func OK(c *gin.Context, data any) { Success(c, http.StatusOK, data) }

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"status": "error", "message": msg})
}

func ErrorWithDetails(c *gin.Context, status int, msg string, details any) {
	c.JSON(status, gin.H{"status": "error", "message": msg, "details": details})
}

func Unauthorized(c *gin.Context, msg string) { Error(c, http.StatusUnauthorized, msg) }
func BadRequest(c *gin.Context, msg string)   { Error(c, http.StatusBadRequest, msg) }
func NotFound(c *gin.Context, msg string)     { Error(c, http.StatusNotFound, msg) }
func Internal(c *gin.Context, msg string)     { Error(c, http.StatusInternalServerError, msg) }

// fieldViolation is one entry of the structured detail list attached to
// validation failures.
type fieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// BindError maps a ShouldBindJSON failure to the error envelope. Validator
// failures carry the per-field violation list; anything else (malformed JSON,
// type mismatches) becomes a plain bad request.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]fieldViolation, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldViolation{
				Field: strings.ToLower(fe.Field()[:1]) + fe.Field()[1:],
				Rule:  fe.Tag(),
				Param: fe.Param(),
			})
		}
		ErrorWithDetails(c, http.StatusBadRequest, "Invalid request data", details)
		return
	}
	BadRequest(c, "Invalid request data")
}
