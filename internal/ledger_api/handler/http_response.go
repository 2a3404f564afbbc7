package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiny-ledger/internal/ledger_api/middleware"
)

// Error codes returned in the response envelope
const (
	CodeBadRequest         = "BAD_REQUEST"
	CodeInvalidTransaction = "INVALID_TRANSACTION"
	CodeInvalidRange       = "INVALID_RANGE"
	CodeNotFound           = "NOT_FOUND"
	CodeInternalError      = "INTERNAL_SERVER_ERROR"
)

// Response represents a standard API response
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// ErrorInfo represents error information in a response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondWithData sends a JSON response with data
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, &Response{
		Data:          data,
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondWithError sends a JSON response with an error
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, &Response{
		Error:         &ErrorInfo{Code: code, Message: message},
		CorrelationID: middleware.GetCorrelationID(c),
	})
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

// RespondBadRequest sends a 400 response for input that could not be parsed
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeBadRequest, message)
}

// RespondInvalidTransaction sends a 400 response for a business rule violation
func RespondInvalidTransaction(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeInvalidTransaction, message)
}

// RespondInvalidRange sends a 400 response for inverted or equal query bounds
func RespondInvalidRange(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeInvalidRange, message)
}

// RespondNotFound sends a 404 Not Found response with an error
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, CodeNotFound, message)
}

// RespondInternalError sends a 500 Internal Server Error response with an error
func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, CodeInternalError, "An internal server error occurred")
}
