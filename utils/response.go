package utils

import "github.com/gin-gonic/gin"

// Business codes carried in the envelope: <http status><two digits>.
const (
	CodeOK                = 0
	CodeValidation        = 40001
	CodeInvalidCredential = 40002
	CodeMissingAuth       = 40101
	CodeBadAuthFormat     = 40102
	CodeEmptyToken        = 40103
	CodeTokenRevoked      = 40104
	CodeInvalidToken      = 40105
	CodeUnknownUser       = 40106
	CodeForbidden         = 40301
	CodeNotFound          = 40401
	CodeRouteNotFound     = 40400
	CodeConflict          = 40901
	CodeRateLimited       = 42901
	CodeInternal          = 50000
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}, errMsg string) {
	ctx.JSON(status, JSONResponse{
		Status:  status,
		Success: status < 400,
		Code:    code,
		Message: message,
		Data:    data,
		Error:   errMsg,
	})
}

// Success returns a 200 response carrying data.
func Success(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 200, CodeOK, message, data, "")
}

// Created returns a 201 response carrying the new resource.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 201, CodeOK, message, data, "")
}

// Error returns a standard error response. errMsg defaults to message.
func Error(ctx *gin.Context, status int, code int, message string, errMsg string) {
	if errMsg == "" {
		errMsg = message
	}
	Respond(ctx, status, code, message, nil, errMsg)
}
