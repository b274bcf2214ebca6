package response

import "github.com/gin-gonic/gin"

// ErrorBody is the error payload. Success payloads are emitted at the top
// level by the handlers so the wire format stays compatible with the
// original portal clients; only errors share this envelope.
type ErrorBody struct {
	Error     string            `json:"error"`
	Code      ErrCode           `json:"code"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// Fail sends an error response using the canonical message for the code.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code, Fields: fields})
}

// FailErr sends an error response carrying the underlying error message.
// Used for storage and upstream failures, which must surface their cause
// for diagnostics rather than being swallowed. The request id rides along
// so a client report can be matched to server logs.
func FailErr(c *gin.Context, statusCode int, code ErrCode, err error) {
	c.JSON(statusCode, ErrorBody{Error: err.Error(), Code: code, RequestID: RequestID(c)})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Error: GetMessage(code), Code: code})
}
