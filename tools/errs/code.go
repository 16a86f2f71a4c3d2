package errs

import "net/http"

// Taxonomy codes. NotFound deliberately covers "exists but forbidden" so
// existence is never leaked to non-participants.
const (
	CodeInternal        = 500
	CodeBadRequest      = 1100
	CodeUnauthorized    = 1101
	CodeNotFound        = 1102
	CodeInvalidState    = 1103
	CodeConflict        = 1104
	CodeDeliveryPersist = 1105
)

var (
	ErrInternal        = NewCodeError(CodeInternal, "internal server error")
	ErrBadRequest      = NewCodeError(CodeBadRequest, "bad request")
	ErrUnauthorized    = NewCodeError(CodeUnauthorized, "unauthorized")
	ErrNotFound        = NewCodeError(CodeNotFound, "not found")
	ErrInvalidState    = NewCodeError(CodeInvalidState, "invalid state")
	ErrConflict        = NewCodeError(CodeConflict, "conflict")
	ErrDeliveryPersist = NewCodeError(CodeDeliveryPersist, "notification persist failed")
)

// HTTPStatus maps a taxonomy code onto the status the HTTP layer should emit.
func HTTPStatus(err error) int {
	switch Code(err) {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidState:
		return http.StatusBadRequest
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
