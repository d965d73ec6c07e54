package services

import "github.com/gofiber/fiber/v2"

// Machine-readable blocked reasons surfaced to operator tooling.
const (
	BlockedInsufficientPermissions = "INSUFFICIENT_PERMISSIONS"
	BlockedTempLimitReached        = "TEMP_LIMIT_REACHED"
	BlockedCodeConflict            = "CODE_CONFLICT"
)

// ServiceError is a foreseeable business-rule failure. Handlers map it to
// the carried status; anything else becomes a generic 500.
type ServiceError struct {
	Status        int
	BlockedReason string
	Message       string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func ErrValidation(msg string) *ServiceError {
	return &ServiceError{Status: fiber.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) *ServiceError {
	return &ServiceError{
		Status:        fiber.StatusForbidden,
		BlockedReason: BlockedInsufficientPermissions,
		Message:       msg,
	}
}

func ErrNotFound(msg string) *ServiceError {
	return &ServiceError{Status: fiber.StatusNotFound, Message: msg}
}

func ErrConflict(blockedReason, msg string) *ServiceError {
	return &ServiceError{
		Status:        fiber.StatusConflict,
		BlockedReason: blockedReason,
		Message:       msg,
	}
}
