package responses

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/janhq/roombus/internal/infrastructure/credentialdb"
	"github.com/janhq/roombus/internal/utils/platformerrors"
)

// WriteError writes err as {error, message} with the appropriate HTTP status.
// Repository-specific sentinel errors are mapped first, everything else
// falls back to the generic platform error handling.
func WriteError(c *gin.Context, err error, message string) {
	if errors.Is(err, credentialdb.ErrKeyNotFound) {
		Write(c, 404, "not_found", message)
		return
	}
	if errors.Is(err, credentialdb.ErrKeyAlreadyActive) {
		Write(c, 409, "conflict", message)
		return
	}

	platformErr := platformerrors.GetPlatformError(err)
	if platformErr != nil {
		platformerrors.LogError(log.Logger, platformErr)
		Write(c, platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), errorSlug(platformErr.Type), platformErr.Message)
		return
	}

	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
	Write(c, 500, "internal_error", message)
}

// WriteTyped writes a {error, message} body for a known ErrorType without
// wrapping a Go error — used for route-level validation/authorization checks.
func WriteTyped(c *gin.Context, errorType platformerrors.ErrorType, message string) {
	Write(c, platformerrors.ErrorTypeToHTTPStatus(errorType), errorSlug(errorType), message)
}

// Write emits the flat {error, message} envelope spec.md §4.1/§7 requires.
func Write(c *gin.Context, status int, slug, message string) {
	c.JSON(status, ErrorBody{Error: slug, Message: message}.MarshalMap())
}

// WriteExtra is Write plus extra context fields merged into the envelope
// (e.g. validRoles on a bad `type` query param).
func WriteExtra(c *gin.Context, status int, slug, message string, extra map[string]any) {
	c.JSON(status, ErrorBody{Error: slug, Message: message, Extra: extra}.MarshalMap())
}

func errorSlug(t platformerrors.ErrorType) string {
	switch t {
	case platformerrors.ErrorTypeNotFound:
		return "not_found"
	case platformerrors.ErrorTypeValidation:
		return "validation_error"
	case platformerrors.ErrorTypeConflict:
		return "conflict"
	case platformerrors.ErrorTypeUnauthorized:
		return "unauthorized"
	case platformerrors.ErrorTypeForbidden:
		return "forbidden"
	case platformerrors.ErrorTypeNotImplemented:
		return "not_implemented"
	case platformerrors.ErrorTypeExpired:
		return "expired"
	case platformerrors.ErrorTypeRateLimited:
		return "rate_limited"
	case platformerrors.ErrorTypeTimeout:
		return "timeout"
	case platformerrors.ErrorTypeExternal:
		return "external_error"
	case platformerrors.ErrorTypeTooManyRecords:
		return "too_many_records"
	case platformerrors.ErrorTypeInternal:
		fallthrough
	default:
		return "internal_error"
	}
}
